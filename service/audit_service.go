package service

import (
	"context"
	"fmt"
	"time"

	"chesswager/models"
)

// auditService implements the AuditService interface
type auditService struct {
	uowFactory UnitOfWorkFactory
}

// NewAuditService creates a new audit service
func NewAuditService(uowFactory UnitOfWorkFactory) AuditService {
	return &auditService{uowFactory: uowFactory}
}

// GetSettlementByLink returns the record that claimed a game link
func (s *auditService) GetSettlementByLink(ctx context.Context, link string) (*models.SettlementRecord, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	record, err := uow.SettlementRecordRepository().GetByLink(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement record: %w", err)
	}
	return record, nil
}

// GetLedgerByWager returns the ledger entries written for a wager
func (s *auditService) GetLedgerByWager(ctx context.Context, wagerID int64) ([]*models.LedgerEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wager, err := uow.WagerRepository().GetByID(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wager: %w", err)
	}
	if wager == nil {
		return nil, fmt.Errorf("wager %d: %w", wagerID, ErrWagerNotFound)
	}

	entries, err := uow.LedgerRepository().ListByWager(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}

// ListResolvableWagers returns accepted, pending wagers accepted within [acceptedAfter, acceptedBefore]
func (s *auditService) ListResolvableWagers(ctx context.Context, acceptedAfter, acceptedBefore time.Time, limit int) ([]*models.Wager, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wagers, err := uow.WagerRepository().ListPendingAccepted(ctx, acceptedAfter, acceptedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolvable wagers: %w", err)
	}
	return wagers, nil
}
