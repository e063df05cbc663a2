package service

import (
	"context"
	"fmt"
	"time"

	"chesswager/events"
	"chesswager/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// DefaultCurrency is used when a wager does not carry its own currency
const DefaultCurrency = "KES"

// settlementEngine implements the SettlementService interface
type settlementEngine struct {
	uowFactory UnitOfWorkFactory
	currency   string
	metrics    MetricsRecorder
	now        func() time.Time
}

// NewSettlementEngine creates a new settlement engine
func NewSettlementEngine(uowFactory UnitOfWorkFactory, currency string, metrics MetricsRecorder) SettlementService {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &settlementEngine{
		uowFactory: uowFactory,
		currency:   currency,
		metrics:    metricsOrNoop(metrics),
		now:        time.Now,
	}
}

// SettleWager applies the outcome in its own unit of work
func (s *settlementEngine) SettleWager(ctx context.Context, wagerID int64, outcome models.Outcome) (*models.SettlementReceipt, error) {
	// Checked before opening a transaction
	if !outcome.IsSettleable() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, outcome)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	receipt, err := s.Settle(ctx, uow, wagerID, outcome)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.metrics.RecordSettlement(ctx, receipt.Outcome, settledStake(receipt))
	return receipt, nil
}

// Settle applies the outcome inside a unit of work owned by the caller.
// The wager row is locked and must still be accepted and pending.
func (s *settlementEngine) Settle(ctx context.Context, uow UnitOfWork, wagerID int64, outcome models.Outcome) (*models.SettlementReceipt, error) {
	if !outcome.IsSettleable() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, outcome)
	}

	wager, err := uow.WagerRepository().GetByIDForUpdate(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wager: %w", err)
	}
	if wager == nil {
		return nil, fmt.Errorf("wager %d: %w", wagerID, ErrWagerNotFound)
	}

	if wager.RequestState != models.RequestStateAccepted {
		return nil, fmt.Errorf("%w: wager %d request is %s", ErrPreconditionFailed, wagerID, wager.RequestState)
	}
	if wager.Status != models.WagerStatusPending {
		return nil, fmt.Errorf("%w: wager %d is already %s", ErrPreconditionFailed, wagerID, wager.Status)
	}
	if !wager.HasOpponent() {
		return nil, fmt.Errorf("%w: wager %d has no counterparty yet", ErrPreconditionFailed, wagerID)
	}

	if wager.Currency == "" {
		wager.Currency = s.currency
	}

	link, err := s.boundLink(ctx, uow, wagerID)
	if err != nil {
		return nil, err
	}

	var receipt *models.SettlementReceipt
	if outcome == models.OutcomeDraw {
		receipt, err = s.settleDraw(ctx, uow, wager)
	} else {
		receipt, err = s.settleWin(ctx, uow, wager, outcome)
	}
	if err != nil {
		return nil, err
	}

	for _, intent := range receipt.Notifications {
		uow.EventBus().Publish(events.NotificationRequestedEvent{Intent: intent})
	}
	uow.EventBus().Publish(events.WagerSettledEvent{
		WagerID:     wager.ID,
		Outcome:     receipt.Outcome,
		FinalStatus: receipt.FinalStatus,
		Link:        link,
		Stake:       wager.Stake,
		Currency:    wager.Currency,
	})

	log.WithFields(log.Fields{
		"wager_id":     wager.ID,
		"outcome":      receipt.Outcome,
		"final_status": receipt.FinalStatus,
		"stake":        wager.Stake,
	}).Info("Wager settled")

	return receipt, nil
}

func (s *settlementEngine) boundLink(ctx context.Context, uow UnitOfWork, wagerID int64) (string, error) {
	record, err := uow.SettlementRecordRepository().GetByWagerID(ctx, wagerID)
	if err != nil {
		return "", fmt.Errorf("failed to get settlement record: %w", err)
	}
	if record == nil {
		return "", nil
	}
	return record.Link, nil
}

func (s *settlementEngine) transition(ctx context.Context, uow UnitOfWork, wager *models.Wager, to models.WagerStatus) error {
	now := s.now().UTC()
	ok, err := uow.WagerRepository().TransitionStatus(ctx, wager.ID, models.WagerStatusPending, to, now)
	if err != nil {
		return fmt.Errorf("failed to update wager status: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: wager %d is no longer pending", ErrPreconditionFailed, wager.ID)
	}
	wager.Status = to
	wager.ResolvedAt = &now
	return nil
}

func (s *settlementEngine) settleDraw(ctx context.Context, uow UnitOfWork, wager *models.Wager) (*models.SettlementReceipt, error) {
	if err := s.transition(ctx, uow, wager, models.WagerStatusDraw); err != nil {
		return nil, err
	}

	return &models.SettlementReceipt{
		WagerID:     wager.ID,
		Outcome:     models.OutcomeDraw,
		FinalStatus: models.WagerStatusDraw,
		Notifications: []models.NotificationIntent{
			drawIntent(wager, wager.ChallengerID, wager.OpponentHandle),
			drawIntent(wager, *wager.OpponentID, wager.ChallengerHandle),
		},
	}, nil
}

func (s *settlementEngine) settleWin(ctx context.Context, uow UnitOfWork, wager *models.Wager, outcome models.Outcome) (*models.SettlementReceipt, error) {
	winnerID, loserID := wager.ChallengerID, *wager.OpponentID
	winnerHandle, loserHandle := wager.ChallengerHandle, wager.OpponentHandle
	finalStatus := models.WagerStatusWon
	if outcome == models.OutcomeContender {
		winnerID, loserID = loserID, winnerID
		winnerHandle, loserHandle = loserHandle, winnerHandle
		finalStatus = models.WagerStatusLoss
	}

	if err := s.transition(ctx, uow, wager, finalStatus); err != nil {
		return nil, err
	}

	// Loser first so an insufficient balance aborts before anything is credited
	if err := uow.UserRepository().DeductBalance(ctx, loserID, wager.Stake); err != nil {
		return nil, fmt.Errorf("failed to deduct from loser: %w", err)
	}

	if err := uow.UserRepository().AddBalance(ctx, winnerID, wager.Stake); err != nil {
		return nil, fmt.Errorf("failed to add to winner: %w", err)
	}

	correlationID := uuid.New()
	credit := &models.LedgerEntry{
		RequestType:       models.LedgerRequestStakeWinCredit,
		Action:            models.LedgerActionCredit,
		WagerID:           wager.ID,
		OriginUserID:      loserID,
		DestinationUserID: winnerID,
		Amount:            wager.Stake,
		Currency:          wager.Currency,
		CorrelationID:     correlationID,
		Note: map[string]any{
			"note":         fmt.Sprintf("Stake won from %s", loserHandle),
			"challenge_id": wager.ID,
			"role":         "winner",
			"action":       string(models.LedgerActionCredit),
		},
	}
	debit := &models.LedgerEntry{
		RequestType:       models.LedgerRequestStakeLossDebit,
		Action:            models.LedgerActionDebit,
		WagerID:           wager.ID,
		OriginUserID:      loserID,
		DestinationUserID: winnerID,
		Amount:            -wager.Stake,
		Currency:          wager.Currency,
		CorrelationID:     correlationID,
		Note: map[string]any{
			"note":         fmt.Sprintf("Stake lost to %s", winnerHandle),
			"challenge_id": wager.ID,
			"role":         "loser",
			"action":       string(models.LedgerActionDebit),
		},
	}

	for _, entry := range []*models.LedgerEntry{credit, debit} {
		if err := uow.LedgerRepository().Append(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to append ledger entry: %w", err)
		}
	}

	amount := FormatAmount(wager.Stake, wager.Currency)
	return &models.SettlementReceipt{
		WagerID:       wager.ID,
		Outcome:       outcome,
		FinalStatus:   finalStatus,
		LedgerEntries: []*models.LedgerEntry{credit, debit},
		Notifications: []models.NotificationIntent{
			{
				UserID:  winnerID,
				WagerID: wager.ID,
				Kind:    models.NotificationKindWon,
				Title:   "🎉 You Won!",
				Message: fmt.Sprintf("You beat %s in challenge #%d.", loserHandle, wager.ID),
				Details: fmt.Sprintf("Stake won: %s", amount),
			},
			{
				UserID:  loserID,
				WagerID: wager.ID,
				Kind:    models.NotificationKindLost,
				Title:   "😞 You Lost",
				Message: fmt.Sprintf("%s won challenge #%d.", winnerHandle, wager.ID),
				Details: fmt.Sprintf("Stake lost: %s", amount),
			},
		},
	}, nil
}

func drawIntent(wager *models.Wager, userID int64, opponentHandle string) models.NotificationIntent {
	return models.NotificationIntent{
		UserID:  userID,
		WagerID: wager.ID,
		Kind:    models.NotificationKindDraw,
		Title:   "🤝 It's a Draw",
		Message: fmt.Sprintf("Challenge #%d against %s ended in a draw.", wager.ID, opponentHandle),
		Details: "Your balance remains unchanged.",
	}
}

func settledStake(receipt *models.SettlementReceipt) int64 {
	for _, entry := range receipt.LedgerEntries {
		if entry.Action == models.LedgerActionCredit {
			return entry.Amount
		}
	}
	return 0
}
