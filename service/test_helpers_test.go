package service

import (
	"testing"
	"time"

	"chesswager/models"

	"github.com/stretchr/testify/mock"
)

// Test utilities

type serviceMocks struct {
	factory    *MockUnitOfWorkFactory
	uow        *MockUnitOfWork
	users      *MockUserRepository
	wagers     *MockWagerRepository
	records    *MockSettlementRecordRepository
	ledger     *MockLedgerRepository
	publisher  *MockEventPublisher
	archive    *MockGameArchive
	settlement *MockSettlementService
}

func newServiceMocks() *serviceMocks {
	m := &serviceMocks{
		factory:    new(MockUnitOfWorkFactory),
		uow:        new(MockUnitOfWork),
		users:      new(MockUserRepository),
		wagers:     new(MockWagerRepository),
		records:    new(MockSettlementRecordRepository),
		ledger:     new(MockLedgerRepository),
		publisher:  new(MockEventPublisher),
		archive:    new(MockGameArchive),
		settlement: new(MockSettlementService),
	}
	m.uow.SetRepositories(m.users, m.wagers, m.records, m.ledger, m.publisher)
	m.factory.On("Create").Return(m.uow)
	return m
}

func (m *serviceMocks) assertExpectations(t *testing.T) {
	m.factory.AssertExpectations(t)
	m.uow.AssertExpectations(t)
	m.users.AssertExpectations(t)
	m.wagers.AssertExpectations(t)
	m.records.AssertExpectations(t)
	m.ledger.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
	m.archive.AssertExpectations(t)
	m.settlement.AssertExpectations(t)
}

func setupBasicTransactionMocks(mockUoW *MockUnitOfWork) {
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
}

func setupRollbackOnlyMocks(mockUoW *MockUnitOfWork) {
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
}

// createTestWager builds an accepted pending wager between alice (1) and bob (2)
func createTestWager(id int64, stake int64, acceptedAt time.Time) *models.Wager {
	opponentID := int64(2)
	accepted := acceptedAt.UTC()
	return &models.Wager{
		ID:               id,
		ChallengerID:     1,
		OpponentID:       &opponentID,
		ChallengerHandle: "alice",
		OpponentHandle:   "bob",
		Stake:            stake,
		Currency:         "KES",
		RequestState:     models.RequestStateAccepted,
		Status:           models.WagerStatusPending,
		AcceptedAt:       &accepted,
	}
}

// copyWager returns a fresh copy per call so each mock call sees unmutated data
func copyWager(w *models.Wager) func() *models.Wager {
	return func() *models.Wager {
		c := *w
		return &c
	}
}

func createRawGame(white, black string, whiteResult, blackResult models.ResultToken, startedAt time.Time, link string) models.RawGameRecord {
	start := startedAt.UTC()
	return models.RawGameRecord{
		URL:         link,
		TimeControl: "600",
		Tags: map[string]string{
			"utcdate": start.Format("2006.01.02"),
			"utctime": start.Format("15:04:05"),
		},
		White: models.RawPlayer{Username: white, Result: whiteResult},
		Black: models.RawPlayer{Username: black, Result: blackResult},
	}
}
