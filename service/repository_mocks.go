package service

import (
	"context"
	"time"

	"chesswager/events"
	"chesswager/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByChessHandle(ctx context.Context, handle string) (*models.User, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, id int64, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, id int64, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

// MockWagerRepository is a mock implementation of WagerRepository
type MockWagerRepository struct {
	mock.Mock
}

func (m *MockWagerRepository) Create(ctx context.Context, wager *models.Wager) error {
	args := m.Called(ctx, wager)
	return args.Error(0)
}

func (m *MockWagerRepository) GetByID(ctx context.Context, id int64) (*models.Wager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Wager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wager), args.Error(1)
}

func (m *MockWagerRepository) MarkPolled(ctx context.Context, id int64, polledAt time.Time) error {
	args := m.Called(ctx, id, polledAt)
	return args.Error(0)
}

func (m *MockWagerRepository) RecordSettleFailure(ctx context.Context, id int64) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockWagerRepository) TransitionStatus(ctx context.Context, id int64, from, to models.WagerStatus, resolvedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, from, to, resolvedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockWagerRepository) ListPendingAccepted(ctx context.Context, acceptedAfter, acceptedBefore time.Time, limit int) ([]*models.Wager, error) {
	args := m.Called(ctx, acceptedAfter, acceptedBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Wager), args.Error(1)
}

// MockSettlementRecordRepository is a mock implementation of SettlementRecordRepository
type MockSettlementRecordRepository struct {
	mock.Mock
}

func (m *MockSettlementRecordRepository) Insert(ctx context.Context, record *models.SettlementRecord) (bool, error) {
	args := m.Called(ctx, record)
	return args.Bool(0), args.Error(1)
}

func (m *MockSettlementRecordRepository) GetByLink(ctx context.Context, link string) (*models.SettlementRecord, error) {
	args := m.Called(ctx, link)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementRecord), args.Error(1)
}

func (m *MockSettlementRecordRepository) GetByWagerID(ctx context.Context, wagerID int64) (*models.SettlementRecord, error) {
	args := m.Called(ctx, wagerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementRecord), args.Error(1)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Append(ctx context.Context, entry *models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListByWager(ctx context.Context, wagerID int64) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, wagerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockGameArchive is a mock implementation of GameArchive
type MockGameArchive struct {
	mock.Mock
}

func (m *MockGameArchive) FetchMonthlyGames(ctx context.Context, handle string, year int, month time.Month) ([]models.RawGameRecord, error) {
	args := m.Called(ctx, handle, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RawGameRecord), args.Error(1)
}

// MockUnitOfWork is a mock implementation of UnitOfWork.
// Repositories are plain fields so tests only set expectations on the calls they care about.
type MockUnitOfWork struct {
	mock.Mock
	userRepo             UserRepository
	wagerRepo            WagerRepository
	settlementRecordRepo SettlementRecordRepository
	ledgerRepo           LedgerRepository
	eventBus             EventPublisher
}

// SetRepositories wires the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(userRepo UserRepository, wagerRepo WagerRepository, settlementRecordRepo SettlementRecordRepository, ledgerRepo LedgerRepository, eventBus EventPublisher) {
	m.userRepo = userRepo
	m.wagerRepo = wagerRepo
	m.settlementRecordRepo = settlementRecordRepo
	m.ledgerRepo = ledgerRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) WagerRepository() WagerRepository {
	return m.wagerRepo
}

func (m *MockUnitOfWork) SettlementRecordRepository() SettlementRecordRepository {
	return m.settlementRecordRepo
}

func (m *MockUnitOfWork) LedgerRepository() LedgerRepository {
	return m.ledgerRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockSettlementService is a mock implementation of SettlementService
type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) Settle(ctx context.Context, uow UnitOfWork, wagerID int64, outcome models.Outcome) (*models.SettlementReceipt, error) {
	args := m.Called(ctx, uow, wagerID, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementReceipt), args.Error(1)
}

func (m *MockSettlementService) SettleWager(ctx context.Context, wagerID int64, outcome models.Outcome) (*models.SettlementReceipt, error) {
	args := m.Called(ctx, wagerID, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementReceipt), args.Error(1)
}

// MockResolutionService is a mock implementation of ResolutionService
type MockResolutionService struct {
	mock.Mock
}

func (m *MockResolutionService) ResolveWager(ctx context.Context, wagerID int64) (*models.ResolutionResult, error) {
	args := m.Called(ctx, wagerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResolutionResult), args.Error(1)
}

// MockAuditService is a mock implementation of AuditService
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) GetSettlementByLink(ctx context.Context, link string) (*models.SettlementRecord, error) {
	args := m.Called(ctx, link)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementRecord), args.Error(1)
}

func (m *MockAuditService) GetLedgerByWager(ctx context.Context, wagerID int64) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, wagerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

func (m *MockAuditService) ListResolvableWagers(ctx context.Context, acceptedAfter, acceptedBefore time.Time, limit int) ([]*models.Wager, error) {
	args := m.Called(ctx, acceptedAfter, acceptedBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Wager), args.Error(1)
}
