package service

import (
	"context"
	"time"

	"chesswager/events"
	"chesswager/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByChessHandle retrieves a user by chess.com handle, ignoring case
	GetByChessHandle(ctx context.Context, handle string) (*models.User, error)

	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// AddBalance adds to a user's balance atomically
	AddBalance(ctx context.Context, id int64, amount int64) error

	// DeductBalance deducts from a user's balance atomically, failing if insufficient funds
	DeductBalance(ctx context.Context, id int64, amount int64) error
}

// WagerRepository defines the interface for wager data access
type WagerRepository interface {
	// Create creates a new wager
	Create(ctx context.Context, wager *models.Wager) error

	// GetByID retrieves a wager with participant handles joined
	GetByID(ctx context.Context, id int64) (*models.Wager, error)

	// GetByIDForUpdate retrieves a wager and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Wager, error)

	// TransitionStatus moves the wager from one status to another.
	// Returns false when the wager was no longer in the expected status.
	TransitionStatus(ctx context.Context, id int64, from, to models.WagerStatus, resolvedAt time.Time) (bool, error)

	// MarkPolled records a resolution attempt
	MarkPolled(ctx context.Context, id int64, polledAt time.Time) error

	// RecordSettleFailure counts a settlement that could not be applied and returns the new total
	RecordSettleFailure(ctx context.Context, id int64) (int, error)

	// ListPendingAccepted returns accepted, unresolved wagers accepted within [acceptedAfter, acceptedBefore],
	// least recently polled first
	ListPendingAccepted(ctx context.Context, acceptedAfter, acceptedBefore time.Time, limit int) ([]*models.Wager, error)
}

// SettlementRecordRepository defines the interface for persisted match records
type SettlementRecordRepository interface {
	// Insert stores the record unless its link is already taken.
	// Returns false when another record owns the link.
	Insert(ctx context.Context, record *models.SettlementRecord) (bool, error)

	// GetByLink retrieves a record by its external game link
	GetByLink(ctx context.Context, link string) (*models.SettlementRecord, error)

	// GetByWagerID retrieves the record bound to a wager
	GetByWagerID(ctx context.Context, wagerID int64) (*models.SettlementRecord, error)
}

// LedgerRepository defines the interface for the append-only ledger
type LedgerRepository interface {
	// Append writes a new ledger entry
	Append(ctx context.Context, entry *models.LedgerEntry) error

	// ListByWager returns all entries referencing a wager, oldest first
	ListByWager(ctx context.Context, wagerID int64) ([]*models.LedgerEntry, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// GameArchive fetches a player's games for one calendar month
type GameArchive interface {
	FetchMonthlyGames(ctx context.Context, handle string, year int, month time.Month) ([]models.RawGameRecord, error)
}

// MetricsRecorder receives pipeline measurements
type MetricsRecorder interface {
	RecordResolution(ctx context.Context, status models.ResolutionStatus)
	RecordSettlement(ctx context.Context, outcome models.Outcome, stake int64)
	RecordFetchFailure(ctx context.Context)
}

// SettlementService defines the interface for moving stakes once an outcome is known
type SettlementService interface {
	// Settle applies the outcome inside a unit of work owned by the caller
	Settle(ctx context.Context, uow UnitOfWork, wagerID int64, outcome models.Outcome) (*models.SettlementReceipt, error)

	// SettleWager applies the outcome in its own unit of work
	SettleWager(ctx context.Context, wagerID int64, outcome models.Outcome) (*models.SettlementReceipt, error)
}

// ResolutionService defines the interface for reconciling a wager against the game archive
type ResolutionService interface {
	// ResolveWager locates the wager's game, resolves the outcome and settles it
	ResolveWager(ctx context.Context, wagerID int64) (*models.ResolutionResult, error)
}

// AuditService defines read-only queries over settlement artifacts
type AuditService interface {
	// GetSettlementByLink returns the record that claimed a game link
	GetSettlementByLink(ctx context.Context, link string) (*models.SettlementRecord, error)

	// GetLedgerByWager returns the ledger entries written for a wager
	GetLedgerByWager(ctx context.Context, wagerID int64) ([]*models.LedgerEntry, error)

	// ListResolvableWagers returns accepted, pending wagers accepted within the window
	ListResolvableWagers(ctx context.Context, acceptedAfter, acceptedBefore time.Time, limit int) ([]*models.Wager, error)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	WagerRepository() WagerRepository
	SettlementRecordRepository() SettlementRecordRepository
	LedgerRepository() LedgerRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
