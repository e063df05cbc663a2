package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"chesswager/events"
	"chesswager/models"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultFetchTimeout bounds a single archive request
	DefaultFetchTimeout = 10 * time.Second

	// DefaultRunTimeout bounds one shared resolution run, which outlives any single caller
	DefaultRunTimeout = time.Minute

	// DefaultMaxSettleAttempts is how many settlements may fail for lack of funds before the wager is parked as an anomaly
	DefaultMaxSettleAttempts = 3
)

// ResolutionConfig tunes the reconciliation pipeline
type ResolutionConfig struct {
	Window            time.Duration
	MaxGameDuration   time.Duration
	FetchTimeout      time.Duration
	RunTimeout        time.Duration
	MaxSettleAttempts int
}

// resolutionService implements the ResolutionService interface
type resolutionService struct {
	uowFactory   UnitOfWorkFactory
	archive      GameArchive
	settlement   SettlementService
	normalizer   *RecordNormalizer
	locator      *MatchLocator
	resolver     *OutcomeResolver
	fetchTimeout time.Duration
	runTimeout   time.Duration
	maxAttempts  int
	metrics      MetricsRecorder
	inflight     singleflight.Group
	now          func() time.Time
}

// NewResolutionService creates a new resolution service
func NewResolutionService(uowFactory UnitOfWorkFactory, archive GameArchive, settlement SettlementService, cfg ResolutionConfig, metrics MetricsRecorder) ResolutionService {
	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	runTimeout := cfg.RunTimeout
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}
	maxAttempts := cfg.MaxSettleAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxSettleAttempts
	}
	return &resolutionService{
		uowFactory:   uowFactory,
		archive:      archive,
		settlement:   settlement,
		normalizer:   NewRecordNormalizer(),
		locator:      NewMatchLocator(cfg.Window, cfg.MaxGameDuration),
		resolver:     NewOutcomeResolver(nil),
		fetchTimeout: fetchTimeout,
		runTimeout:   runTimeout,
		maxAttempts:  maxAttempts,
		metrics:      metricsOrNoop(metrics),
		now:          time.Now,
	}
}

// ResolveWager locates the wager's game, resolves the outcome and settles it.
// Concurrent calls for the same wager share one run. The run is detached from
// the caller that started it, so a caller giving up does not fail the others.
func (s *resolutionService) ResolveWager(ctx context.Context, wagerID int64) (*models.ResolutionResult, error) {
	ch := s.inflight.DoChan(strconv.FormatInt(wagerID, 10), func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.runTimeout)
		defer cancel()
		return s.resolve(runCtx, wagerID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			log.WithField("wager_id", wagerID).Debug("Joined in-flight resolution")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.ResolutionResult), nil
	}
}

func (s *resolutionService) resolve(ctx context.Context, wagerID int64) (*models.ResolutionResult, error) {
	logger := log.WithField("wager_id", wagerID)

	wager, err := s.loadWager(ctx, wagerID)
	if err != nil {
		return nil, err
	}

	if wager.Status.IsTerminal() {
		logger.WithField("status", wager.Status).Debug("Wager already resolved")
		return s.finish(ctx, &models.ResolutionResult{WagerID: wagerID, Status: models.ResolutionAlreadyFinal}), nil
	}
	if err := checkResolvable(wager); err != nil {
		return nil, err
	}

	raws, err := s.fetch(ctx, wager)
	if err != nil {
		s.metrics.RecordFetchFailure(ctx)
		logger.WithError(err).Warn("Failed to fetch game archive")
		return nil, err
	}

	records := s.normalizer.NormalizeMany(raws, nil)
	match := s.locator.Locate(records, wager)
	if match == nil {
		logger.WithFields(log.Fields{
			"challenger": wager.ChallengerHandle,
			"opponent":   wager.OpponentHandle,
			"games":      len(records),
		}).Info("No matching game found yet")
		return s.finish(ctx, &models.ResolutionResult{WagerID: wagerID, Status: models.ResolutionNotFound}), nil
	}

	result, err := s.settleMatch(ctx, wagerID, match)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, result), nil
}

// loadWager reads the wager without holding a transaction across the archive fetch.
// A wager about to be fetched is stamped as polled so batch polling rotates past it.
func (s *resolutionService) loadWager(ctx context.Context, wagerID int64) (*models.Wager, error) {
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
	if wager.Status.IsTerminal() || checkResolvable(wager) != nil {
		return wager, nil
	}

	if err := uow.WagerRepository().MarkPolled(ctx, wagerID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to mark wager polled: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return wager, nil
}

func checkResolvable(wager *models.Wager) error {
	if wager.RequestState != models.RequestStateAccepted {
		return fmt.Errorf("%w: wager %d request is %s", ErrPreconditionFailed, wager.ID, wager.RequestState)
	}
	if !wager.HasOpponent() {
		return fmt.Errorf("%w: wager %d has no counterparty yet", ErrPreconditionFailed, wager.ID)
	}
	if wager.AcceptedAt == nil {
		return fmt.Errorf("%w: wager %d has no acceptance time", ErrPreconditionFailed, wager.ID)
	}
	return nil
}

// fetch reads every archive month the matching window touches, skipping months that have not begun
func (s *resolutionService) fetch(ctx context.Context, wager *models.Wager) ([]models.RawGameRecord, error) {
	now := s.now().UTC()
	var raws []models.RawGameRecord
	for _, month := range s.locator.WindowMonths(wager) {
		if month.Start().After(now) {
			continue
		}
		games, err := s.fetchMonth(ctx, wager.ChallengerHandle, month)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %d-%02d: %w", ErrTransientFetch, wager.ChallengerHandle, month.Year, int(month.Month), err)
		}
		raws = append(raws, games...)
	}
	return raws, nil
}

func (s *resolutionService) fetchMonth(ctx context.Context, handle string, month ArchiveMonth) ([]models.RawGameRecord, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	return s.archive.FetchMonthlyGames(fetchCtx, handle, month.Year, month.Month)
}

// settleMatch claims the game link and settles the wager in one transaction
func (s *resolutionService) settleMatch(ctx context.Context, wagerID int64, match *models.MatchRecord) (*models.ResolutionResult, error) {
	logger := log.WithFields(log.Fields{
		"wager_id": wagerID,
		"link":     match.LinkValue(),
	})

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wager, err := uow.WagerRepository().GetByIDForUpdate(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wager: %w", err)
	}
	if wager == nil {
		return nil, fmt.Errorf("wager %d: %w", wagerID, ErrWagerNotFound)
	}
	// Another resolver may have finished while the archive was being read
	if wager.Status.IsTerminal() {
		return &models.ResolutionResult{WagerID: wagerID, Status: models.ResolutionAlreadyFinal}, nil
	}

	result := &models.ResolutionResult{WagerID: wagerID, Match: match}

	if match.Link == nil {
		logger.Error("Located game has no link; cannot guard against reuse")
		if err := s.markAnomaly(ctx, uow, wager, events.AnomalyReasonMissingLink, ""); err != nil {
			return nil, err
		}
		result.Status = models.ResolutionAnomaly
		return s.commit(uow, result)
	}

	inserted, err := uow.SettlementRecordRepository().Insert(ctx, models.NewSettlementRecord(match))
	if err != nil {
		return nil, fmt.Errorf("failed to store settlement record: %w", err)
	}
	if !inserted {
		logger.Error("Disputed match: game link already settled another wager")
		if err := s.markAnomaly(ctx, uow, wager, events.AnomalyReasonDisputed, *match.Link); err != nil {
			return nil, err
		}
		result.Status = models.ResolutionDisputed
		return s.commit(uow, result)
	}

	outcome := s.resolver.Resolve(match, wager)
	if outcome == models.OutcomeAnomaly {
		logger.WithFields(log.Fields{
			"white_result": match.FirstPlayerResult,
			"black_result": match.SecondPlayerResult,
		}).Error("Could not determine wager outcome")
		if err := s.markAnomaly(ctx, uow, wager, events.AnomalyReasonUnresolvable, *match.Link); err != nil {
			return nil, err
		}
		result.Status = models.ResolutionAnomaly
		return s.commit(uow, result)
	}

	receipt, err := s.settlement.Settle(ctx, uow, wagerID, outcome)
	if errors.Is(err, ErrInsufficientBalance) {
		// Release the half-applied settlement before recording the failure
		uow.Rollback()
		return s.recordSettleFailure(ctx, wagerID, match, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to settle wager: %w", err)
	}

	result.Status = models.ResolutionSettled
	result.Receipt = receipt
	if _, err := s.commit(uow, result); err != nil {
		return nil, err
	}

	s.metrics.RecordSettlement(ctx, receipt.Outcome, settledStake(receipt))
	return result, nil
}

// recordSettleFailure counts a settlement the loser could not fund. Once the
// attempts run out the game is claimed and the wager is parked as an anomaly;
// before that the error is returned and the wager stays pending.
func (s *resolutionService) recordSettleFailure(ctx context.Context, wagerID int64, match *models.MatchRecord, settleErr error) (*models.ResolutionResult, error) {
	logger := log.WithFields(log.Fields{
		"wager_id": wagerID,
		"link":     match.LinkValue(),
	})

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wager, err := uow.WagerRepository().GetByIDForUpdate(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wager: %w", err)
	}
	if wager == nil {
		return nil, fmt.Errorf("wager %d: %w", wagerID, ErrWagerNotFound)
	}
	if wager.Status.IsTerminal() {
		return &models.ResolutionResult{WagerID: wagerID, Status: models.ResolutionAlreadyFinal}, nil
	}

	failures, err := uow.WagerRepository().RecordSettleFailure(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to record settlement failure: %w", err)
	}

	logger = logger.WithFields(log.Fields{
		"failures":     failures,
		"max_attempts": s.maxAttempts,
	})

	if failures < s.maxAttempts {
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		logger.WithError(settleErr).Warn("Loser cannot cover stake; will retry")
		return nil, fmt.Errorf("failed to settle wager: %w", settleErr)
	}

	result := &models.ResolutionResult{WagerID: wagerID, Match: match, Status: models.ResolutionAnomaly}
	reason := events.AnomalyReasonInsufficientFunds

	inserted, err := uow.SettlementRecordRepository().Insert(ctx, models.NewSettlementRecord(match))
	if err != nil {
		return nil, fmt.Errorf("failed to store settlement record: %w", err)
	}
	if !inserted {
		reason = events.AnomalyReasonDisputed
		result.Status = models.ResolutionDisputed
	}

	logger.WithField("reason", reason).Error("Giving up on settlement")
	if err := s.markAnomaly(ctx, uow, wager, reason, match.LinkValue()); err != nil {
		return nil, err
	}
	return s.commit(uow, result)
}

func (s *resolutionService) markAnomaly(ctx context.Context, uow UnitOfWork, wager *models.Wager, reason events.AnomalyReason, link string) error {
	ok, err := uow.WagerRepository().TransitionStatus(ctx, wager.ID, models.WagerStatusPending, models.WagerStatusAnomaly, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark wager anomaly: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: wager %d is no longer pending", ErrPreconditionFailed, wager.ID)
	}

	uow.EventBus().Publish(events.WagerAnomalyEvent{
		WagerID: wager.ID,
		Reason:  reason,
		Link:    link,
	})
	return nil
}

func (s *resolutionService) commit(uow UnitOfWork, result *models.ResolutionResult) (*models.ResolutionResult, error) {
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

func (s *resolutionService) finish(ctx context.Context, result *models.ResolutionResult) *models.ResolutionResult {
	s.metrics.RecordResolution(ctx, result.Status)
	return result
}

// IsRetryable reports whether a resolution error is worth retrying later
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientFetch) || errors.Is(err, ErrInsufficientBalance)
}
