package cmd

import (
	"context"
	"fmt"

	"chesswager/archive"
	"chesswager/bot"
	"chesswager/config"
	"chesswager/database"
	"chesswager/events"
	"chesswager/messaging"
	"chesswager/models"
	"chesswager/notify"
	"chesswager/observability"
	"chesswager/repository"
	"chesswager/service"

	log "github.com/sirupsen/logrus"
)

// app holds every wired component of a running process
type app struct {
	db         *database.DB
	eventBus   *events.Bus
	uowFactory service.UnitOfWorkFactory
	metrics    *observability.MetricsProvider
	resolution service.ResolutionService
	settlement service.SettlementService
	audit      service.AuditService
	health     healthChecks
	closers    []func() error
}

// newApp connects to every configured dependency and wires the services
func newApp(ctx context.Context, c *config.Config) (*app, error) {
	a := &app{}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, databaseURL(c))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	a.health = append(a.health, db)
	a.closers = append(a.closers, func() error { db.Close(); return nil })

	a.eventBus = events.NewBus()
	a.uowFactory = repository.NewUnitOfWorkFactory(db, a.eventBus)

	a.metrics = observability.NewMetricsProvider(c.Metrics, c.Environment)
	if err := a.metrics.Initialize(ctx); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	source, err := archive.NewSource(c.Archive)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to create game archive: %w", err)
	}

	a.settlement = service.NewSettlementEngine(a.uowFactory, c.Settlement.Currency, a.metrics)
	a.resolution = service.NewResolutionService(a.uowFactory, source, a.settlement, service.ResolutionConfig{
		Window:            c.Settlement.Window,
		MaxGameDuration:   c.Settlement.MaxGameDuration,
		FetchTimeout:      c.Archive.Timeout,
		RunTimeout:        c.Settlement.RunTimeout,
		MaxSettleAttempts: c.Settlement.MaxAttempts,
	}, a.metrics)
	a.audit = service.NewAuditService(a.uowFactory)

	if err := a.wireNotifications(c); err != nil {
		a.close(ctx)
		return nil, err
	}
	if err := a.wireMessaging(ctx, c); err != nil {
		a.close(ctx)
		return nil, err
	}

	log.WithFields(log.Fields{
		"archive_mode": c.Archive.Mode,
		"window":       c.Settlement.Window,
		"currency":     c.Settlement.Currency,
	}).Info("Services initialized")
	return a, nil
}

func (a *app) wireNotifications(c *config.Config) error {
	var notifier notify.Notifier = notify.NewLogNotifier()
	if c.Discord.Enabled {
		discord, err := bot.New(bot.Config{Token: c.Discord.Token})
		if err != nil {
			return fmt.Errorf("failed to initialize Discord notifier: %w", err)
		}
		a.closers = append(a.closers, discord.Close)
		notifier = discord
	}

	notify.NewDispatcher(userLookup{a.uowFactory}, notifier).Register(a.eventBus)
	return nil
}

func (a *app) wireMessaging(ctx context.Context, c *config.Config) error {
	if !c.NATS.Enabled {
		return nil
	}

	client := messaging.NewNATSClient(c.NATS.URL)
	if err := client.Connect(ctx); err != nil {
		return err
	}
	a.closers = append(a.closers, client.Close)
	a.health = append(a.health, client)

	if err := client.EnsureStream(c.NATS.Stream, messaging.Subjects()); err != nil {
		return err
	}
	messaging.NewEventPublisher(client).Register(a.eventBus)
	return nil
}

// close waits for in-flight event handlers, then releases resources in reverse order
func (a *app) close(ctx context.Context) {
	if a.eventBus != nil {
		a.eventBus.Wait()
	}
	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Error shutting down metrics")
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.WithError(err).Warn("Error during shutdown")
		}
	}
}

// databaseURL applies DATABASE_NAME to the base URL when set
func databaseURL(c *config.Config) string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// userLookup reads notification recipients in a short read-only unit of work
type userLookup struct {
	factory service.UnitOfWorkFactory
}

func (l userLookup) GetByID(ctx context.Context, id int64) (*models.User, error) {
	uow := l.factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.UserRepository().GetByID(ctx, id)
}
