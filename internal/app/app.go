package app

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Thiagobarros01/hotel-reservation/config"
	"github.com/Thiagobarros01/hotel-reservation/internal/cache"
	"github.com/Thiagobarros01/hotel-reservation/internal/client"
	"github.com/Thiagobarros01/hotel-reservation/internal/gateway"
	"github.com/Thiagobarros01/hotel-reservation/internal/mail"
	"github.com/Thiagobarros01/hotel-reservation/internal/model"
	"github.com/Thiagobarros01/hotel-reservation/internal/mq"
	"github.com/Thiagobarros01/hotel-reservation/internal/repository"
	"github.com/Thiagobarros01/hotel-reservation/internal/service/domain"
	"github.com/Thiagobarros01/hotel-reservation/internal/service/workflow"
)

// Roles a process can take, selected with SERVICE.
const (
	RoleHotel        = "hotel"
	RoleReservation  = "reservation"
	RolePayment      = "payment"
	RoleNotification = "notification"
)

// App holds the components of the roles this process serves. Components of
// other roles stay nil.
type App struct {
	Config *config.Config

	DB        *gorm.DB
	Cache     *cache.RedisCache
	Logger    *zap.Logger
	MQClient  *mq.Client
	Publisher *mq.Publisher

	HotelService        domain.HotelService
	AddressService      domain.AddressService
	ReservationService  domain.ReservationService
	PaymentService      domain.PaymentService
	NotificationService domain.NotificationService

	ReservationWorkflow  *workflow.ReservationWorkflow
	PaymentWorkflow      *workflow.PaymentWorkflow
	NotificationWorkflow *workflow.NotificationWorkflow
	OutboxRelay          *workflow.OutboxRelay
}

// New wires the app. db may be nil when only the notification role runs,
// redisCache may be nil when no role needs it.
func New(cfg *config.Config, db *gorm.DB, redisCache *cache.RedisCache, mqClient *mq.Client, logger *zap.Logger) (*App, error) {
	app := &App{
		Config:   cfg,
		DB:       db,
		Cache:    redisCache,
		Logger:   logger,
		MQClient: mqClient,
	}

	needsDB := cfg.Runs(RoleHotel) || cfg.Runs(RoleReservation) || cfg.Runs(RolePayment)
	if needsDB && db == nil {
		return nil, errors.New("a database is required for the hotel, reservation and payment roles")
	}
	if cfg.Runs(RoleNotification) && redisCache == nil {
		return nil, errors.New("redis is required for the notification role")
	}

	consumerCfg := mq.ConsumerConfig{
		Prefetch:   cfg.MQPrefetch,
		MaxRetries: cfg.MQMaxRetries,
	}

	if cfg.Runs(RoleHotel) {
		app.HotelService = domain.NewHotelService(repository.NewHotelRepoGorm(db))

		viacep := client.NewViaCEPClient(cfg.ViaCEPURL, cfg.HotelLookupTimeout)
		// a nil *RedisCache would be a non-nil AddressCache
		if redisCache != nil {
			app.AddressService = domain.NewAddressService(viacep, redisCache, logger)
		} else {
			app.AddressService = domain.NewAddressService(viacep, nil, logger)
		}
	}

	if cfg.Runs(RoleReservation) {
		outboxRepo := repository.NewOutboxRepoGorm(db)
		app.ReservationService = domain.NewReservationService(db, repository.NewReservationRepoGorm(db), outboxRepo)
		app.Publisher = mq.NewPublisher(mqClient, logger)

		hotels := client.NewHotelClient(cfg.HotelServiceURL, cfg.HotelLookupTimeout, logger)
		app.ReservationWorkflow = workflow.NewReservationWorkflow(app.ReservationService, hotels, app.Publisher, cfg.OutboxEnabled, logger)
		if cfg.OutboxEnabled {
			app.OutboxRelay = workflow.NewOutboxRelay(outboxRepo, app.Publisher, cfg.OutboxPollInterval, logger)
		}
	}

	if cfg.Runs(RolePayment) {
		decider, err := gateway.New(cfg)
		if err != nil {
			return nil, err
		}
		app.PaymentService = domain.NewPaymentService(repository.NewPaymentRepoGorm(db), decider, logger)
		app.PaymentWorkflow = workflow.NewPaymentWorkflow(app.PaymentService, mqClient, consumerCfg, logger)
	}

	if cfg.Runs(RoleNotification) {
		mailer, err := mail.New(cfg.Mail, logger)
		if err != nil {
			return nil, err
		}
		app.NotificationService = domain.NewNotificationService(mailer, redisCache, cfg.NotificationDedupTTL, logger)
		app.NotificationWorkflow = workflow.NewNotificationWorkflow(app.NotificationService, mqClient, consumerCfg, logger)
	}

	return app, nil
}

// Models lists the tables the served roles own.
func (app *App) Models() []any {
	var models []any
	if app.Config.Runs(RoleHotel) {
		models = append(models, &model.Hotel{})
	}
	if app.Config.Runs(RoleReservation) {
		models = append(models, &model.Reservation{}, &model.OutboxEvent{})
	}
	if app.Config.Runs(RolePayment) {
		models = append(models, &model.Payment{})
	}
	return models
}

// Start runs the consumers and the outbox relay until ctx is cancelled. A
// cancelled ctx is a clean stop and returns nil.
func (app *App) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if app.Publisher != nil {
		g.Go(func() error {
			return app.declareSagaQueues(ctx)
		})
	}
	if app.PaymentWorkflow != nil {
		g.Go(func() error { return app.PaymentWorkflow.Run(ctx) })
	}
	if app.NotificationWorkflow != nil {
		g.Go(func() error { return app.NotificationWorkflow.Run(ctx) })
	}
	if app.OutboxRelay != nil {
		g.Go(func() error { return app.OutboxRelay.Run(ctx) })
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// declareSagaQueues makes sure both work queues exist before the first
// reservation is published, so no event is dropped by the default exchange.
func (app *App) declareSagaQueues(ctx context.Context) error {
	conn, err := app.MQClient.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := mq.InitQueues(conn, mq.SagaQueues...); err != nil {
		app.Logger.Warn("failed to declare saga queues, the publisher declares them on first use", zap.Error(err))
		return nil
	}
	app.Logger.Info("saga queues declared", zap.Strings("queues", mq.SagaQueues))
	return nil
}

// ConsumerStates reports the connection state of each running consumer.
func (app *App) ConsumerStates() map[string]string {
	states := make(map[string]string)
	if app.PaymentWorkflow != nil {
		states[mq.PaymentsQueue] = app.PaymentWorkflow.State().String()
	}
	if app.NotificationWorkflow != nil {
		states[mq.NotificationsQueue] = app.NotificationWorkflow.State().String()
	}
	return states
}

func (app *App) Close() error {
	var errs []error
	if app.Publisher != nil {
		errs = append(errs, app.Publisher.Close())
	}
	if app.Cache != nil {
		errs = append(errs, app.Cache.Close())
	}
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
