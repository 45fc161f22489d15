package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Victor-armando18/service-clearance/internal/config"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure/completion"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure/jsonlogic"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure/kafka"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure/objectstore"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure/payment"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure/rabbitmq"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure/rulewatch"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure/store"
	"github.com/Victor-armando18/service-clearance/internal/interfaces"
	"github.com/Victor-armando18/service-clearance/internal/usecase"
	"github.com/Victor-armando18/service-clearance/pkg/shipping"
	"github.com/Victor-armando18/service-clearance/pkg/tariff"
)

type app struct {
	service   *usecase.ClearanceService
	advisor   *usecase.Advisor
	analytics *usecase.Analytics
	watcher   *rulewatch.Watcher
	closers   []func() error
}

func (a *app) Close(logger *zap.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}
}

// build wires every adapter the configuration enables. Optional adapters left
// unconfigured stay nil and the matching side effect is skipped.
func build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}
	loader := infrastructure.NewFileRuleLoader(cfg.Rules.Dir)

	rules, err := loader.LoadRuleTable(ctx, cfg.Rules.Table)
	if err != nil {
		return nil, err
	}
	logger.Info("duty rules loaded", zap.String("table", cfg.Rules.Table), zap.Int("rules", rules.Len()))
	if rules.Len() == 0 {
		logger.Warn("duty rule table is empty: every tariff quote will be (0,0)", zap.String("table", cfg.Rules.Table))
	}

	// Falha cedo se o pacote de guardas não existir.
	if _, err := loader.Load(ctx, cfg.Rules.GuardsVersion); err != nil {
		return nil, err
	}

	var shipments interfaces.ShipmentStore
	switch cfg.Store.Driver {
	case "postgres":
		pg, err := store.NewPostgresStore(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		if err := pg.Migrate(ctx); err != nil {
			a.Close(logger)
			return nil, err
		}
		shipments = pg
	default:
		shipments = store.NewMemoryStore()
	}

	var events interfaces.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		p := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		a.closers = append(a.closers, p.Close)
		events = p
	}

	var mailer interfaces.Mailer
	if cfg.RabbitMQ.URL != "" {
		m, err := rabbitmq.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			a.Close(logger)
			return nil, fmt.Errorf("mail queue: %w", err)
		}
		a.closers = append(a.closers, m.Close)
		mailer = m
	}

	var payments interfaces.PaymentGateway
	switch {
	case cfg.Payment.KeyID != "":
		payments = payment.NewRazorpay(cfg.Payment.BaseURL, cfg.Payment.KeyID, cfg.Payment.KeySecret, nil)
	case cfg.Payment.AllowUnsigned:
		logger.Warn("payment.allow_unsigned is set: payment events skip signature checks")
	default:
		logger.Warn("no payment gateway configured: payment events will be refused")
	}

	var completer interfaces.Completer
	switch {
	case cfg.Completion.APIKey == "":
	case cfg.Completion.Provider == "genai":
		g, err := completion.NewGenAI(ctx, cfg.Completion.APIKey, cfg.Completion.Model, "")
		if err != nil {
			a.Close(logger)
			return nil, err
		}
		completer = g
	default:
		completer = completion.NewClient(cfg.Completion.BaseURL, cfg.Completion.APIKey, cfg.Completion.Model)
	}

	calc := tariff.NewCalculator(rules)
	if cfg.Rules.Watch {
		w, err := rulewatch.New(loader, cfg.Rules.Dir, cfg.Rules.Table, calc, logger)
		if err != nil {
			a.Close(logger)
			return nil, fmt.Errorf("rule watcher: %w", err)
		}
		a.closers = append(a.closers, w.Close)
		a.watcher = w
	}

	a.service = usecase.NewClearanceService(usecase.ServiceConfig{
		Store:         shipments,
		Guards:        loader,
		GuardsVersion: cfg.Rules.GuardsVersion,
		GuardExecutor: jsonlogic.NewGuardExecutor(),
		Tariff:        calc,
		Shipping:      shipping.NewCalculator(),
		Documents:     objectstore.NewMemory(),
		Payments:      payments,
		Mailer:        mailer,
		Events:        events,
		Currency:      cfg.Payment.Currency,
		Logger:        logger,

		SideEffectTimeout:     cfg.Retry.AttemptTimeout,
		AllowUnsignedPayments: cfg.Payment.AllowUnsigned,
	})
	a.advisor = usecase.NewAdvisor(completer, cfg.Retry.Policy(), logger)
	a.analytics = usecase.NewAnalytics(shipments, completer, cfg.Retry.Policy(), logger)

	logger.Info("adapters wired",
		zap.String("store", cfg.Store.Driver),
		zap.Bool("kafka", events != nil),
		zap.Bool("mail_queue", mailer != nil),
		zap.Bool("payments", payments != nil),
		zap.Bool("completion", completer != nil),
		zap.Bool("rules_watch", a.watcher != nil),
	)
	return a, nil
}
