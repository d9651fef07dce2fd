package cmd

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/proximodev/releasepass/internal/blob"
	"github.com/proximodev/releasepass/internal/catalog"
	"github.com/proximodev/releasepass/internal/config"
	"github.com/proximodev/releasepass/internal/fetch"
	"github.com/proximodev/releasepass/internal/limiter"
	"github.com/proximodev/releasepass/internal/logging"
	"github.com/proximodev/releasepass/internal/notify"
	"github.com/proximodev/releasepass/internal/processor"
	"github.com/proximodev/releasepass/internal/providers"
	"github.com/proximodev/releasepass/internal/qa"
	"github.com/proximodev/releasepass/internal/rules"
	"github.com/proximodev/releasepass/internal/scoring"
	"github.com/proximodev/releasepass/internal/store"
)

// app bundles the services every subcommand needs. Built once per
// invocation and torn down by Close.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  *store.Store

	closers []func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	st, err := store.New(ctx, cfg.DB, logger)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		return nil, fmt.Errorf("connect database: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, store: st}
	a.closers = append(a.closers, st.Close, func() { _ = logger.Sync() })
	return a, nil
}

// Close tears services down in reverse construction order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildProcessor wires the full check pipeline: fetcher, rule engine,
// provider adapters, blob store, notifier, and scorer.
func (a *app) buildProcessor(ctx context.Context) (*processor.Processor, error) {
	cfg := a.cfg
	policy := qa.NewExponentialRetryPolicy(
		cfg.HTTP.MaxRetries,
		cfg.BackoffInitial(),
		cfg.BackoffMax(),
	)

	cat, err := catalog.Load(ctx, a.store)
	if err != nil {
		return nil, fmt.Errorf("load rule catalog: %w", err)
	}
	a.logger.Info("Loaded rule catalog", zap.Int("rules", cat.Len()))

	hosts := limiter.NewHostLimiter(limiter.HostConfig{
		DefaultRPS:   cfg.HTTP.PerHostRPS,
		DefaultBurst: cfg.HTTP.PerHostBurst,
	})
	fetcher := fetch.NewRetrying(
		fetch.New(fetch.Config{UserAgent: cfg.HTTP.UserAgent, Timeout: cfg.HTTPTimeout()}),
		policy,
		hosts,
	)

	blobs, err := a.buildBlobStore(ctx)
	if err != nil {
		return nil, err
	}

	notifier, err := a.buildNotifier(ctx)
	if err != nil {
		return nil, err
	}

	var links *providers.LinkCheck
	if cfg.Providers.LinkCheck.Endpoint != "" {
		links = providers.NewLinkCheck(
			cfg.Providers.LinkCheck.Endpoint,
			cfg.Providers.LinkCheck.APIKey,
			cfg.HTTPTimeout(), policy, cat, a.logger,
		)
	}

	engine := rules.NewEngine(cat, fetcher, a.logger)
	timeout := cfg.HTTPTimeout()

	provs := map[qa.RunType]providers.Provider{
		qa.RunTypePreflight: providers.NewPreflight(fetcher, engine, links, a.logger),
		qa.RunTypePerformance: providers.NewPerformance(
			cfg.Providers.Performance.Endpoint, cfg.Providers.Performance.APIKey,
			timeout, policy, cat, a.logger,
		),
		qa.RunTypeSpelling: providers.NewSpelling(
			cfg.Providers.Spelling.Endpoint, cfg.Providers.Spelling.APIKey, "",
			timeout, policy, cat, a.logger,
		),
		qa.RunTypeSiteAudit: providers.NewSiteAudit(
			cfg.Providers.SiteAudit.Endpoint, cfg.Providers.SiteAudit.APIKey,
			timeout, policy, cat, a.logger,
		),
		qa.RunTypeScreenshots: providers.NewScreenshots(
			cfg.Providers.Screenshots.Endpoint, cfg.Providers.Screenshots.APIKey,
			timeout, policy, blobs, cat, a.logger,
		),
	}

	scorer := scoring.NewScorer(
		scoring.PenaltiesFromConfig(cfg.Scoring.Penalties),
		cfg.Scoring.PassThreshold,
	)

	return processor.New(provs, a.store, a.store, a.store, scorer, cfg.Checks, notifier, a.logger), nil
}

func (a *app) buildBlobStore(ctx context.Context) (qa.BlobStore, error) {
	if a.cfg.Storage.Provider != "gcs" {
		a.logger.Warn("Using in-memory blob store; screenshot artifacts will not persist")
		return blob.NewMemory(), nil
	}
	client, err := gcstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("init gcs client: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	return blob.NewGCS(client, a.cfg.Storage.GCSBucket, a.cfg.Storage.Prefix), nil
}

func (a *app) buildNotifier(ctx context.Context) (qa.Notifier, error) {
	if a.cfg.PubSub.ProjectID == "" || a.cfg.PubSub.TopicName == "" {
		return nil, nil
	}
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("init pubsub client: %w", err)
	}
	topic := client.Topic(a.cfg.PubSub.TopicName)
	a.closers = append(a.closers, func() {
		topic.Stop()
		_ = client.Close()
	})
	return notify.NewPubSub(topic, a.logger), nil
}
