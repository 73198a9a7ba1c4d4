package di

import (
	"context"
	"fmt"
	"time"

	"NewsScreener/internal/domain/models"
	drepo "NewsScreener/internal/domain/repository"
	"NewsScreener/internal/handler/api"
	internalrepo "NewsScreener/internal/repository"
	icache "NewsScreener/internal/service/cache"
	"NewsScreener/internal/service/fyers"
	"NewsScreener/internal/service/newsapi"
	"NewsScreener/internal/service/quota"
	"NewsScreener/internal/services/screener"
	"NewsScreener/internal/usecase"
	"NewsScreener/pkg/cache"
	pkgch "NewsScreener/pkg/clickhouse"
	"NewsScreener/pkg/config"
	xhttp "NewsScreener/pkg/http"
	pkgkafka "NewsScreener/pkg/kafka"
	applogger "NewsScreener/pkg/logger"
	"NewsScreener/pkg/metrics"
	"NewsScreener/pkg/server"
)

// ProvideLogger creates the application logger. When Kafka is enabled the
// log collector flushes aggregated log batches to the log topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      &kafkaLogPublisher{producer: producer},
		})
	}
	return l, nil
}

// kafkaLogPublisher adapts the Kafka producer to the log collector sink.
type kafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func (p *kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// ProvideCacheService builds the shared cache: layered memory+Redis when
// Redis is enabled, memory-only otherwise.
func ProvideCacheService(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideQuotaTracker creates the daily news quota tracker.
func ProvideQuotaTracker(c cache.Service, cfg *config.Config, l *applogger.Logger) *quota.Tracker {
	return quota.New(c, cfg.News.DailyQuota, quota.WithLogger(l))
}

// ProvideMarketData creates the Fyers market data provider.
func ProvideMarketData(cfg *config.Config, l *applogger.Logger) drepo.MarketDataProvider {
	return fyers.New(
		cfg.Fyers.BaseURL,
		cfg.Fyers.ClientID,
		cfg.Fyers.AccessToken,
		cfg.Fyers.Timeout,
		fyers.WithLogger(l),
	)
}

// ProvideNewsProvider creates the NewsAPI provider with response caching and
// quota enforcement.
func ProvideNewsProvider(cfg *config.Config, c cache.Service, q *quota.Tracker, l *applogger.Logger) drepo.NewsProvider {
	return newsapi.New(
		cfg.News.BaseURL,
		cfg.News.APIKey,
		cfg.News.Timeout,
		newsapi.WithCache(c, cfg.News.CacheTTL),
		newsapi.WithQuota(q),
		newsapi.WithLogger(l),
	)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideScanStore creates the ClickHouse-backed scan store and ensures its
// schema. Returns nil when ClickHouse is disabled.
func ProvideScanStore(chClient *pkgch.Client, cfg *config.Config) (drepo.ScanStore, error) {
	if chClient == nil {
		return nil, nil
	}
	store := internalrepo.NewClickHouseScanStore(chClient.DB(), cfg.ClickHouse.Database+".scan_signals")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("scan store schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSignalPublisher creates the Kafka signal publisher, or nil when
// Kafka is disabled.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) drepo.SignalPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic)
}

// ProvideScanOrchestrator wires the screening pipeline.
func ProvideScanOrchestrator(
	cfg *config.Config,
	market drepo.MarketDataProvider,
	news drepo.NewsProvider,
	publisher drepo.SignalPublisher,
	store drepo.ScanStore,
	m drepo.Metrics,
	q *quota.Tracker,
	l *applogger.Logger,
) *usecase.ScanOrchestrator {
	opts := []usecase.Option{
		usecase.WithMetrics(m),
		usecase.WithQuotaReporter(q),
		usecase.WithLogger(l),
	}
	if publisher != nil {
		opts = append(opts, usecase.WithPublisher(publisher))
	}
	if store != nil {
		opts = append(opts, usecase.WithStore(store))
	}
	return usecase.NewScanOrchestrator(
		usecase.Config{
			Universe:           cfg.Screener.Symbols,
			LookbackDays:       cfg.Screener.LookbackDays,
			MaxNewsItems:       cfg.News.MaxItems,
			Concurrency:        cfg.Screener.Concurrency,
			RequestTimeout:     cfg.Screener.RequestTimeout,
			MaxFailureFraction: cfg.Screener.MaxFailureFraction,
			Thresholds: models.Thresholds{
				VolumeSurgeThreshold: cfg.Screener.VolumeSurgeThreshold,
				PriceChangeMin:       cfg.Screener.PriceChangeMin,
				PriceChangeMax:       cfg.Screener.PriceChangeMax,
				MinPrice:             cfg.Screener.MinPrice,
				MaxPrice:             cfg.Screener.MaxPrice,
				MinHoldDays:          cfg.Screener.MinHoldDays,
				MaxHoldDays:          cfg.Screener.MaxHoldDays,
			},
		},
		market, news,
		screener.NewAnomalyDetector(),
		screener.NewSentimentClassifier(),
		screener.NewSignalResolver(),
		screener.NewStrategySelector(),
		opts...,
	)
}

// ProvideScanScheduler creates the market-hours scheduler.
func ProvideScanScheduler(cfg *config.Config, orch *usecase.ScanOrchestrator, l *applogger.Logger) (*usecase.ScanScheduler, error) {
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule timezone: %w", err)
	}
	hours, err := usecase.NewMarketHours(cfg.Schedule.MarketOpen, cfg.Schedule.MarketClose, loc)
	if err != nil {
		return nil, fmt.Errorf("market hours: %w", err)
	}
	return usecase.NewScanScheduler(orch, hours, cfg.Schedule.Interval,
		usecase.SchedulerWithLogger(l),
	), nil
}

// ProvideHTTPHandler creates the screener HTTP handler. Analyze responses
// are cached in Redis when available so replicas share them.
func ProvideHTTPHandler(cfg *config.Config, l *applogger.Logger, orch *usecase.ScanOrchestrator, store drepo.ScanStore) xhttp.Handler {
	h := api.NewScreenerHandler(l, orch)
	if store != nil {
		h.SetStore(store)
	}
	if cfg.Redis.Enabled {
		h.SetCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	} else {
		h.SetCache(icache.NewTTLCache())
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	orch *usecase.ScanOrchestrator,
	scheduler *usecase.ScanScheduler,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *server.App {
	return server.New(cfg, l, orch, scheduler, handler, chClient, producer)
}
