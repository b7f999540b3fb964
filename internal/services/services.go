// Package services holds the report verification engine and the read-side
// aggregations built on top of a store.Store.
package services

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"suarawarga/internal/config"
	"suarawarga/internal/logger"
	"suarawarga/internal/store"
	"suarawarga/internal/utils"
)

type Options struct {
	LockTimeout   time.Duration
	MaxRetries    int
	CacheSize     int
	CacheTTL      time.Duration
	MaxImageBytes int
	// Now 默认 time.Now，测试中可注入固定时钟
	Now func() time.Time
}

// OptionsFromConfig maps the engine section of the config.
func OptionsFromConfig(cfg config.EngineConfig) Options {
	return Options{
		LockTimeout:   cfg.LockTimeout,
		MaxRetries:    cfg.MaxRetries,
		CacheSize:     cfg.CacheSize,
		CacheTTL:      cfg.CacheTTL,
		MaxImageBytes: cfg.MaxImageBytes,
	}
}

// Services 汇总所有服务，由 main 创建后注入 handlers
type Services struct {
	Reports     *ReportRepository
	Activities  *ActivityRecorder
	Engine      *Engine
	Aggregation *AggregationService
}

// New wires the services around st. registry may be nil to skip metrics.
func New(st store.Store, opts Options, log *logger.Logger, registry prometheus.Registerer) (*Services, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 2 * time.Second
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 3
	}

	cache, err := utils.NewCache(opts.CacheSize, opts.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("create aggregation cache: %w", err)
	}

	metrics := NewMetrics(registry)
	reports := NewReportRepository(st, opts.Now, opts.MaxImageBytes, log)
	activities := NewActivityRecorder(st, opts.Now, log)
	aggregation := &AggregationService{
		reports:    reports,
		activities: activities,
		cache:      cache,
		metrics:    metrics,
		log:        log.WithComponent("aggregation"),
	}
	engine := &Engine{
		reports:     reports,
		activities:  activities,
		aggregation: aggregation,
		locker:      NewKeyedLocker(opts.LockTimeout),
		maxRetries:  opts.MaxRetries,
		metrics:     metrics,
		log:         log.WithComponent("engine"),
	}

	return &Services{
		Reports:     reports,
		Activities:  activities,
		Engine:      engine,
		Aggregation: aggregation,
	}, nil
}
