// Package monitor polls the database, redis and the mail outbox.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Probe returns nil when the dependency answers.
type Probe func(ctx context.Context) error

// SizeProbe reports the outbox backlog.
type SizeProbe func() (int, error)

type Probes struct {
	Database Probe
	Redis    Probe
	Outbox   SizeProbe
}

var errNotConfigured = errors.New("not configured")

func PostgresProbe(pool *pgxpool.Pool) Probe {
	return func(ctx context.Context) error {
		if pool == nil {
			return errNotConfigured
		}
		return pool.Ping(ctx)
	}
}

func SQLProbe(db *sqlx.DB) Probe {
	return func(ctx context.Context) error {
		if db == nil {
			return errNotConfigured
		}
		return db.PingContext(ctx)
	}
}

func RedisProbe(client *redislib.Client) Probe {
	return func(ctx context.Context) error {
		if client == nil {
			return errNotConfigured
		}
		return client.Ping(ctx).Err()
	}
}

type Monitor struct {
	probes Probes

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
	now      func() time.Time
}

func New(probes Probes, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		probes:   probes,
		interval: interval,
		timeout:  3 * time.Second,
		stopCh:   make(chan struct{}),
		logger:   logger,
		now:      time.Now,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	return m.GetStatus().Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Check probes every dependency now and stores the result.
func (m *Monitor) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	outboxOK, outboxSize := m.checkOutbox()
	status := Status{
		Database:   m.ping(ctx, "database", m.probes.Database),
		Redis:      m.ping(ctx, "redis", m.probes.Redis),
		Outbox:     outboxOK,
		OutboxSize: outboxSize,
		LastCheck:  m.now(),
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
	return status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Check(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) ping(ctx context.Context, name string, probe Probe) bool {
	if probe == nil {
		return false
	}
	if err := probe(ctx); err != nil {
		m.logger.Warn("dependency check failed", zap.String("component", name), zap.Error(err))
		return false
	}
	return true
}

func (m *Monitor) checkOutbox() (bool, int) {
	if m.probes.Outbox == nil {
		return false, 0
	}
	size, err := m.probes.Outbox()
	if err != nil {
		m.logger.Warn("outbox size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
