// Package mail delivers account mail and retries failed deliveries from the outbox.
package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskhub/internal/infrastructure/outbox"
)

// ProcessorConfig controls how frequently the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// Processor sends mail immediately and parks failures in the outbox for the cron retry.
type Processor struct {
	store  *outbox.Store
	sender Sender
	logger *zap.Logger
	cron   *cron.Cron
	cfg    ProcessorConfig
}

func NewProcessor(store *outbox.Store, sender Sender, logger *zap.Logger, cfg ProcessorConfig) (*Processor, error) {
	if sender == nil {
		return nil, errors.New("mail sender is required")
	}
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Processor{
		store:  store,
		sender: sender,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := p.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := p.Drain(ctx); err != nil {
			p.logger.Error("outbox drain failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule outbox drain: %w", err)
	}
	return p, nil
}

// Start launches the cron scheduler.
func (p *Processor) Start() {
	if p == nil || p.cron == nil {
		return
	}
	p.cron.Start()
	p.logger.Info("mail processor started", zap.Duration("interval", p.cfg.Interval))
}

// Stop waits for a running drain to finish or ctx to expire.
func (p *Processor) Stop(ctx context.Context) error {
	if p == nil || p.cron == nil {
		return nil
	}
	stopCtx := p.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	p.logger.Info("mail processor stopped")
	return nil
}

// Deliver attempts the send right away and persists the message on failure.
// The returned error is non-nil only when the message could be neither sent nor stored.
func (p *Processor) Deliver(ctx context.Context, to, subject, body string) error {
	msg := outbox.Message{To: to, Subject: subject, Body: body}

	err := p.sender.Send(ctx, msg)
	if err == nil {
		return nil
	}
	if p.store == nil {
		return err
	}

	p.logger.Warn("immediate mail delivery failed, queued for retry", zap.String("to", to), zap.Error(err))
	msg.Attempts = 1
	msg.LastError = err.Error()
	if qErr := p.store.Enqueue(msg); qErr != nil {
		return errors.Join(err, qErr)
	}
	return nil
}

// Drain retries one batch of queued messages.
func (p *Processor) Drain(ctx context.Context) error {
	if p == nil || p.store == nil {
		return nil
	}

	batch, err := p.store.Batch(p.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, msg := range batch {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sendErr := p.sender.Send(ctx, msg)
		if sendErr == nil {
			if err := p.store.Remove(msg); err != nil {
				p.logger.Warn("failed to purge delivered mail", zap.String("message_id", msg.ID), zap.Error(err))
			}
			continue
		}

		msg.Attempts++
		msg.LastError = sendErr.Error()
		if msg.Attempts >= p.cfg.MaxRetries {
			p.logger.Error("dropping mail (max retries reached)",
				zap.String("message_id", msg.ID),
				zap.String("to", msg.To),
				zap.Error(sendErr))
			_ = p.store.Remove(msg)
			continue
		}
		if err := p.store.Requeue(msg); err != nil {
			p.logger.Error("failed to requeue mail", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of queued messages.
func (p *Processor) Size() int {
	if p == nil || p.store == nil {
		return 0
	}
	size, err := p.store.Size()
	if err != nil {
		return 0
	}
	return size
}
