// Package runner executes one posting cycle: read the mode, claim the queue
// entry due for the current hour, publish it and remove it on success.
package runner

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/skyqueue/skyqueue/internal/bluesky"
	"github.com/skyqueue/skyqueue/internal/config"
	"github.com/skyqueue/skyqueue/internal/db"
	"github.com/skyqueue/skyqueue/internal/db/controller/mode"
	"github.com/skyqueue/skyqueue/internal/db/controller/queue"
	"github.com/skyqueue/skyqueue/internal/db/models"
	"github.com/skyqueue/skyqueue/internal/metrics"
	"github.com/skyqueue/skyqueue/internal/uniuri"
)

const runIDLen = 8

// Publisher posts one message to the social network.
type Publisher interface {
	Publish(ctx context.Context, text string) (*bluesky.Receipt, error)
}

// Runner wires the store and the publisher for one posting cycle.
type Runner struct {
	cfg       *config.Config
	db        *gorm.DB
	publisher Publisher

	metrics  *metrics.Metrics
	registry *prometheus.Registry

	now func() time.Time
}

// New creates a Runner from the configuration: opens the store, builds the
// publisher client and registers the run metrics.
func New(cfg *config.Config) (*Runner, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "store open failed")
	}

	publisher, err := bluesky.New(&cfg.Bluesky)
	if err != nil {
		return nil, errors.Wrap(err, "publisher setup failed")
	}

	registry := prometheus.NewRegistry()

	m, err := metrics.New(registry)
	if err != nil {
		return nil, errors.Wrap(err, "metrics setup failed")
	}

	return &Runner{
		cfg:       cfg,
		db:        gdb,
		publisher: publisher,
		metrics:   m,
		registry:  registry,
		now:       time.Now,
	}, nil
}

// Run executes one posting cycle and delivers the run metrics afterwards.
// A cycle with nothing due is a normal no-op and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	started := time.Now()

	result, err := r.run(ctx)

	r.metrics.RecordRun(result, time.Since(started).Seconds())

	// dry runs touch nothing, the gateway included
	if !r.cfg.DryRun {
		// the default registry carries the log statement counters
		gatherers := prometheus.Gatherers{r.registry, prometheus.DefaultGatherer}

		if pushErr := metrics.Push(&r.cfg.Metrics, gatherers); pushErr != nil {
			log.Warn().Err(pushErr).Msg("metrics push failed")
		}
	}

	return err
}

func (r *Runner) run(ctx context.Context) (string, error) {
	now := r.now()

	runLog := log.With().
		Str("run_id", uniuri.NewLen(runIDLen)).
		Str("due_time", queue.DueTime(now)).
		Logger()

	currentMode, err := mode.Current(r.db)
	if err != nil {
		return metrics.ResultError, errors.Wrap(err, "mode read failed")
	}

	runLog.Info().Str("mode", currentMode).Msg("posting mode loaded")

	if currentMode != mode.Normal {
		runLog.Warn().Str("mode", currentMode).Msg("mode has no defined selection behavior, proceeding as normal")
	}

	if r.cfg.DryRun {
		return r.dryRun(ctx, &runLog, now)
	}

	var receipt *bluesky.Receipt

	publish := func(entry *models.QueueEntry) (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = errors.Errorf("publish panicked: %v", rec)
			}
		}()

		receipt, err = r.publisher.Publish(ctx, entry.Message)

		return err
	}

	entry, err := queue.TakeNextDue(r.db.WithContext(ctx), now, publish)

	switch {
	case errors.Is(err, queue.ErrNoEntryDue):
		runLog.Info().Msg("no queue entry due, nothing to do")
		r.recordQueueDepth()

		return metrics.ResultNothingDue, nil
	case err != nil:
		return metrics.ResultError, errors.Wrap(err, "publish failed, queue entry left in place")
	}

	r.metrics.RecordPublished()
	r.recordQueueDepth()

	event := runLog.Info().Int("sort_index", entry.SortIndex)
	if receipt != nil {
		event = event.Str("uri", receipt.URI)
	}
	event.Msg("queue entry published and removed")

	return metrics.ResultPublished, nil
}

// dryRun peeks at the due entry without publishing or deleting anything.
func (r *Runner) dryRun(ctx context.Context, runLog *zerolog.Logger, now time.Time) (string, error) {
	entry, err := queue.NextDue(r.db.WithContext(ctx), now)

	switch {
	case errors.Is(err, queue.ErrNoEntryDue):
		runLog.Info().Msg("no queue entry due, nothing to do")

		return metrics.ResultNothingDue, nil
	case err != nil:
		return metrics.ResultError, errors.Wrap(err, "queue read failed")
	}

	runLog.Info().
		Int("sort_index", entry.SortIndex).
		Str("message", entry.Message).
		Msg("dry run, queue entry left in place")

	return metrics.ResultPublished, nil
}

func (r *Runner) recordQueueDepth() {
	var depth int64
	if err := r.db.Model(&models.QueueEntry{}).Count(&depth).Error; err != nil {
		return
	}

	r.metrics.SetQueueDepth(depth)
}
