package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skyqueue/skyqueue/internal/bluesky"
	"github.com/skyqueue/skyqueue/internal/config"
	"github.com/skyqueue/skyqueue/internal/db/controller/mode"
	"github.com/skyqueue/skyqueue/internal/db/models"
	"github.com/skyqueue/skyqueue/internal/metrics"
)

type fakePublisher struct {
	receipt *bluesky.Receipt
	err     error
	panics  bool
	texts   []string
}

func (f *fakePublisher) Publish(_ context.Context, text string) (*bluesky.Receipt, error) {
	f.texts = append(f.texts, text)

	if f.panics {
		panic("wire corrupted")
	}

	if f.err != nil {
		return nil, f.err
	}

	return f.receipt, nil
}

// setupTestRunner builds a Runner on an in-memory store with a fixed clock
// reading 09:17 local time.
func setupTestRunner(t *testing.T, pub *fakePublisher) *Runner {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = gdb.AutoMigrate(&models.PostMode{}, &models.QueueEntry{})
	require.NoError(t, err, "failed to migrate test database")

	registry := prometheus.NewRegistry()

	m, err := metrics.New(registry)
	require.NoError(t, err)

	return &Runner{
		cfg:       &config.Config{},
		db:        gdb,
		publisher: pub,
		metrics:   m,
		registry:  registry,
		now: func() time.Time {
			return time.Date(2024, time.March, 5, 9, 17, 42, 0, time.Local)
		},
	}
}

func seedMode(t *testing.T, db *gorm.DB, value string) {
	t.Helper()
	require.NoError(t, db.Create(&models.PostMode{Mode: value}).Error)
}

func seedEntry(t *testing.T, db *gorm.DB, entry models.QueueEntry) {
	t.Helper()
	require.NoError(t, db.Create(&entry).Error)
}

func countEntries(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.QueueEntry{}).Count(&count).Error)

	return count
}

// counterValue reads a counter back out of the registry by family name and
// label set; absent families count as zero.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}

	metric:
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if labels[label.GetName()] != label.GetValue() {
					continue metric
				}
			}

			return m.GetCounter().GetValue()
		}
	}

	return 0
}

func TestNew_NilConfig(t *testing.T) {
	r, err := New(nil)
	require.ErrorIs(t, err, ErrConfigNil)
	assert.Nil(t, r)
}

func TestRun_PublishesDueEntry(t *testing.T) {
	// The documented morning scenario: mode "normal", one entry due at nine,
	// invoked at 09:17.
	pub := &fakePublisher{receipt: &bluesky.Receipt{URI: "at://did:plc:x/app.bsky.feed.post/1"}}
	r := setupTestRunner(t, pub)

	seedMode(t, r.db, mode.Normal)
	seedEntry(t, r.db, models.QueueEntry{SortIndex: 1, PostTime: "09:00:00", Message: "Good morning"})

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"Good morning"}, pub.texts)
	assert.Equal(t, int64(0), countEntries(t, r.db))

	assert.Equal(t, float64(1), counterValue(t, r.registry, "skyqueue_runs_total",
		map[string]string{"result": metrics.ResultPublished}))
	assert.Equal(t, float64(1), counterValue(t, r.registry, "skyqueue_posts_published_total", nil))
}

func TestRun_NothingDue(t *testing.T) {
	pub := &fakePublisher{}
	r := setupTestRunner(t, pub)

	seedMode(t, r.db, mode.Normal)
	seedEntry(t, r.db, models.QueueEntry{SortIndex: 1, PostTime: "18:00:00", Message: "Good evening"})

	require.NoError(t, r.Run(context.Background()))

	assert.Empty(t, pub.texts)
	assert.Equal(t, int64(1), countEntries(t, r.db))

	assert.Equal(t, float64(1), counterValue(t, r.registry, "skyqueue_runs_total",
		map[string]string{"result": metrics.ResultNothingDue}))
}

func TestRun_NoModeRecorded(t *testing.T) {
	pub := &fakePublisher{}
	r := setupTestRunner(t, pub)

	seedEntry(t, r.db, models.QueueEntry{SortIndex: 1, PostTime: "09:00:00", Message: "Good morning"})

	err := r.Run(context.Background())
	require.ErrorIs(t, err, mode.ErrModeNotSet)

	// Without a mode the queue is never touched
	assert.Empty(t, pub.texts)
	assert.Equal(t, int64(1), countEntries(t, r.db))

	assert.Equal(t, float64(1), counterValue(t, r.registry, "skyqueue_runs_total",
		map[string]string{"result": metrics.ResultError}))
}

func TestRun_PublishFailureKeepsEntry(t *testing.T) {
	errRemote := errors.New("session create failed")
	pub := &fakePublisher{err: errRemote}
	r := setupTestRunner(t, pub)

	seedMode(t, r.db, mode.Normal)
	seedEntry(t, r.db, models.QueueEntry{SortIndex: 1, PostTime: "09:00:00", Message: "Good morning"})

	err := r.Run(context.Background())
	require.ErrorIs(t, err, errRemote)

	assert.Equal(t, []string{"Good morning"}, pub.texts)
	assert.Equal(t, int64(1), countEntries(t, r.db))

	assert.Equal(t, float64(1), counterValue(t, r.registry, "skyqueue_runs_total",
		map[string]string{"result": metrics.ResultError}))
	assert.Equal(t, float64(0), counterValue(t, r.registry, "skyqueue_posts_published_total", nil))
}

func TestRun_PublishPanicIsFailure(t *testing.T) {
	pub := &fakePublisher{panics: true}
	r := setupTestRunner(t, pub)

	seedMode(t, r.db, mode.Normal)
	seedEntry(t, r.db, models.QueueEntry{SortIndex: 1, PostTime: "09:00:00", Message: "Good morning"})

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish panicked")

	assert.Equal(t, int64(1), countEntries(t, r.db))
}

func TestRun_RandomModePublishesAllTheSame(t *testing.T) {
	pub := &fakePublisher{}
	r := setupTestRunner(t, pub)

	seedMode(t, r.db, mode.Random)
	seedEntry(t, r.db, models.QueueEntry{SortIndex: 1, PostTime: "09:00:00", Message: "Good morning"})

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"Good morning"}, pub.texts)
	assert.Equal(t, int64(0), countEntries(t, r.db))
}

func TestRun_DryRunTouchesNothing(t *testing.T) {
	pub := &fakePublisher{}
	r := setupTestRunner(t, pub)
	r.cfg.DryRun = true

	seedMode(t, r.db, mode.Normal)
	seedEntry(t, r.db, models.QueueEntry{SortIndex: 1, PostTime: "09:00:00", Message: "Good morning"})

	require.NoError(t, r.Run(context.Background()))

	assert.Empty(t, pub.texts)
	assert.Equal(t, int64(1), countEntries(t, r.db))
}
