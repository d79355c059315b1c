package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lapublica/contenidos/internal/service"
	"github.com/lapublica/contenidos/internal/store"
	"github.com/lapublica/contenidos/internal/testutil"
)

type fakePurger struct {
	calls     int
	olderThan time.Duration
	err       error
}

func (f *fakePurger) DeleteOldEvents(_ context.Context, olderThan time.Duration) (int64, error) {
	f.calls++
	f.olderThan = olderThan
	return 3, f.err
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(Config{Logger: testutil.TestLoggerSilent()})

	require.NoError(t, s.Start())
	assert.Empty(t, s.Jobs())
	s.Stop()
}

func TestScheduler_RegistersPurgeJob(t *testing.T) {
	purger := &fakePurger{}
	s := New(Config{Events: purger, Retention: 48 * time.Hour, Logger: testutil.TestLoggerSilent()})

	require.NoError(t, s.Start())
	defer s.Stop()

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, JobPurgeEvents, jobs[0].Name)
	assert.Equal(t, DefaultPurgeSchedule, jobs[0].Schedule)
	assert.Equal(t, 3, jobs[0].NextRun.Hour())
	assert.True(t, jobs[0].LastRun.IsZero())
}

func TestScheduler_ZeroRetentionDisablesPurge(t *testing.T) {
	s := New(Config{Events: &fakePurger{}, Logger: testutil.TestLoggerSilent()})

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Empty(t, s.Jobs())
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(Config{
		Events:        &fakePurger{},
		Retention:     time.Hour,
		PurgeSchedule: "not a cron line",
		Logger:        testutil.TestLoggerSilent(),
	})

	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), JobPurgeEvents)
}

func TestScheduler_TriggerNow(t *testing.T) {
	purger := &fakePurger{}
	s := New(Config{Events: purger, Retention: 24 * time.Hour, Logger: testutil.TestLoggerSilent()})
	require.NoError(t, s.Start())
	defer s.Stop()

	require.NoError(t, s.TriggerNow(context.Background(), JobPurgeEvents))
	assert.Equal(t, 1, purger.calls)
	assert.Equal(t, 24*time.Hour, purger.olderThan)

	err := s.TriggerNow(context.Background(), "nope")
	assert.EqualError(t, err, "job not found: nope")
}

func TestScheduler_TriggerNowError(t *testing.T) {
	purger := &fakePurger{err: errors.New("disk I/O error")}
	s := New(Config{Events: purger, Retention: time.Hour, Logger: testutil.TestLoggerSilent()})
	require.NoError(t, s.Start())
	defer s.Stop()

	err := s.TriggerNow(context.Background(), JobPurgeEvents)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
}

func TestScheduler_PurgesStoredEvents(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	queries := store.New(db)
	for _, age := range []time.Duration{0, 10 * 24 * time.Hour} {
		_, err := queries.CreateEvent(ctx, store.CreateEventParams{
			Level:     "info",
			Category:  "system",
			Message:   "test event",
			Metadata:  "{}",
			CreatedAt: time.Now().UTC().Add(-age),
		})
		require.NoError(t, err)
	}

	events := service.NewEventService(db, testutil.TestLoggerSilent())
	s := New(Config{Events: events, Retention: 7 * 24 * time.Hour, Logger: testutil.TestLoggerSilent()})
	require.NoError(t, s.Start())
	defer s.Stop()

	require.NoError(t, s.TriggerNow(ctx, JobPurgeEvents))

	remaining, err := events.RecentEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
