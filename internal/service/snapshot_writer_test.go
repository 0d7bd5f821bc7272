package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SergeiKhy/campaign-dashboard/internal/engine"
	"github.com/SergeiKhy/campaign-dashboard/internal/metrics"
	"github.com/SergeiKhy/campaign-dashboard/internal/service"
	"github.com/SergeiKhy/campaign-dashboard/internal/service/mocks"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSnapshotWriter_RetriesThenSucceeds временная ошибка хранилища повторяется
func TestSnapshotWriter_RetriesThenSucceeds(t *testing.T) {
	repo := mocks.NewMockStateRepository()
	repo.FailNext(2, errors.New("connection reset"))
	m := metrics.New()
	w := service.NewSnapshotWriter(repo, service.WriterConfig{Backoff: time.Millisecond}, m, nil)
	w.Start()

	require.NoError(t, w.Enqueue(context.Background(), engine.Snapshot{Version: 1}))
	w.Stop()

	snap, ok := repo.Stored()
	require.True(t, ok)
	assert.Equal(t, uint64(1), snap.Version)
	assert.Equal(t, 3, repo.SaveCalls())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotWritesTotal.WithLabelValues("ok")))
}

// TestSnapshotWriter_GivesUp после всех попыток снимок пропускается
func TestSnapshotWriter_GivesUp(t *testing.T) {
	repo := mocks.NewMockStateRepository()
	repo.FailNext(10, errors.New("db down"))
	m := metrics.New()
	w := service.NewSnapshotWriter(repo, service.WriterConfig{Backoff: time.Millisecond}, m, nil)
	w.Start()

	require.NoError(t, w.Enqueue(context.Background(), engine.Snapshot{Version: 1}))
	w.Stop()

	_, ok := repo.Stored()
	assert.False(t, ok)
	assert.Equal(t, 3, repo.SaveCalls())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotWritesTotal.WithLabelValues("error")))
}

// TestSnapshotWriter_OutOfOrder старый снимок не перезаписывает новый
func TestSnapshotWriter_OutOfOrder(t *testing.T) {
	repo := mocks.NewMockStateRepository()
	m := metrics.New()
	w := service.NewSnapshotWriter(repo, service.WriterConfig{Workers: 1}, m, nil)
	w.Start()

	require.NoError(t, w.Enqueue(context.Background(), engine.Snapshot{Version: 5}))
	require.NoError(t, w.Enqueue(context.Background(), engine.Snapshot{Version: 3}))
	w.Stop()

	snap, _ := repo.Stored()
	assert.Equal(t, uint64(5), snap.Version)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotWritesTotal.WithLabelValues("stale")))
}

// TestSnapshotWriter_StopRejectsNew после остановки очередь закрыта
func TestSnapshotWriter_StopRejectsNew(t *testing.T) {
	w := service.NewSnapshotWriter(mocks.NewMockStateRepository(), service.WriterConfig{}, nil, nil)
	w.Start()
	w.Stop()
	w.Stop()

	err := w.Enqueue(context.Background(), engine.Snapshot{Version: 1})
	assert.ErrorIs(t, err, service.ErrWriterStopped)
}

// TestSnapshotWriter_BufferFull переполненный буфер не блокирует запрос
func TestSnapshotWriter_BufferFull(t *testing.T) {
	m := metrics.New()
	// воркеры не запущены, поэтому очередь не разбирается
	w := service.NewSnapshotWriter(mocks.NewMockStateRepository(), service.WriterConfig{Buffer: 1}, m, nil)

	require.NoError(t, w.Enqueue(context.Background(), engine.Snapshot{Version: 1}))
	err := w.Enqueue(context.Background(), engine.Snapshot{Version: 2})

	assert.ErrorIs(t, err, service.ErrWriterBusy)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotDropped))
	assert.Equal(t, service.ChannelStats{BufferSize: 1, BufferUsed: 1, WorkerCount: 1}, w.Stats())
}

// TestSessionSweeper расписание проверяется, проход удаляет просроченные сессии
func TestSessionSweeper(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	e, err := engine.New(
		engine.WithBcryptCost(4),
		engine.WithSessionTTL(time.Minute),
		engine.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)
	svc := service.NewDashboardService(e, service.Options{})
	_, _, err = svc.Login(context.Background(), "johndon@company.com", "admin")
	require.NoError(t, err)

	_, err = service.NewSessionSweeper(svc, "not a schedule", nil)
	assert.Error(t, err)

	sweeper, err := service.NewSessionSweeper(svc, "@every 1m", nil)
	require.NoError(t, err)
	sweeper.Start()
	defer sweeper.Stop(context.Background())

	sweeper.Run()
	assert.Equal(t, 1, e.SessionCount())

	now = now.Add(time.Minute)
	sweeper.Run()
	assert.Zero(t, e.SweepExpiredSessions())
}
