package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SergeiKhy/campaign-dashboard/internal/engine"
	"github.com/SergeiKhy/campaign-dashboard/internal/metrics"
	"github.com/SergeiKhy/campaign-dashboard/internal/repository"
	"go.uber.org/zap"
)

// Константы worker pool
const (
	defaultWorkerCount   = 1
	defaultChannelBuffer = 64
	maxRetries           = 3
	saveTimeout          = 5 * time.Second
)

var (
	ErrWriterStopped = errors.New("snapshot writer is stopped")
	ErrWriterBusy    = errors.New("snapshot buffer is full")
)

// SnapshotWriter асинхронно сохраняет снимки состояния
type SnapshotWriter interface {
	Start()
	Stop()
	Enqueue(ctx context.Context, snap engine.Snapshot) error
	Stats() ChannelStats
}

// snapshotWriter worker pool поверх буферизованного канала
type snapshotWriter struct {
	repo        repository.StateRepository
	logger      *zap.Logger
	metrics     *metrics.Metrics
	queue       chan engine.Snapshot
	workerCount int
	backoff     time.Duration

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// WriterConfig параметры пула
type WriterConfig struct {
	Workers int
	Buffer  int
	Backoff time.Duration // шаг линейной задержки между попытками
}

// NewSnapshotWriter создаёт пул записи снимков
func NewSnapshotWriter(repo repository.StateRepository, cfg WriterConfig, m *metrics.Metrics, logger *zap.Logger) SnapshotWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkerCount
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultChannelBuffer
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 100 * time.Millisecond
	}
	return &snapshotWriter{
		repo:        repo,
		logger:      logger,
		metrics:     m,
		queue:       make(chan engine.Snapshot, cfg.Buffer),
		workerCount: cfg.Workers,
		backoff:     cfg.Backoff,
	}
}

// Start запускает воркеров
func (w *snapshotWriter) Start() {
	w.logger.Info("Запуск воркеров записи снимков", zap.Int("count", w.workerCount))

	for i := 0; i < w.workerCount; i++ {
		w.wg.Add(1)
		go w.worker(i)
	}
}

// Stop закрывает очередь и ждёт, пока воркеры допишут оставшиеся снимки
func (w *snapshotWriter) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.queue)
	w.mu.Unlock()

	w.logger.Info("Остановка записи снимков...")
	w.wg.Wait()
	w.logger.Info("Запись снимков остановлена")
}

func (w *snapshotWriter) worker(id int) {
	defer w.wg.Done()

	w.logger.Debug("Воркер снимков запущен", zap.Int("id", id))
	for snap := range w.queue {
		w.save(snap)
	}
	w.logger.Debug("Воркер снимков остановлен", zap.Int("id", id))
}

// save пишет снимок с повторами; более новый сохранённый снимок не ошибка
func (w *snapshotWriter) save(snap engine.Snapshot) {
	var err error
	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		err = w.repo.Save(ctx, snap)
		cancel()

		switch {
		case err == nil:
			w.metrics.IncSnapshotWrite("ok")
			return
		case errors.Is(err, repository.ErrStaleSnapshot):
			w.metrics.IncSnapshotWrite("stale")
			return
		}

		if i < maxRetries-1 {
			w.logger.Debug("Повторная попытка записи снимка",
				zap.Uint64("version", snap.Version),
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(time.Duration(i+1) * w.backoff)
		}
	}

	w.metrics.IncSnapshotWrite("error")
	w.logger.Error("Не удалось записать снимок после всех попыток",
		zap.Uint64("version", snap.Version),
		zap.Error(err),
	)
}

// Enqueue ставит снимок в очередь, не блокируя запрос
func (w *snapshotWriter) Enqueue(ctx context.Context, snap engine.Snapshot) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return ErrWriterStopped
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case w.queue <- snap:
		return nil
	default:
		w.metrics.IncSnapshotDropped()
		w.logger.Warn("Буфер снимков заполнен, снимок пропущен", zap.Uint64("version", snap.Version))
		return ErrWriterBusy
	}
}

// Stats статистика канала для мониторинга
func (w *snapshotWriter) Stats() ChannelStats {
	return ChannelStats{
		BufferSize:  cap(w.queue),
		BufferUsed:  len(w.queue),
		WorkerCount: w.workerCount,
	}
}

// ChannelStats статистика канала worker pool
type ChannelStats struct {
	BufferSize  int `json:"buffer_size"`
	BufferUsed  int `json:"buffer_used"`
	WorkerCount int `json:"worker_count"`
}
