package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionSweeper периодически удаляет просроченные сессии по cron расписанию
type SessionSweeper struct {
	cron   *cron.Cron
	svc    DashboardService
	logger *zap.Logger
}

// NewSessionSweeper проверяет расписание и регистрирует задачу
func NewSessionSweeper(svc DashboardService, spec string, logger *zap.Logger) (*SessionSweeper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SessionSweeper{
		cron:   cron.New(),
		svc:    svc,
		logger: logger,
	}
	if _, err := s.cron.AddFunc(spec, s.Run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

// Run один проход очистки
func (s *SessionSweeper) Run() {
	n := s.svc.SweepSessions()
	s.logger.Debug("Очистка сессий", zap.Int("removed", n))
}

// Start запускает планировщик
func (s *SessionSweeper) Start() {
	s.cron.Start()
}

// Stop ждёт завершения выполняющейся задачи или отмены ctx
func (s *SessionSweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
