package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/campaign-dashboard/internal/engine"
	"github.com/SergeiKhy/campaign-dashboard/internal/metrics"
	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/SergeiKhy/campaign-dashboard/internal/repository"
	"go.uber.org/zap"
)

// Ошибки сервиса
var ErrInvalidFilter = errors.New("status filter must be active, deleted or all")

// Фильтры списка кампаний
const (
	FilterActive  = "active"
	FilterDeleted = "deleted"
	FilterAll     = "all"
)

const defaultViewTTL = 5 * time.Minute

// DashboardService операции дашборда поверх движка состояния
type DashboardService interface {
	LoadState(ctx context.Context) error
	Flush(ctx context.Context) error

	ListCampaigns(filter string) ([]models.Campaign, error)
	AddCampaign(ctx context.Context, input *models.CreateCampaignInput) models.Campaign
	DeleteCampaign(ctx context.Context, id string) bool
	RestoreCampaign(ctx context.Context, id string) bool
	DeleteAllActive(ctx context.Context) int

	ListAccounts() []models.Account
	AddAccount(ctx context.Context, input models.AccountInput) models.Account
	BulkAddAccounts(ctx context.Context, input []models.AccountInput) []models.Account
	DeleteAccount(ctx context.Context, id string) bool

	ListUsers() []models.DashboardUser
	AddUser(ctx context.Context, input models.UserInput) (models.DashboardUser, error)
	EditUser(ctx context.Context, id string, input models.UserInput) (models.DashboardUser, bool, error)
	DeleteUser(ctx context.Context, id string) (bool, int)

	Login(ctx context.Context, email, password string) (models.DashboardUser, engine.Session, error)
	Logout(ctx context.Context, token string) bool
	CurrentUser(token string) (models.DashboardUser, bool)
	SweepSessions() int

	SelectMonth(ctx context.Context, token string, month int, status *models.CampaignStatus) (models.Selection, error)
	ClearSelection(ctx context.Context, token string) error
	View(ctx context.Context, token string) (models.DashboardView, error)

	MonthlyBuckets() []models.MonthlyBucket
	PieStats(month *int) (models.PieStats, error)
	MonthStatusFiltered(month int, status *models.CampaignStatus) ([]models.Campaign, error)
}

// Options необязательные зависимости сервиса; nil означает «выключено»
type Options struct {
	StateRepo repository.StateRepository
	Writer    SnapshotWriter
	Cache     repository.ViewCache
	CacheTTL  time.Duration
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

type dashboardService struct {
	engine    *engine.Engine
	stateRepo repository.StateRepository
	writer    SnapshotWriter
	cache     repository.ViewCache
	cacheTTL  time.Duration
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewDashboardService создаёт сервис над готовым движком
func NewDashboardService(e *engine.Engine, opts Options) DashboardService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultViewTTL
	}
	s := &dashboardService{
		engine:    e,
		stateRepo: opts.StateRepo,
		writer:    opts.Writer,
		cache:     opts.Cache,
		cacheTTL:  ttl,
		metrics:   opts.Metrics,
		logger:    logger,
	}
	s.observe()
	return s
}

// LoadState восстанавливает движок из последнего снимка; пустое хранилище не ошибка
func (s *dashboardService) LoadState(ctx context.Context) error {
	if s.stateRepo == nil {
		return nil
	}
	snap, err := s.stateRepo.Load(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			s.logger.Info("Сохранённого состояния нет, стартуем с чистого")
			return nil
		}
		return fmt.Errorf("failed to load state: %w", err)
	}
	s.engine.Restore(snap)
	s.observe()
	s.logger.Info("Состояние восстановлено",
		zap.Uint64("version", snap.Version),
		zap.Int("campaigns", len(snap.Campaigns)),
		zap.Int("accounts", len(snap.Accounts)),
		zap.Int("users", len(snap.Users)),
	)
	return nil
}

// Flush синхронно сохраняет текущее состояние (при остановке)
func (s *dashboardService) Flush(ctx context.Context) error {
	if s.stateRepo == nil {
		return nil
	}
	err := s.stateRepo.Save(ctx, s.engine.Snapshot())
	if err != nil && !errors.Is(err, repository.ErrStaleSnapshot) {
		return fmt.Errorf("failed to flush state: %w", err)
	}
	return nil
}

func (s *dashboardService) ListCampaigns(filter string) ([]models.Campaign, error) {
	switch filter {
	case FilterActive:
		return s.engine.ActiveCampaigns(), nil
	case FilterDeleted:
		return s.engine.DeletedCampaigns(), nil
	case FilterAll, "":
		return s.engine.Campaigns(), nil
	}
	return nil, ErrInvalidFilter
}

func (s *dashboardService) AddCampaign(ctx context.Context, input *models.CreateCampaignInput) models.Campaign {
	c := s.engine.AddCampaign(input.Keyword, input.Link, input.Continuous)
	s.logger.Info("Кампания создана", zap.String("id", c.ID), zap.String("keyword", c.Keyword))
	s.afterWrite(ctx)
	return c
}

func (s *dashboardService) DeleteCampaign(ctx context.Context, id string) bool {
	found := s.engine.SoftDeleteOne(id)
	if found {
		s.logger.Info("Кампания перемещена в корзину", zap.String("id", id))
		s.afterWrite(ctx)
	}
	return found
}

func (s *dashboardService) RestoreCampaign(ctx context.Context, id string) bool {
	found := s.engine.RestoreOne(id)
	if found {
		s.logger.Info("Кампания восстановлена", zap.String("id", id))
		s.afterWrite(ctx)
	}
	return found
}

func (s *dashboardService) DeleteAllActive(ctx context.Context) int {
	n := s.engine.SoftDeleteAllActive()
	if n > 0 {
		s.logger.Info("Все активные кампании перемещены в корзину", zap.Int("count", n))
		s.afterWrite(ctx)
	}
	return n
}

func (s *dashboardService) ListAccounts() []models.Account {
	return s.engine.Accounts()
}

func (s *dashboardService) AddAccount(ctx context.Context, input models.AccountInput) models.Account {
	a := s.engine.AddAccount(input)
	s.logger.Info("Аккаунт добавлен", zap.String("id", a.ID), zap.String("username", a.Username))
	s.afterWrite(ctx)
	return a
}

func (s *dashboardService) BulkAddAccounts(ctx context.Context, input []models.AccountInput) []models.Account {
	added := s.engine.BulkAddAccounts(input)
	if len(added) > 0 {
		s.logger.Info("Аккаунты добавлены пачкой", zap.Int("count", len(added)))
		s.afterWrite(ctx)
	}
	return added
}

func (s *dashboardService) DeleteAccount(ctx context.Context, id string) bool {
	found := s.engine.DeleteAccount(id)
	if found {
		s.logger.Info("Аккаунт удалён", zap.String("id", id))
		s.afterWrite(ctx)
	}
	return found
}

func (s *dashboardService) ListUsers() []models.DashboardUser {
	return s.engine.Users()
}

func (s *dashboardService) AddUser(ctx context.Context, input models.UserInput) (models.DashboardUser, error) {
	u, err := s.engine.AddUser(input)
	if err != nil {
		return models.DashboardUser{}, err
	}
	s.logger.Info("Пользователь добавлен", zap.String("id", u.ID), zap.String("email", u.Email))
	s.afterWrite(ctx)
	return u, nil
}

func (s *dashboardService) EditUser(ctx context.Context, id string, input models.UserInput) (models.DashboardUser, bool, error) {
	u, found, err := s.engine.EditUser(id, input)
	if err != nil || !found {
		return u, found, err
	}
	s.logger.Info("Пользователь изменён", zap.String("id", id))
	s.afterWrite(ctx)
	return u, true, nil
}

func (s *dashboardService) DeleteUser(ctx context.Context, id string) (bool, int) {
	found, terminated := s.engine.DeleteUser(id)
	if found {
		s.logger.Info("Пользователь удалён",
			zap.String("id", id),
			zap.Int("sessions_terminated", terminated),
		)
		s.afterWrite(ctx)
	}
	return found, terminated
}

func (s *dashboardService) Login(ctx context.Context, email, password string) (models.DashboardUser, engine.Session, error) {
	u, sess, err := s.engine.Authenticate(email, password)
	s.metrics.IncLogin(err == nil)
	if err != nil {
		s.logger.Warn("Неудачная попытка входа")
		return models.DashboardUser{}, engine.Session{}, err
	}
	s.logger.Info("Пользователь вошёл", zap.String("user_id", u.ID))
	s.observe()
	return u, sess, nil
}

func (s *dashboardService) Logout(ctx context.Context, token string) bool {
	ok := s.engine.Logout(token)
	if ok {
		s.observe()
	}
	return ok
}

func (s *dashboardService) CurrentUser(token string) (models.DashboardUser, bool) {
	return s.engine.CurrentUser(token)
}

func (s *dashboardService) SweepSessions() int {
	n := s.engine.SweepExpiredSessions()
	if n > 0 {
		s.logger.Info("Просроченные сессии удалены", zap.Int("count", n))
		s.observe()
	}
	return n
}

func (s *dashboardService) SelectMonth(ctx context.Context, token string, month int, status *models.CampaignStatus) (models.Selection, error) {
	return s.engine.SelectMonth(token, month, status)
}

func (s *dashboardService) ClearSelection(ctx context.Context, token string) error {
	return s.engine.ClearSelection(token)
}

// View представление дашборда для сессии, через кэш если он включён
func (s *dashboardService) View(ctx context.Context, token string) (models.DashboardView, error) {
	if s.cache == nil {
		return s.engine.View(token)
	}

	sess, ok := s.engine.Session(token)
	if !ok {
		return models.DashboardView{}, engine.ErrSessionNotFound
	}
	epoch, version := s.engine.Stamp()

	cached, err := s.cache.Get(ctx, epoch, version, sess.Selection)
	if err == nil {
		s.metrics.IncViewCache(true)
		return *cached, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("Ошибка чтения кэша представления", zap.Error(err))
	}
	s.metrics.IncViewCache(false)

	view, err := s.engine.View(token)
	if err != nil {
		return models.DashboardView{}, err
	}
	if err := s.cache.Set(ctx, &view, s.cacheTTL); err != nil {
		s.logger.Warn("Ошибка записи кэша представления", zap.Error(err))
	}
	return view, nil
}

func (s *dashboardService) MonthlyBuckets() []models.MonthlyBucket {
	return s.engine.MonthlyBuckets()
}

func (s *dashboardService) PieStats(month *int) (models.PieStats, error) {
	return s.engine.PieStats(month)
}

func (s *dashboardService) MonthStatusFiltered(month int, status *models.CampaignStatus) ([]models.Campaign, error) {
	return s.engine.MonthStatusFiltered(month, status)
}

// afterWrite обновляет метрики и отправляет снимок на сохранение
func (s *dashboardService) afterWrite(ctx context.Context) {
	s.observe()
	if s.writer == nil {
		return
	}
	if err := s.writer.Enqueue(ctx, s.engine.Snapshot()); err != nil {
		s.logger.Warn("Снимок не поставлен в очередь", zap.Error(err))
	}
}

func (s *dashboardService) observe() {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveState(s.engine.Version(), s.engine.Overview(), len(s.engine.Users()), s.engine.SessionCount())
}
