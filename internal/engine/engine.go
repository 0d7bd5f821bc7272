// Package engine владеет каноническими коллекциями дашборда (кампании, аккаунты,
// пользователи), сессиями и их фильтрами, и вычисляет производные представления.
//
// Все мутации проходят через методы Engine и применяются атомарно под одной
// блокировкой: читатель видит состояние либо до, либо после операции.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Ошибки движка
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidMonth       = errors.New("month index must be in range 0-11")
	ErrInvalidStatus      = errors.New("unknown campaign status")
	ErrInvalidPermission  = errors.New("unknown permission")
	ErrSessionNotFound    = errors.New("session not found or expired")
)

const (
	defaultSessionTTL = 24 * time.Hour
	dummyPassword     = "campaign-dashboard/no-such-user"
)

// AdminSeed описывает пользователя, который создаётся вместе с движком
type AdminSeed struct {
	ID       string
	Name     string
	Email    string
	Password string
}

// DefaultAdmin администратор по умолчанию
var DefaultAdmin = AdminSeed{
	ID:       "admin",
	Name:     "John Don",
	Email:    "johndon@company.com",
	Password: "admin",
}

type options struct {
	now        func() time.Time
	loc        *time.Location
	sessionTTL time.Duration
	bcryptCost int
	seed       *AdminSeed
}

// Option настраивает Engine
type Option func(*options)

// WithClock подменяет источник текущего времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLocation задаёт часовой пояс для разбиения по месяцам
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithSessionTTL задаёт время жизни сессии
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.sessionTTL = ttl
		}
	}
}

// WithBcryptCost задаёт стоимость bcrypt для паролей пользователей
func WithBcryptCost(cost int) Option {
	return func(o *options) { o.bcryptCost = cost }
}

// WithAdminSeed заменяет администратора по умолчанию
func WithAdminSeed(seed AdminSeed) Option {
	return func(o *options) { o.seed = &seed }
}

// WithoutAdminSeed создаёт движок без пользователей
func WithoutAdminSeed() Option {
	return func(o *options) { o.seed = nil }
}

// Engine контейнер состояния дашборда
type Engine struct {
	mu sync.RWMutex

	campaigns    []models.Campaign
	accounts     []models.Account
	users        []models.DashboardUser
	totalCreated int
	version      uint64
	epoch        string

	sessions map[string]*Session

	now        func() time.Time
	loc        *time.Location
	sessionTTL time.Duration
	bcryptCost int
	dummyHash  []byte
}

// New создаёт движок и заводит администратора (если не отключено)
func New(opts ...Option) (*Engine, error) {
	seed := DefaultAdmin
	o := options{
		now:        time.Now,
		loc:        time.Local,
		sessionTTL: defaultSessionTTL,
		bcryptCost: bcrypt.DefaultCost,
		seed:       &seed,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.bcryptCost < bcrypt.MinCost || o.bcryptCost > bcrypt.MaxCost {
		o.bcryptCost = bcrypt.DefaultCost
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), o.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare password hasher: %w", err)
	}

	e := &Engine{
		campaigns:  []models.Campaign{},
		accounts:   []models.Account{},
		users:      []models.DashboardUser{},
		sessions:   make(map[string]*Session),
		epoch:      uuid.NewString(),
		now:        o.now,
		loc:        o.loc,
		sessionTTL: o.sessionTTL,
		bcryptCost: o.bcryptCost,
		dummyHash:  dummy,
	}

	if o.seed != nil {
		admin, err := e.newUser(o.seed.ID, models.UserInput{
			Name:        o.seed.Name,
			Email:       o.seed.Email,
			Permissions: models.AllPermissions,
			Password:    &o.seed.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to seed admin: %w", err)
		}
		e.users = append(e.users, admin)
	}

	return e, nil
}

// Location часовой пояс, в котором считаются месяцы
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Version номер версии состояния; растёт при каждой мутации коллекций
func (e *Engine) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// Stamp эпоха и версия состояния. Эпоха случайна для каждого движка и меняется
// при Restore, поэтому пара однозначно задаёт состояние даже между процессами.
func (e *Engine) Stamp() (string, uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.epoch, e.version
}

// Snapshot неизменяемая копия коллекций на момент версии Version
type Snapshot struct {
	Version      uint64
	TotalCreated int
	Campaigns    []models.Campaign
	Accounts     []models.Account
	Users        []models.DashboardUser
}

// Snapshot возвращает глубокую копию текущего состояния
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Version:      e.version,
		TotalCreated: e.totalCreated,
		Campaigns:    append([]models.Campaign{}, e.campaigns...),
		Accounts:     append([]models.Account{}, e.accounts...),
		Users:        cloneUsers(e.users),
	}
}

// Restore заменяет состояние снимком (загрузка из хранилища при старте).
// Сессии пользователей, которых нет в снимке, завершаются.
func (e *Engine) Restore(s Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.campaigns = append([]models.Campaign{}, s.Campaigns...)
	e.accounts = append([]models.Account{}, s.Accounts...)
	e.users = cloneUsers(s.Users)
	e.totalCreated = s.TotalCreated
	e.version = s.Version
	e.epoch = uuid.NewString()

	for token, sess := range e.sessions {
		if e.userIndex(sess.UserID) < 0 {
			delete(e.sessions, token)
		}
	}
}

// Overview счётчики верхней строки дашборда
func (e *Engine) Overview() models.Overview {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return overviewOf(e.campaigns, len(e.accounts), e.totalCreated)
}

func cloneUsers(users []models.DashboardUser) []models.DashboardUser {
	out := make([]models.DashboardUser, len(users))
	for i, u := range users {
		out[i] = cloneUser(u)
	}
	return out
}

func cloneUser(u models.DashboardUser) models.DashboardUser {
	u.Permissions = append([]models.Permission{}, u.Permissions...)
	if u.PasswordHash != nil {
		u.PasswordHash = append([]byte{}, u.PasswordHash...)
	}
	return u
}
