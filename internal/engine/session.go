package engine

import (
	"strings"
	"time"

	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Session аутентифицированная сессия со своим выбором drill-down фильтра
type Session struct {
	Token     string
	UserID    string
	Selection models.Selection
	ExpiresAt time.Time
}

// Authenticate ищет пользователя по email без учёта регистра и сверяет пароль.
// Email не уникален: побеждает первый в списке пользователь с совпавшими email и паролем.
// Неизвестный email и неверный пароль неразличимы: оба дают ErrInvalidCredentials,
// и без кандидатов тратится одно сравнение bcrypt с фиктивным хэшем.
func (e *Engine) Authenticate(email, password string) (models.DashboardUser, Session, error) {
	e.mu.RLock()
	var candidates []models.DashboardUser
	for _, u := range e.users {
		if strings.EqualFold(u.Email, email) && u.HasPassword() {
			candidates = append(candidates, cloneUser(u))
		}
	}
	e.mu.RUnlock()

	var (
		user  models.DashboardUser
		found bool
	)
	for _, u := range candidates {
		if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil {
			user, found = u, true
			break
		}
	}
	if len(candidates) == 0 {
		_ = bcrypt.CompareHashAndPassword(e.dummyHash, []byte(password))
	}
	if !found {
		return models.DashboardUser{}, Session{}, ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// пользователя могли удалить, пока сверялся пароль
	if e.userIndex(user.ID) < 0 {
		return models.DashboardUser{}, Session{}, ErrInvalidCredentials
	}
	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: e.now().Add(e.sessionTTL),
	}
	e.sessions[sess.Token] = sess
	return user, *sess, nil
}

// Logout завершает сессию; её выбор фильтра пропадает вместе с ней
func (e *Engine) Logout(token string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.sessions[token]; !ok {
		return false
	}
	delete(e.sessions, token)
	return true
}

// Session живая сессия по токену
func (e *Engine) Session(token string) (Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sess, ok := e.liveSession(token)
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// CurrentUser пользователь сессии; false означает «нет пользователя»
func (e *Engine) CurrentUser(token string) (models.DashboardUser, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sess, ok := e.liveSession(token)
	if !ok {
		return models.DashboardUser{}, false
	}
	i := e.userIndex(sess.UserID)
	if i < 0 {
		return models.DashboardUser{}, false
	}
	return cloneUser(e.users[i]), true
}

// SelectMonth выбирает месяц и, опционально, статус (Active или Deleted)
func (e *Engine) SelectMonth(token string, month int, status *models.CampaignStatus) (models.Selection, error) {
	if !ValidMonth(month) {
		return models.Selection{}, ErrInvalidMonth
	}
	if status != nil && *status != models.StatusActive && *status != models.StatusDeleted {
		return models.Selection{}, ErrInvalidStatus
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sess, ok := e.liveSession(token)
	if !ok {
		return models.Selection{}, ErrSessionNotFound
	}
	m := month
	sel := models.Selection{Month: &m}
	if status != nil {
		s := *status
		sel.Status = &s
	}
	sess.Selection = sel
	return sel, nil
}

// ClearSelection сбрасывает месяц и статус
func (e *Engine) ClearSelection(token string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, ok := e.liveSession(token)
	if !ok {
		return ErrSessionNotFound
	}
	sess.Selection = models.Selection{}
	return nil
}

// View производное представление дашборда для сессии
func (e *Engine) View(token string) (models.DashboardView, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sess, ok := e.liveSession(token)
	if !ok {
		return models.DashboardView{}, ErrSessionNotFound
	}
	view := BuildView(e.snapshotLocked(), sess.Selection, e.loc)
	view.Epoch = e.epoch
	return view, nil
}

// SweepExpiredSessions удаляет просроченные сессии и возвращает их число
func (e *Engine) SweepExpiredSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	removed := 0
	for token, sess := range e.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(e.sessions, token)
			removed++
		}
	}
	return removed
}

// SessionCount число живых сессий
func (e *Engine) SessionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	now := e.now()
	n := 0
	for _, sess := range e.sessions {
		if now.Before(sess.ExpiresAt) {
			n++
		}
	}
	return n
}

// liveSession требует удержания блокировки
func (e *Engine) liveSession(token string) (*Session, bool) {
	sess, ok := e.sessions[token]
	if !ok || !e.now().Before(sess.ExpiresAt) {
		return nil, false
	}
	return sess, true
}
