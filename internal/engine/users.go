package engine

import (
	"fmt"

	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Права пользователей хранятся, но ни одна операция движка их не проверяет.

// AddUser создаёт пользователя и ставит его в начало списка. Без пароля
// пользователь существует, но войти не может.
func (e *Engine) AddUser(in models.UserInput) (models.DashboardUser, error) {
	u, err := e.newUser(uuid.NewString(), in)
	if err != nil {
		return models.DashboardUser{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.users = append([]models.DashboardUser{u}, e.users...)
	e.version++
	return cloneUser(u), nil
}

// EditUser заменяет имя, email и права. Пароль меняется только если передан
// непустой. Неизвестный id игнорируется (found == false).
func (e *Engine) EditUser(id string, in models.UserInput) (models.DashboardUser, bool, error) {
	perms, err := normalizePermissions(in.Permissions)
	if err != nil {
		return models.DashboardUser{}, false, err
	}

	var hash []byte
	if in.Password != nil && *in.Password != "" {
		if hash, err = e.hashPassword(*in.Password); err != nil {
			return models.DashboardUser{}, false, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.userIndex(id)
	if i < 0 {
		return models.DashboardUser{}, false, nil
	}
	u := &e.users[i]
	u.Name = in.Name
	u.Email = in.Email
	u.Permissions = perms
	if hash != nil {
		u.PasswordHash = hash
	}
	e.version++
	return cloneUser(*u), true, nil
}

// DeleteUser физически удаляет пользователя и завершает все его сессии.
// Возвращает, найден ли пользователь, и число завершённых сессий.
func (e *Engine) DeleteUser(id string) (bool, int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.userIndex(id)
	if i < 0 {
		return false, 0
	}
	e.users = append(e.users[:i:i], e.users[i+1:]...)
	e.version++

	terminated := 0
	for token, sess := range e.sessions {
		if sess.UserID == id {
			delete(e.sessions, token)
			terminated++
		}
	}
	return true, terminated
}

// Users полный список пользователей
func (e *Engine) Users() []models.DashboardUser {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneUsers(e.users)
}

// User пользователь по id
func (e *Engine) User(id string) (models.DashboardUser, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	i := e.userIndex(id)
	if i < 0 {
		return models.DashboardUser{}, false
	}
	return cloneUser(e.users[i]), true
}

func (e *Engine) newUser(id string, in models.UserInput) (models.DashboardUser, error) {
	perms, err := normalizePermissions(in.Permissions)
	if err != nil {
		return models.DashboardUser{}, err
	}

	u := models.DashboardUser{
		ID:          id,
		Name:        in.Name,
		Email:       in.Email,
		Permissions: perms,
		CreatedAt:   e.now(),
	}
	if in.Password != nil && *in.Password != "" {
		if u.PasswordHash, err = e.hashPassword(*in.Password); err != nil {
			return models.DashboardUser{}, err
		}
	}
	return u, nil
}

func (e *Engine) hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), e.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// userIndex требует удержания блокировки
func (e *Engine) userIndex(id string) int {
	for i := range e.users {
		if e.users[i].ID == id {
			return i
		}
	}
	return -1
}

// normalizePermissions упорядоченное множество: без дублей, порядок входа сохраняется
func normalizePermissions(in []models.Permission) ([]models.Permission, error) {
	out := make([]models.Permission, 0, len(in))
	seen := make(map[models.Permission]bool, len(in))
	for _, p := range in {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPermission, p)
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}
