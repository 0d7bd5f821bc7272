package engine

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/google/uuid"
)

const bulkSuffixLength = 9

// AddAccount добавляет аккаунт в начало списка
func (e *Engine) AddAccount(in models.AccountInput) models.Account {
	e.mu.Lock()
	defer e.mu.Unlock()

	a := models.Account{
		ID:        uuid.NewString(),
		Username:  in.Username,
		Password:  in.Password,
		CreatedAt: e.now(),
	}
	e.accounts = append([]models.Account{a}, e.accounts...)
	e.version++
	return a
}

// BulkAddAccounts добавляет пачку аккаунтов с общим createdAt. Пачка сохраняет
// порядок входа и целиком встаёт перед существующими аккаунтами. Пустой вход
// ничего не меняет.
func (e *Engine) BulkAddAccounts(in []models.AccountInput) []models.Account {
	if len(in) == 0 {
		return []models.Account{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ts := e.now()
	batch := make([]models.Account, len(in))
	for i, data := range in {
		batch[i] = models.Account{
			ID:        bulkAccountID(ts.UnixMilli(), i),
			Username:  data.Username,
			Password:  data.Password,
			CreatedAt: ts,
		}
	}
	e.accounts = append(batch, e.accounts...)
	e.version++
	return append([]models.Account{}, batch...)
}

// DeleteAccount физически удаляет аккаунт. Неизвестный id игнорируется.
func (e *Engine) DeleteAccount(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.accounts {
		if e.accounts[i].ID == id {
			e.accounts = append(e.accounts[:i:i], e.accounts[i+1:]...)
			e.version++
			return true
		}
	}
	return false
}

// Accounts полный список аккаунтов
func (e *Engine) Accounts() []models.Account {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]models.Account{}, e.accounts...)
}

// bulkAccountID <ms>-<позиция>-<случайный суффикс>: уникален даже при совпадении времени
func bulkAccountID(ms int64, index int) string {
	suffix := strings.ToLower(rand.Text())[:bulkSuffixLength]
	return fmt.Sprintf("%d-%d-%s", ms, index, suffix)
}
