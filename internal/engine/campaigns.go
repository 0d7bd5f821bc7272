package engine

import (
	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/google/uuid"
)

// AddCampaign создаёт активную кампанию и ставит её в начало списка.
// Пустые keyword/link допустимы.
func (e *Engine) AddCampaign(keyword, link string, continuous bool) models.Campaign {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := models.Campaign{
		ID:         uuid.NewString(),
		Keyword:    keyword,
		Link:       link,
		Clicks:     0,
		Status:     models.StatusActive,
		Trend:      0,
		CreatedAt:  e.now(),
		Continuous: continuous,
	}
	e.campaigns = append([]models.Campaign{c}, e.campaigns...)
	e.totalCreated++
	e.version++
	return c
}

// SoftDeleteOne переводит кампанию в Deleted. Неизвестный id игнорируется.
func (e *Engine) SoftDeleteOne(id string) bool {
	return e.setStatus(id, models.StatusDeleted)
}

// RestoreOne переводит кампанию в Active безусловно (из любого статуса).
// Неизвестный id игнорируется.
func (e *Engine) RestoreOne(id string) bool {
	return e.setStatus(id, models.StatusActive)
}

// SoftDeleteAllActive переводит в Deleted все кампании, которые ещё не удалены,
// одним проходом. Возвращает число изменённых кампаний.
func (e *Engine) SoftDeleteAllActive() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed := 0
	for i := range e.campaigns {
		if !e.campaigns[i].IsDeleted() {
			e.campaigns[i].Status = models.StatusDeleted
			changed++
		}
	}
	if changed > 0 {
		e.version++
	}
	return changed
}

// setStatus возвращает true, если кампания найдена
func (e *Engine) setStatus(id string, status models.CampaignStatus) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.campaigns {
		if e.campaigns[i].ID != id {
			continue
		}
		if e.campaigns[i].Status != status {
			e.campaigns[i].Status = status
			e.version++
		}
		return true
	}
	return false
}

// Campaigns полный список кампаний, новые первыми
func (e *Engine) Campaigns() []models.Campaign {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]models.Campaign{}, e.campaigns...)
}

// ActiveCampaigns текущие неудалённые кампании
func (e *Engine) ActiveCampaigns() []models.Campaign {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return ActiveCampaigns(e.campaigns)
}

// DeletedCampaigns текущая корзина
func (e *Engine) DeletedCampaigns() []models.Campaign {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return DeletedCampaigns(e.campaigns)
}

// MonthlyBuckets данные столбчатой диаграммы
func (e *Engine) MonthlyBuckets() []models.MonthlyBucket {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return MonthlyBuckets(e.campaigns, e.loc)
}

// PieStats данные кольцевой диаграммы; month == nil означает глобально
func (e *Engine) PieStats(month *int) (models.PieStats, error) {
	if month != nil && !ValidMonth(*month) {
		return models.PieStats{}, ErrInvalidMonth
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return ComputePieStats(e.campaigns, month, e.loc), nil
}

// MonthStatusFiltered список drill-down для месяца и необязательного статуса
func (e *Engine) MonthStatusFiltered(month int, status *models.CampaignStatus) ([]models.Campaign, error) {
	if !ValidMonth(month) {
		return nil, ErrInvalidMonth
	}
	if status != nil && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return FilterByMonth(e.campaigns, month, status, e.loc), nil
}
