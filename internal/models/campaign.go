package models

import (
	"time"
)

// CampaignStatus статус жизненного цикла кампании
type CampaignStatus string

const (
	StatusActive  CampaignStatus = "Active"
	StatusPaused  CampaignStatus = "Paused"
	StatusDeleted CampaignStatus = "Deleted"
)

// Valid проверяет, что статус входит в перечисление
func (s CampaignStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusDeleted:
		return true
	}
	return false
}

type Campaign struct {
	ID         string         `json:"id"`
	Keyword    string         `json:"keyword"`
	Link       string         `json:"link"`
	Clicks     int64          `json:"clicks"`
	Status     CampaignStatus `json:"status"`
	Trend      float64        `json:"trend"`
	CreatedAt  time.Time      `json:"created_at"`
	Continuous bool           `json:"continuous"`
}

// IsDeleted сообщает, находится ли кампания в корзине
func (c Campaign) IsDeleted() bool {
	return c.Status == StatusDeleted
}

type CreateCampaignInput struct {
	Keyword    string `json:"keyword"`
	Link       string `json:"link"`
	Continuous bool   `json:"continuous"`
}
