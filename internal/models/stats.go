package models

// MonthlyBucket агрегат по календарному месяцу для столбчатой диаграммы
type MonthlyBucket struct {
	Name    string `json:"name"`
	Active  int    `json:"active"`
	Deleted int    `json:"deleted"`
}

// PieStats доли активных и удалённых кампаний для кольцевой диаграммы
type PieStats struct {
	Active  int `json:"active"`
	Deleted int `json:"deleted"`
	Total   int `json:"total"`
}

// ActivePercent доля активных в процентах, округлённая до целого
func (p PieStats) ActivePercent() int {
	if p.Total == 0 {
		return 0
	}
	return int(float64(p.Active)*100/float64(p.Total) + 0.5)
}

// Selection выбор drill-down фильтра. Status без Month не бывает.
type Selection struct {
	Month  *int            `json:"month"`
	Status *CampaignStatus `json:"status"`
}

// IsSet сообщает, выбран ли месяц
func (s Selection) IsSet() bool {
	return s.Month != nil
}

// Overview счётчики верхней строки дашборда
type Overview struct {
	TotalCreated int `json:"total_created"`
	Active       int `json:"active"`
	Deleted      int `json:"deleted"`
	Accounts     int `json:"accounts"`
}

// DashboardView полное производное представление для одной сессии
type DashboardView struct {
	Epoch         string          `json:"epoch"`
	Version       uint64          `json:"version"`
	Overview      Overview        `json:"overview"`
	Monthly       []MonthlyBucket `json:"monthly"`
	Pie           PieStats        `json:"pie"`
	ActivePercent int             `json:"active_percent"`
	Selection     Selection       `json:"selection"`
	DetailTitle   string          `json:"detail_title,omitempty"`
	Detail        []Campaign      `json:"detail"`
}
