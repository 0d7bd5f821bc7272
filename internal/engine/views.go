package engine

import (
	"time"

	"github.com/SergeiKhy/campaign-dashboard/internal/models"
)

// Производные представления: чистые функции над списком кампаний.
// Год игнорируется: кампании одного календарного месяца разных лет сливаются.

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthName короткое имя месяца по индексу 0-11
func MonthName(month int) string {
	if !ValidMonth(month) {
		return ""
	}
	return monthNames[month]
}

// ValidMonth проверяет границы индекса месяца
func ValidMonth(month int) bool {
	return month >= 0 && month < len(monthNames)
}

// MonthOf индекс месяца создания кампании в заданном часовом поясе
func MonthOf(c models.Campaign, loc *time.Location) int {
	return int(c.CreatedAt.In(loc).Month()) - 1
}

// ActiveCampaigns кампании со статусом, отличным от Deleted
func ActiveCampaigns(campaigns []models.Campaign) []models.Campaign {
	out := make([]models.Campaign, 0, len(campaigns))
	for _, c := range campaigns {
		if !c.IsDeleted() {
			out = append(out, c)
		}
	}
	return out
}

// DeletedCampaigns кампании в корзине
func DeletedCampaigns(campaigns []models.Campaign) []models.Campaign {
	out := make([]models.Campaign, 0)
	for _, c := range campaigns {
		if c.IsDeleted() {
			out = append(out, c)
		}
	}
	return out
}

// MonthlyBuckets двенадцать пар (active, deleted) по месяцу создания
func MonthlyBuckets(campaigns []models.Campaign, loc *time.Location) []models.MonthlyBucket {
	buckets := make([]models.MonthlyBucket, len(monthNames))
	for i, name := range monthNames {
		buckets[i].Name = name
	}
	for _, c := range campaigns {
		m := MonthOf(c, loc)
		if c.IsDeleted() {
			buckets[m].Deleted++
		} else {
			buckets[m].Active++
		}
	}
	return buckets
}

// FilterByMonth кампании месяца month; если status задан, только с этим статусом
func FilterByMonth(campaigns []models.Campaign, month int, status *models.CampaignStatus, loc *time.Location) []models.Campaign {
	out := make([]models.Campaign, 0)
	if !ValidMonth(month) {
		return out
	}
	for _, c := range campaigns {
		if MonthOf(c, loc) != month {
			continue
		}
		if status != nil && c.Status != *status {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ComputePieStats доли active/deleted глобально или за месяц.
// Фильтр по статусу сюда намеренно не передаётся: кольцо всегда показывает
// полное соотношение выбранного месяца.
func ComputePieStats(campaigns []models.Campaign, month *int, loc *time.Location) models.PieStats {
	var stats models.PieStats
	for _, c := range campaigns {
		if month != nil && MonthOf(c, loc) != *month {
			continue
		}
		if c.IsDeleted() {
			stats.Deleted++
		} else {
			stats.Active++
		}
	}
	stats.Total = stats.Active + stats.Deleted
	return stats
}

// DetailTitle заголовок таблицы drill-down для выбора
func DetailTitle(sel models.Selection) string {
	if sel.Month == nil {
		return ""
	}
	month := MonthName(*sel.Month)
	if sel.Status != nil {
		switch *sel.Status {
		case models.StatusActive:
			return "Active Campaigns in " + month
		case models.StatusDeleted:
			return "Deleted Campaigns in " + month
		}
	}
	return "Campaigns in " + month
}

// BuildView собирает полное представление дашборда из снимка и выбора сессии
func BuildView(s Snapshot, sel models.Selection, loc *time.Location) models.DashboardView {
	pie := ComputePieStats(s.Campaigns, sel.Month, loc)
	view := models.DashboardView{
		Version:       s.Version,
		Overview:      overviewOf(s.Campaigns, len(s.Accounts), s.TotalCreated),
		Monthly:       MonthlyBuckets(s.Campaigns, loc),
		Pie:           pie,
		ActivePercent: pie.ActivePercent(),
		Selection:     sel,
		DetailTitle:   DetailTitle(sel),
		Detail:        []models.Campaign{},
	}
	if sel.Month != nil {
		view.Detail = FilterByMonth(s.Campaigns, *sel.Month, sel.Status, loc)
	}
	return view
}

func overviewOf(campaigns []models.Campaign, accounts, totalCreated int) models.Overview {
	o := models.Overview{TotalCreated: totalCreated, Accounts: accounts}
	for _, c := range campaigns {
		if c.IsDeleted() {
			o.Deleted++
		} else {
			o.Active++
		}
	}
	return o
}
