package models

import (
	"time"
)

// Permission право пользователя дашборда
type Permission string

const (
	PermissionManageCampaigns Permission = "manage_campaigns"
	PermissionDeleteCampaigns Permission = "delete_campaigns"
	PermissionManageAccounts  Permission = "manage_accounts"
	PermissionViewAccounts    Permission = "view_accounts"
	PermissionManageUsers     Permission = "manage_users"
)

// AllPermissions полный набор прав в каноническом порядке
var AllPermissions = []Permission{
	PermissionManageCampaigns,
	PermissionDeleteCampaigns,
	PermissionManageAccounts,
	PermissionViewAccounts,
	PermissionManageUsers,
}

// Valid проверяет, что право известно
func (p Permission) Valid() bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// DashboardUser пользователь дашборда. Хэш пароля никогда не сериализуется.
type DashboardUser struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash []byte       `json:"-"`
	Permissions  []Permission `json:"permissions"`
	CreatedAt    time.Time    `json:"created_at"`
}

// HasPassword сообщает, задан ли пароль (без пароля войти нельзя)
func (u DashboardUser) HasPassword() bool {
	return len(u.PasswordHash) > 0
}

type UserInput struct {
	Name        string       `json:"name" binding:"required"`
	Email       string       `json:"email" binding:"required"`
	Permissions []Permission `json:"permissions"`
	Password    *string      `json:"password,omitempty"`
}
