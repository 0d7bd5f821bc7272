package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/campaign-dashboard/internal/engine"
	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/jackc/pgx/v5"
)

var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrStaleSnapshot    = errors.New("snapshot is older than the stored one")
)

// StateRepository хранит снимок состояния дашборда
type StateRepository interface {
	Save(ctx context.Context, snap engine.Snapshot) error
	Load(ctx context.Context) (engine.Snapshot, error)
}

type stateRepository struct {
	db *PostgresDB
}

func NewStateRepository(db *PostgresDB) StateRepository {
	return &stateRepository{db: db}
}

// Save заменяет сохранённый снимок, если его версия не новее переданной
func (r *stateRepository) Save(ctx context.Context, snap engine.Snapshot) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var stored int64
	err = tx.QueryRow(ctx, `SELECT version FROM dashboard_meta WHERE id = 1 FOR UPDATE`).Scan(&stored)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to read stored version: %w", err)
	case uint64(stored) >= snap.Version:
		return ErrStaleSnapshot
	}

	for _, table := range []string{"campaigns", "accounts", "dashboard_users"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"campaigns"},
		[]string{"id", "position", "keyword", "link", "clicks", "status", "trend", "continuous", "created_at"},
		pgx.CopyFromSlice(len(snap.Campaigns), func(i int) ([]any, error) {
			c := snap.Campaigns[i]
			return []any{c.ID, i, c.Keyword, c.Link, c.Clicks, string(c.Status), c.Trend, c.Continuous, c.CreatedAt}, nil
		}),
	); err != nil {
		return fmt.Errorf("failed to save campaigns: %w", err)
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"accounts"},
		[]string{"id", "position", "username", "password", "created_at"},
		pgx.CopyFromSlice(len(snap.Accounts), func(i int) ([]any, error) {
			a := snap.Accounts[i]
			return []any{a.ID, i, a.Username, a.Password, a.CreatedAt}, nil
		}),
	); err != nil {
		return fmt.Errorf("failed to save accounts: %w", err)
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"dashboard_users"},
		[]string{"id", "position", "name", "email", "password_hash", "permissions", "created_at"},
		pgx.CopyFromSlice(len(snap.Users), func(i int) ([]any, error) {
			u := snap.Users[i]
			return []any{u.ID, i, u.Name, u.Email, u.PasswordHash, permissionStrings(u.Permissions), u.CreatedAt}, nil
		}),
	); err != nil {
		return fmt.Errorf("failed to save users: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO dashboard_meta (id, version, total_created, saved_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET version = EXCLUDED.version, total_created = EXCLUDED.total_created, saved_at = EXCLUDED.saved_at
	`, int64(snap.Version), snap.TotalCreated)
	if err != nil {
		return fmt.Errorf("failed to save meta: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Load читает последний сохранённый снимок
func (r *stateRepository) Load(ctx context.Context) (engine.Snapshot, error) {
	var (
		snap    engine.Snapshot
		version int64
	)
	err := r.db.Pool.QueryRow(ctx, `SELECT version, total_created FROM dashboard_meta WHERE id = 1`).
		Scan(&version, &snap.TotalCreated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return engine.Snapshot{}, ErrSnapshotNotFound
		}
		return engine.Snapshot{}, fmt.Errorf("failed to load meta: %w", err)
	}
	snap.Version = uint64(version)

	if snap.Campaigns, err = r.loadCampaigns(ctx); err != nil {
		return engine.Snapshot{}, err
	}
	if snap.Accounts, err = r.loadAccounts(ctx); err != nil {
		return engine.Snapshot{}, err
	}
	if snap.Users, err = r.loadUsers(ctx); err != nil {
		return engine.Snapshot{}, err
	}

	return snap, nil
}

func (r *stateRepository) loadCampaigns(ctx context.Context) ([]models.Campaign, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, keyword, link, clicks, status, trend, continuous, created_at
		FROM campaigns
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []models.Campaign{}
	for rows.Next() {
		var (
			c      models.Campaign
			status string
		)
		if err := rows.Scan(&c.ID, &c.Keyword, &c.Link, &c.Clicks, &status, &c.Trend, &c.Continuous, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		c.Status = models.CampaignStatus(status)
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}
	return campaigns, nil
}

func (r *stateRepository) loadAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, username, password, created_at
		FROM accounts
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Username, &a.Password, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

func (r *stateRepository) loadUsers(ctx context.Context) ([]models.DashboardUser, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, email, password_hash, permissions, created_at
		FROM dashboard_users
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	defer rows.Close()

	users := []models.DashboardUser{}
	for rows.Next() {
		var (
			u     models.DashboardUser
			perms []string
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &perms, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Permissions = make([]models.Permission, 0, len(perms))
		for _, p := range perms {
			u.Permissions = append(u.Permissions, models.Permission(p))
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

func permissionStrings(perms []models.Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
