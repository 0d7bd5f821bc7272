package repository_test

import (
	"errors"
	"testing"
	"time"

	"github.com/SergeiKhy/campaign-dashboard/internal/config"
	"github.com/SergeiKhy/campaign-dashboard/internal/engine"
	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/SergeiKhy/campaign-dashboard/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestViewKey ключ кэша различает эпоху, версию, месяц и статус
func TestViewKey(t *testing.T) {
	march := 2
	deleted := models.StatusDeleted

	assert.Equal(t, "dashboard:e1:v3:mall:sall", repository.ViewKey("e1", 3, models.Selection{}))
	assert.Equal(t, "dashboard:e1:v3:m2:sall", repository.ViewKey("e1", 3, models.Selection{Month: &march}))
	assert.Equal(t, "dashboard:e1:v4:m2:sDeleted", repository.ViewKey("e1", 4, models.Selection{Month: &march, Status: &deleted}))
	assert.NotEqual(t, repository.ViewKey("e1", 3, models.Selection{}), repository.ViewKey("e2", 3, models.Selection{}))
}

// setupPostgres поднимает PostgreSQL в контейнере и применяет миграции
func setupPostgres(t *testing.T) *repository.PostgresDB {
	t.Helper()
	if testing.Short() {
		t.Skip("интеграционный тест пропущен в -short режиме")
	}
	ctx := t.Context()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("campaigns"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := config.DBConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "user",
		Password: "password",
		Name:     "campaigns",
	}
	require.NoError(t, repository.Migrate(cfg.DSN()))
	// повторный прогон миграций ничего не делает
	require.NoError(t, repository.Migrate(cfg.DSN()))

	db, err := repository.NewPostgresDB(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func sampleSnapshot(t *testing.T) engine.Snapshot {
	t.Helper()
	e, err := engine.New(engine.WithBcryptCost(4), engine.WithLocation(time.UTC))
	require.NoError(t, err)

	c := e.AddCampaign("shoes", "https://example.com", true)
	e.AddCampaign("hats", "https://example.com/hats", false)
	e.SoftDeleteOne(c.ID)
	e.BulkAddAccounts([]models.AccountInput{{Username: "a", Password: "1"}, {Username: "b", Password: "2"}})
	_, err = e.AddUser(models.UserInput{Name: "Viewer", Email: "viewer@company.com", Permissions: []models.Permission{models.PermissionViewAccounts}})
	require.NoError(t, err)
	return e.Snapshot()
}

// TestStateRepository_SaveLoad снимок переживает запись и чтение из PostgreSQL
func TestStateRepository_SaveLoad(t *testing.T) {
	db := setupPostgres(t)
	repo := repository.NewStateRepository(db)
	ctx := t.Context()

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, repository.ErrSnapshotNotFound)

	snap := sampleSnapshot(t)
	require.NoError(t, repo.Save(ctx, snap))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, snap.Version, loaded.Version)
	assert.Equal(t, snap.TotalCreated, loaded.TotalCreated)
	require.Len(t, loaded.Campaigns, len(snap.Campaigns))
	for i := range snap.Campaigns {
		assert.Equal(t, snap.Campaigns[i].ID, loaded.Campaigns[i].ID)
		assert.Equal(t, snap.Campaigns[i].Status, loaded.Campaigns[i].Status)
		assert.True(t, snap.Campaigns[i].CreatedAt.Equal(loaded.Campaigns[i].CreatedAt))
	}
	require.Len(t, loaded.Accounts, 2)
	assert.Equal(t, snap.Accounts[0].ID, loaded.Accounts[0].ID)
	assert.Equal(t, "1", loaded.Accounts[0].Password)
	require.Len(t, loaded.Users, 2)
	assert.Equal(t, snap.Users[0].Permissions, loaded.Users[0].Permissions)
	assert.False(t, loaded.Users[0].HasPassword())
	assert.Equal(t, snap.Users[1].PasswordHash, loaded.Users[1].PasswordHash)

	// восстановленный движок принимает пароль администратора
	restored, err := engine.New(engine.WithoutAdminSeed(), engine.WithBcryptCost(4))
	require.NoError(t, err)
	restored.Restore(loaded)
	_, _, err = restored.Authenticate("johndon@company.com", "admin")
	assert.NoError(t, err)
}

// TestStateRepository_RejectsStale более старая версия не перезаписывает новую
func TestStateRepository_RejectsStale(t *testing.T) {
	db := setupPostgres(t)
	repo := repository.NewStateRepository(db)
	ctx := t.Context()

	snap := sampleSnapshot(t)
	require.NoError(t, repo.Save(ctx, snap))

	older := snap
	older.Version--
	older.Campaigns = nil
	err := repo.Save(ctx, older)
	assert.True(t, errors.Is(err, repository.ErrStaleSnapshot))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Campaigns, len(snap.Campaigns))
}

// TestViewCache_RoundTrip представление читается из Redis по версии и выбору
func TestViewCache_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("интеграционный тест пропущен в -short режиме")
	}
	ctx := t.Context()

	container, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb, err := repository.NewRedisClient(ctx, config.RedisConfig{Host: host, Port: port.Port()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	cache := repository.NewViewCache(rdb)
	march := 2
	view := &models.DashboardView{
		Epoch:     "e1",
		Version:   5,
		Selection: models.Selection{Month: &march},
		Pie:       models.PieStats{Active: 1, Deleted: 1, Total: 2},
		Monthly:   []models.MonthlyBucket{{Name: "Jan"}},
		Detail:    []models.Campaign{},
	}

	_, err = cache.Get(ctx, "e1", 5, view.Selection)
	assert.ErrorIs(t, err, repository.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, view, time.Minute))

	got, err := cache.Get(ctx, "e1", 5, models.Selection{Month: &march})
	require.NoError(t, err)
	assert.Equal(t, view.Pie, got.Pie)
	assert.Equal(t, 2, *got.Selection.Month)

	// другая версия или эпоха не видит запись
	_, err = cache.Get(ctx, "e1", 6, view.Selection)
	assert.ErrorIs(t, err, repository.ErrCacheMiss)
	_, err = cache.Get(ctx, "e2", 5, view.Selection)
	assert.ErrorIs(t, err, repository.ErrCacheMiss)
}
