package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/SergeiKhy/campaign-dashboard/internal/engine"
	"github.com/SergeiKhy/campaign-dashboard/internal/metrics"
	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/SergeiKhy/campaign-dashboard/internal/service"
	"github.com/SergeiKhy/campaign-dashboard/internal/service/mocks"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.WithBcryptCost(4), engine.WithLocation(time.UTC))
	require.NoError(t, err)
	return e
}

// setupTestService сервис с моковым хранилищем и кэшем
func setupTestService(t *testing.T) (service.DashboardService, *mocks.MockStateRepository, *mocks.MockViewCache, *metrics.Metrics) {
	t.Helper()
	repo := mocks.NewMockStateRepository()
	cache := mocks.NewMockViewCache()
	m := metrics.New()
	logger, _ := zap.NewDevelopment()

	writer := service.NewSnapshotWriter(repo, service.WriterConfig{Workers: 1, Buffer: 16, Backoff: time.Millisecond}, m, logger)
	writer.Start()
	t.Cleanup(writer.Stop)

	svc := service.NewDashboardService(newEngine(t), service.Options{
		StateRepo: repo,
		Writer:    writer,
		Cache:     cache,
		Metrics:   m,
		Logger:    logger,
	})
	return svc, repo, cache, m
}

func login(t *testing.T, svc service.DashboardService) string {
	t.Helper()
	_, sess, err := svc.Login(context.Background(), "johndon@company.com", "admin")
	require.NoError(t, err)
	return sess.Token
}

// TestDashboardService_ListCampaigns фильтры списка кампаний
func TestDashboardService_ListCampaigns(t *testing.T) {
	svc, _, _, _ := setupTestService(t)
	ctx := context.Background()

	a := svc.AddCampaign(ctx, &models.CreateCampaignInput{Keyword: "a"})
	svc.AddCampaign(ctx, &models.CreateCampaignInput{Keyword: "b"})
	require.True(t, svc.DeleteCampaign(ctx, a.ID))

	active, err := svc.ListCampaigns(service.FilterActive)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	deleted, err := svc.ListCampaigns(service.FilterDeleted)
	require.NoError(t, err)
	assert.Len(t, deleted, 1)

	all, err := svc.ListCampaigns("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.ListCampaigns("paused")
	assert.ErrorIs(t, err, service.ErrInvalidFilter)
}

// TestDashboardService_WritesReachStore мутации доходят до хранилища через пул
func TestDashboardService_WritesReachStore(t *testing.T) {
	svc, repo, _, _ := setupTestService(t)
	ctx := context.Background()

	svc.AddCampaign(ctx, &models.CreateCampaignInput{Keyword: "a"})
	svc.AddAccount(ctx, models.AccountInput{Username: "u", Password: "p"})

	require.Eventually(t, func() bool {
		snap, ok := repo.Stored()
		return ok && len(snap.Campaigns) == 1 && len(snap.Accounts) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

// TestDashboardService_NoOpDoesNotPersist операции без изменений не пишут снимок
func TestDashboardService_NoOpDoesNotPersist(t *testing.T) {
	svc, repo, _, _ := setupTestService(t)
	ctx := context.Background()

	assert.False(t, svc.DeleteCampaign(ctx, "missing"))
	assert.False(t, svc.RestoreCampaign(ctx, "missing"))
	assert.False(t, svc.DeleteAccount(ctx, "missing"))
	assert.Zero(t, svc.DeleteAllActive(ctx))
	assert.Empty(t, svc.BulkAddAccounts(ctx, nil))

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, repo.SaveCalls())
}

// TestDashboardService_LoadState состояние восстанавливается из хранилища
func TestDashboardService_LoadState(t *testing.T) {
	src := newEngine(t)
	src.AddCampaign("saved", "u", false)
	repo := mocks.NewMockStateRepository()
	require.NoError(t, repo.Save(context.Background(), src.Snapshot()))

	svc := service.NewDashboardService(newEngine(t), service.Options{StateRepo: repo})
	require.NoError(t, svc.LoadState(context.Background()))

	all, err := svc.ListCampaigns(service.FilterAll)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "saved", all[0].Keyword)
}

// TestDashboardService_LoadState_Empty пустое хранилище оставляет администратора
func TestDashboardService_LoadState_Empty(t *testing.T) {
	svc := service.NewDashboardService(newEngine(t), service.Options{StateRepo: mocks.NewMockStateRepository()})

	require.NoError(t, svc.LoadState(context.Background()))
	assert.Len(t, svc.ListUsers(), 1)
}

// TestDashboardService_Flush синхронное сохранение, повтор той же версии не ошибка
func TestDashboardService_Flush(t *testing.T) {
	repo := mocks.NewMockStateRepository()
	svc := service.NewDashboardService(newEngine(t), service.Options{StateRepo: repo})
	svc.AddCampaign(context.Background(), &models.CreateCampaignInput{Keyword: "x"})

	require.NoError(t, svc.Flush(context.Background()))
	require.NoError(t, svc.Flush(context.Background()))

	snap, ok := repo.Stored()
	require.True(t, ok)
	assert.Len(t, snap.Campaigns, 1)
}

// TestDashboardService_ViewCache кэш не отдаёт устаревшее представление после записи
func TestDashboardService_ViewCache(t *testing.T) {
	svc, _, cache, m := setupTestService(t)
	ctx := context.Background()
	token := login(t, svc)

	first, err := svc.View(ctx, token)
	require.NoError(t, err)
	again, err := svc.View(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, first.Version, again.Version)
	assert.Equal(t, 1, cache.Hits())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ViewCacheTotal.WithLabelValues("hit")))

	svc.AddCampaign(ctx, &models.CreateCampaignInput{Keyword: "new"})

	after, err := svc.View(ctx, token)
	require.NoError(t, err)
	assert.Greater(t, after.Version, first.Version)
	assert.Equal(t, 1, after.Overview.Active)
	assert.Equal(t, 1, cache.Hits())
}

// TestDashboardService_ViewCacheKeyedBySelection смена выбора даёт другую запись кэша
func TestDashboardService_ViewCacheKeyedBySelection(t *testing.T) {
	svc, _, cache, _ := setupTestService(t)
	ctx := context.Background()
	token := login(t, svc)

	_, err := svc.View(ctx, token)
	require.NoError(t, err)
	_, err = svc.SelectMonth(ctx, token, 0, nil)
	require.NoError(t, err)

	view, err := svc.View(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Campaigns in Jan", view.DetailTitle)
	assert.Equal(t, 2, cache.Len())
}

// TestDashboardService_View_UnknownSession неизвестная сессия
func TestDashboardService_View_UnknownSession(t *testing.T) {
	svc, _, _, _ := setupTestService(t)

	_, err := svc.View(context.Background(), "nope")
	assert.ErrorIs(t, err, engine.ErrSessionNotFound)
}

// TestDashboardService_Login_Metrics счётчики входов
func TestDashboardService_Login_Metrics(t *testing.T) {
	svc, _, _, m := setupTestService(t)

	_, _, err := svc.Login(context.Background(), "johndon@company.com", "bad")
	assert.ErrorIs(t, err, engine.ErrInvalidCredentials)
	login(t, svc)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sessions))
}

// TestDashboardService_DeleteSelf удаление себя завершает сессию
func TestDashboardService_DeleteSelf(t *testing.T) {
	svc, _, _, _ := setupTestService(t)
	ctx := context.Background()
	token := login(t, svc)

	found, terminated := svc.DeleteUser(ctx, "admin")

	assert.True(t, found)
	assert.Equal(t, 1, terminated)
	_, ok := svc.CurrentUser(token)
	assert.False(t, ok)
}

// TestDashboardService_EditUser_InvalidPermission ошибка валидации не пишет снимок
func TestDashboardService_EditUser_InvalidPermission(t *testing.T) {
	svc, repo, _, _ := setupTestService(t)

	_, _, err := svc.EditUser(context.Background(), "admin", models.UserInput{
		Name:        "x",
		Email:       "x@company.com",
		Permissions: []models.Permission{"superuser"},
	})

	assert.True(t, errors.Is(err, engine.ErrInvalidPermission))
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, repo.SaveCalls())
}

// TestDashboardService_StatelessViews помесячные данные без сессии
func TestDashboardService_StatelessViews(t *testing.T) {
	svc := service.NewDashboardService(newEngine(t), service.Options{})
	c := svc.AddCampaign(context.Background(), &models.CreateCampaignInput{Keyword: "a"})
	month := int(c.CreatedAt.UTC().Month()) - 1

	buckets := svc.MonthlyBuckets()
	require.Len(t, buckets, 12)
	assert.Equal(t, 1, buckets[month].Active)

	pie, err := svc.PieStats(&month)
	require.NoError(t, err)
	assert.Equal(t, 1, pie.Total)

	list, err := svc.MonthStatusFiltered(month, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	bad := models.CampaignStatus("Archived")
	_, err = svc.MonthStatusFiltered(month, &bad)
	assert.ErrorIs(t, err, engine.ErrInvalidStatus)
}

// TestDashboardService_ViewCacheSharedBetweenProcesses процессы с общим кэшем
// и совпадающей версией не видят представления друг друга
func TestDashboardService_ViewCacheSharedBetweenProcesses(t *testing.T) {
	ctx := context.Background()
	cache := mocks.NewMockViewCache()

	first := service.NewDashboardService(newEngine(t), service.Options{Cache: cache})
	c := first.AddCampaign(ctx, &models.CreateCampaignInput{Keyword: "old-process"})
	require.True(t, first.DeleteCampaign(ctx, c.ID))
	oldView, err := first.View(ctx, login(t, first))
	require.NoError(t, err)
	require.Equal(t, uint64(2), oldView.Version)

	second := service.NewDashboardService(newEngine(t), service.Options{Cache: cache})
	second.AddCampaign(ctx, &models.CreateCampaignInput{Keyword: "new-process-1"})
	second.AddCampaign(ctx, &models.CreateCampaignInput{Keyword: "new-process-2"})

	view, err := second.View(ctx, login(t, second))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), view.Version)
	assert.NotEqual(t, oldView.Epoch, view.Epoch)
	assert.Equal(t, 2, view.Overview.Active)
	assert.Equal(t, 0, view.Overview.Deleted)
	assert.Zero(t, cache.Hits())
}
