package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// ViewCache кэш производных представлений. Ключ включает эпоху и версию состояния,
// поэтому после любой мутации или перезапуска старые записи перестают читаться.
type ViewCache interface {
	Get(ctx context.Context, epoch string, version uint64, sel models.Selection) (*models.DashboardView, error)
	Set(ctx context.Context, view *models.DashboardView, ttl time.Duration) error
}

type viewCache struct {
	redis *RedisDB
}

func NewViewCache(redis *RedisDB) ViewCache {
	return &viewCache{redis: redis}
}

func (r *viewCache) Get(ctx context.Context, epoch string, version uint64, sel models.Selection) (*models.DashboardView, error) {
	data, err := r.redis.Client.Get(ctx, ViewKey(epoch, version, sel)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read view: %w", err)
	}

	var view models.DashboardView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("failed to unmarshal view: %w", err)
	}

	return &view, nil
}

func (r *viewCache) Set(ctx context.Context, view *models.DashboardView, ttl time.Duration) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal view: %w", err)
	}

	return r.redis.Client.Set(ctx, ViewKey(view.Epoch, view.Version, view.Selection), data, ttl).Err()
}

// ViewKey ключ вида dashboard:{epoch}:v{version}:m{month}:s{status}
func ViewKey(epoch string, version uint64, sel models.Selection) string {
	month := "all"
	if sel.Month != nil {
		month = strconv.Itoa(*sel.Month)
	}
	status := "all"
	if sel.Status != nil {
		status = string(*sel.Status)
	}
	return "dashboard:" + epoch + ":v" + strconv.FormatUint(version, 10) + ":m" + month + ":s" + status
}
