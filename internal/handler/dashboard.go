package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/renewalhub/renewalhub/internal/notifier"
	"github.com/renewalhub/renewalhub/internal/repository"
)

// DashboardHandler computes aggregate expiry statistics over all active
// services. The result is kept in a short-TTL Redis cache-aside; when no
// Redis client is available every request computes fresh.
type DashboardHandler struct {
	Services  *repository.ServiceRepo
	Redis     *redis.Client // may be nil
	CacheTTL  time.Duration
	Scheduler *notifier.Scheduler
}

func NewDashboardHandler(svcs *repository.ServiceRepo, rdb *redis.Client, sched *notifier.Scheduler) *DashboardHandler {
	return &DashboardHandler{Services: svcs, Redis: rdb, CacheTTL: 30 * time.Second, Scheduler: sched}
}

const statsCacheKey = "dashboard:stats"

type dashboardStats struct {
	Total        int            `json:"total"`
	ExpiringSoon int            `json:"expiring_soon"`
	Expired      int            `json:"expired"`
	Safe         int            `json:"safe"`
	Categories   map[string]int `json:"categories"`
	TotalCost    float64        `json:"total_cost"`
}

// Stats buckets every active service into expired (<0 days), expiring soon
// (<=30) or safe, using the same floored day arithmetic as the sweep.
// Unparseable expiry dates count toward the total but no bucket.
func (h *DashboardHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if h.Redis != nil {
		if raw, err := h.Redis.Get(ctx, statsCacheKey).Bytes(); err == nil {
			var cached dashboardStats
			if json.Unmarshal(raw, &cached) == nil {
				return c.JSON(http.StatusOK, cached)
			}
		}
	}

	services, err := h.Services.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	now := time.Now().UTC()
	stats := dashboardStats{Total: len(services), Categories: map[string]int{}}
	for _, svc := range services {
		stats.Categories[svc.CategoryName]++
		stats.TotalCost += svc.Cost

		expiry, err := notifier.ParseExpiry(svc.ExpiryDate)
		if err != nil {
			continue
		}
		switch days := notifier.DaysUntil(now, expiry); {
		case days < 0:
			stats.Expired++
		case days <= 30:
			stats.ExpiringSoon++
		default:
			stats.Safe++
		}
	}

	if h.Redis != nil {
		if raw, err := json.Marshal(stats); err == nil {
			_ = h.Redis.Set(ctx, statsCacheKey, raw, h.CacheTTL).Err()
		}
	}
	return c.JSON(http.StatusOK, stats)
}

// CheckExpiring enqueues one asynchronous sweep and returns immediately.
func (h *DashboardHandler) CheckExpiring(c echo.Context) error {
	h.Scheduler.TriggerNow()
	return c.JSON(http.StatusOK, echo.Map{"message": "expiry check triggered"})
}
