package http

import (
	"context"

	"oink_ledger/internal/config"
	"oink_ledger/internal/http/handlers"
	"oink_ledger/internal/http/middleware"
	"oink_ledger/internal/realtime"
	"oink_ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

// RegisterRoutes wires the ledger services onto r. hub receives every
// committed balance change; rdb may be nil.
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, hub *realtime.Hub) {
	balances := service.NewBalanceService(db, cfg.DefaultBalance, hub)
	checkins := service.NewCheckinService(db, balances, cfg.CheckinReward, cfg.StreakBonusEnabled)
	tips := service.NewTipService(db, balances, cfg.GuestFIDPrefix)
	audit := service.NewAuditService(db)
	tokens := service.NewIdentityTokens(cfg.JWTSecret)

	h := handlers.NewHandler(balances, checkins, tips, audit, cfg.DBTimeout)

	var redisPinger handlers.Pinger
	if rdb != nil {
		redisPinger = handlers.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	healthHandler := handlers.NewHealthHandler(db, redisPinger, cfg.AppVersion)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	apiRL := middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow)
	writeRL := middleware.WriteRateLimit(cfg.WriteRateLimit, cfg.WriteRateWindow)
	identity := middleware.Identity(tokens)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(apiRL)
	registerAPIRoutes(v1, h, identity, writeRL)

	// Unversioned paths used by the mini app
	api := r.Group("/api")
	api.Use(apiRL)
	api.GET("/health", healthHandler.Health)
	registerAPIRoutes(api, h, identity, writeRL)

	// Live balance stream
	r.GET("/ws/balance", apiRL, realtime.HandleWS(hub, tokens, cfg.AllowedOrigin, balances.GetBalance))
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, identity, writeRL gin.HandlerFunc) {
	// Balance
	api.GET("/balance", h.GetBalance)
	api.POST("/balance", identity, writeRL, h.UpdateBalance)
	api.POST("/balance-operations", identity, writeRL, h.BalanceOperation)

	// Daily check-in
	api.GET("/daily-checkin", h.GetCheckinStatus)
	api.POST("/daily-checkin", identity, writeRL, h.PerformCheckin)

	// Tips and transaction log
	api.POST("/send-tip", identity, writeRL, h.SendTip)
	api.POST("/transactions", identity, writeRL, h.CreateTransaction)
	api.GET("/transactions", h.ListTransactions)
}
