package handlers

import (
	"context"
	"net/http"
	"time"

	"oink_ledger/internal/domain"
	"oink_ledger/internal/http/middleware"
	"oink_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

type BalanceService interface {
	GetBalance(ctx context.Context, fid string) (int64, error)
	SetBalance(ctx context.Context, fid, username string, value int64, reason string) (*domain.BalanceChange, error)
	AdjustBalance(ctx context.Context, fid, username string, delta int64, reason string) (*domain.BalanceChange, error)
	Add(ctx context.Context, fid, username string, amount int64, reason string) (*domain.BalanceChange, error)
	Subtract(ctx context.Context, fid, username string, amount int64, reason string) (*domain.BalanceChange, error)
	History(ctx context.Context, fid string, limit int) ([]*domain.LedgerEntry, error)
}

type CheckinService interface {
	GetStatus(ctx context.Context, fid string) (*domain.CheckinStatus, error)
	PerformCheckin(ctx context.Context, fid, username string) (*domain.CheckinResult, error)
}

type TipService interface {
	SendTip(ctx context.Context, req service.TipRequest) (*service.TipResult, error)
	TransferToUsername(ctx context.Context, fromFID, toUsername string, amount int64, messageRef string) (*service.TipResult, error)
}

// Auditor records successful mutations. Implementations must not fail.
type Auditor interface {
	LogBalanceChange(ctx context.Context, change *domain.BalanceChange, ip, userAgent string)
	LogCheckin(ctx context.Context, fid string, result *domain.CheckinResult, ip, userAgent string)
	LogTip(ctx context.Context, result *service.TipResult, ip, userAgent string)
}

type Handler struct {
	Balances BalanceService
	Checkins CheckinService
	Tips     TipService
	Audit    Auditor
	Timeout  time.Duration
}

func NewHandler(balances BalanceService, checkins CheckinService, tips TipService, audit Auditor, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Handler{
		Balances: balances,
		Checkins: checkins,
		Tips:     tips,
		Audit:    audit,
		Timeout:  timeout,
	}
}

// opContext bounds a store operation by the configured timeout.
func (h *Handler) opContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.Timeout)
}

// authorize rejects a request acting for a fid other than the authenticated
// one. Without identity enforcement every fid is accepted.
func authorize(c *gin.Context, fid string) bool {
	acting, ok := middleware.ActingFID(c)
	if ok && acting != fid {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "fid does not match the authenticated account"})
		return false
	}
	return true
}
