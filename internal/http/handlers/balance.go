package handlers

import (
	"net/http"
	"strings"

	"oink_ledger/internal/domain"

	"github.com/gin-gonic/gin"
)

type updateBalanceRequest struct {
	FID           FID    `json:"fid"`
	Username      string `json:"username"`
	BalanceChange *int64 `json:"balanceChange"`
	NewBalance    *int64 `json:"newBalance"`
	Reason        string `json:"reason"`
}

type balanceOperationRequest struct {
	FID       FID    `json:"fid"`
	Username  string `json:"username"`
	Operation string `json:"operation"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason"`
}

// GetBalance GET /balance?fid=
func (h *Handler) GetBalance(c *gin.Context) {
	fid := strings.TrimSpace(c.Query("fid"))
	if fid == "" {
		badRequest(c, "fid is required")
		return
	}

	ctx, cancel := h.opContext(c)
	defer cancel()

	balance, err := h.Balances.GetBalance(ctx, fid)
	if err != nil {
		// never report an outage as a zero balance
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fid": fid, "balance": balance})
}

// UpdateBalance POST /balance. Exactly one of balanceChange or newBalance.
func (h *Handler) UpdateBalance(c *gin.Context) {
	var req updateBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	fid := req.FID.String()
	if fid == "" {
		badRequest(c, "fid is required")
		return
	}
	if (req.BalanceChange == nil) == (req.NewBalance == nil) {
		badRequest(c, "exactly one of balanceChange or newBalance is required")
		return
	}
	if !authorize(c, fid) {
		return
	}

	ctx, cancel := h.opContext(c)
	defer cancel()

	var (
		change *domain.BalanceChange
		err    error
	)
	if req.NewBalance != nil {
		change, err = h.Balances.SetBalance(ctx, fid, req.Username, *req.NewBalance, req.Reason)
	} else {
		change, err = h.Balances.AdjustBalance(ctx, fid, req.Username, *req.BalanceChange, req.Reason)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	h.auditBalance(c, change)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balance": change.Balance,
		"change":  change.Change,
	})
}

// BalanceOperation POST /balance-operations. Subtract never overdraws.
func (h *Handler) BalanceOperation(c *gin.Context) {
	var req balanceOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	fid := req.FID.String()
	if fid == "" {
		badRequest(c, "fid is required")
		return
	}
	if req.Amount <= 0 {
		badRequest(c, "amount must be a positive integer")
		return
	}
	if !authorize(c, fid) {
		return
	}

	ctx, cancel := h.opContext(c)
	defer cancel()

	var (
		change *domain.BalanceChange
		err    error
	)
	switch strings.ToLower(strings.TrimSpace(req.Operation)) {
	case "add":
		change, err = h.Balances.Add(ctx, fid, req.Username, req.Amount, req.Reason)
	case "subtract":
		change, err = h.Balances.Subtract(ctx, fid, req.Username, req.Amount, req.Reason)
	default:
		badRequest(c, "operation must be add or subtract")
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	h.auditBalance(c, change)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"balance":   change.Balance,
		"operation": strings.ToLower(strings.TrimSpace(req.Operation)),
		"amount":    req.Amount,
	})
}

func (h *Handler) auditBalance(c *gin.Context, change *domain.BalanceChange) {
	if h.Audit == nil || change.Change == 0 {
		return
	}
	h.Audit.LogBalanceChange(c.Request.Context(), change, c.ClientIP(), c.Request.UserAgent())
}
