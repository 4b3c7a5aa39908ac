package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"oink_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

type sendTipRequest struct {
	FromFID      FID    `json:"fromFid"`
	FromUsername string `json:"fromUsername"`
	ToFID        FID    `json:"toFid"`
	ToUsername   string `json:"toUsername"`
	Amount       int64  `json:"amount"`
}

type transferRequest struct {
	FromFID    FID    `json:"fromFid"`
	ToUsername string `json:"toUsername"`
	Amount     int64  `json:"amount"`
	MessageID  string `json:"messageId"`
}

// SendTip POST /send-tip
func (h *Handler) SendTip(c *gin.Context) {
	var req sendTipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.FromFID == "" || req.ToFID == "" {
		badRequest(c, "fromFid and toFid are required")
		return
	}
	if !authorize(c, req.FromFID.String()) {
		return
	}

	ctx, cancel := h.opContext(c)
	defer cancel()

	result, err := h.Tips.SendTip(ctx, service.TipRequest{
		FromFID:      req.FromFID.String(),
		FromUsername: req.FromUsername,
		ToFID:        req.ToFID.String(),
		ToUsername:   req.ToUsername,
		Amount:       req.Amount,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.auditTip(c, result)
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"tipAmount":     result.Amount,
		"from":          result.FromUsername,
		"to":            result.ToUsername,
		"fromFid":       result.FromFID,
		"toFid":         result.ToFID,
		"senderBalance": result.SenderBalance,
	})
}

// CreateTransaction POST /transactions resolves the recipient by username.
func (h *Handler) CreateTransaction(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.FromFID == "" || strings.TrimSpace(req.ToUsername) == "" {
		badRequest(c, "fromFid and toUsername are required")
		return
	}
	if !authorize(c, req.FromFID.String()) {
		return
	}

	ctx, cancel := h.opContext(c)
	defer cancel()

	result, err := h.Tips.TransferToUsername(ctx, req.FromFID.String(), req.ToUsername, req.Amount, req.MessageID)
	if err != nil {
		writeError(c, err)
		return
	}

	h.auditTip(c, result)
	entry := result.Entry
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"transaction": gin.H{
			"id":         entry.ID,
			"fromFid":    entry.FromFID,
			"toFid":      entry.ToFID,
			"toUsername": result.ToUsername,
			"amount":     entry.Amount,
			"reason":     entry.Reason,
			"messageId":  result.MessageRef,
			"createdAt":  entry.CreatedAt,
		},
		"senderBalance": result.SenderBalance,
	})
}

// ListTransactions GET /transactions?fid=&limit=
func (h *Handler) ListTransactions(c *gin.Context) {
	fid := strings.TrimSpace(c.Query("fid"))
	if fid == "" {
		badRequest(c, "fid is required")
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	ctx, cancel := h.opContext(c)
	defer cancel()

	entries, err := h.Balances.History(ctx, fid, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fid": fid, "transactions": entries})
}

func (h *Handler) auditTip(c *gin.Context, result *service.TipResult) {
	if h.Audit == nil {
		return
	}
	h.Audit.LogTip(c.Request.Context(), result, c.ClientIP(), c.Request.UserAgent())
}
