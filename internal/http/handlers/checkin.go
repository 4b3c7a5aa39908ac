package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"oink_ledger/internal/domain"
	"oink_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

type checkinRequest struct {
	FID      FID    `json:"fid"`
	Username string `json:"username"`
}

// GetCheckinStatus GET /daily-checkin?fid=
func (h *Handler) GetCheckinStatus(c *gin.Context) {
	fid := strings.TrimSpace(c.Query("fid"))
	if fid == "" {
		badRequest(c, "fid is required")
		return
	}

	ctx, cancel := h.opContext(c)
	defer cancel()

	status, err := h.Checkins.GetStatus(ctx, fid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusJSON(status))
}

// PerformCheckin POST /daily-checkin
func (h *Handler) PerformCheckin(c *gin.Context) {
	var req checkinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	fid := req.FID.String()
	if fid == "" {
		badRequest(c, "fid is required")
		return
	}
	if !authorize(c, fid) {
		return
	}

	ctx, cancel := h.opContext(c)
	defer cancel()

	result, err := h.Checkins.PerformCheckin(ctx, fid, req.Username)
	if errors.Is(err, service.ErrAlreadyCheckedIn) {
		body := gin.H{"success": false, "error": "already checked in today"}
		// existing status lets the client render the calendar without a second call
		if status, statusErr := h.Checkins.GetStatus(ctx, fid); statusErr == nil {
			for k, v := range statusJSON(status) {
				body[k] = v
			}
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	if h.Audit != nil {
		h.Audit.LogCheckin(c.Request.Context(), fid, result, c.ClientIP(), c.Request.UserAgent())
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"reward":      result.Reward,
		"bonus":       result.Bonus,
		"streak":      result.Streak,
		"streakDates": formatDates(result.StreakDates),
		"date":        result.Date.Format(domain.DateLayout),
		"balance":     result.Balance,
	})
}

func statusJSON(s *domain.CheckinStatus) gin.H {
	var last any
	if s.LastCheckinDate != nil {
		last = s.LastCheckinDate.Format(domain.DateLayout)
	}
	return gin.H{
		"hasCheckedInToday": s.HasCheckedInToday,
		"currentStreak":     s.CurrentStreak,
		"totalCheckins":     s.TotalCheckins,
		"lastCheckInDate":   last,
		"streakDates":       formatDates(s.StreakDates),
	}
}

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.UTC().Format(domain.DateLayout))
	}
	return out
}
