package handlers

import (
	"net/http"
	"testing"
	"time"

	"oink_ledger/internal/domain"
	"oink_ledger/internal/service"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestGetCheckinStatus(t *testing.T) {
	f := newFixture("")
	last := day("2026-03-02")
	f.checkins.status = &domain.CheckinStatus{
		HasCheckedInToday: true,
		CurrentStreak:     2,
		TotalCheckins:     5,
		LastCheckinDate:   &last,
		StreakDates:       []time.Time{day("2026-03-01"), day("2026-03-02")},
	}

	w, body := f.do(t, http.MethodGet, "/daily-checkin?fid=9", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["hasCheckedInToday"])
	assert.Equal(t, float64(2), body["currentStreak"])
	assert.Equal(t, float64(5), body["totalCheckins"])
	assert.Equal(t, "2026-03-02", body["lastCheckInDate"])
	assert.Equal(t, []any{"2026-03-01", "2026-03-02"}, body["streakDates"])
}

func TestGetCheckinStatus_NoHistory(t *testing.T) {
	f := newFixture("")
	f.checkins.status = &domain.CheckinStatus{StreakDates: []time.Time{}}

	w, body := f.do(t, http.MethodGet, "/daily-checkin?fid=9", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["lastCheckInDate"])
	assert.Equal(t, []any{}, body["streakDates"])
}

func TestPerformCheckin(t *testing.T) {
	f := newFixture("")
	f.checkins.result = &domain.CheckinResult{
		Date:        day("2026-03-03"),
		Streak:      3,
		Reward:      35,
		Bonus:       25,
		Balance:     1035,
		StreakDates: []time.Time{day("2026-03-01"), day("2026-03-02"), day("2026-03-03")},
	}

	w, body := f.do(t, http.MethodPost, "/daily-checkin", map[string]any{"fid": 9, "username": "pig"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(35), body["reward"])
	assert.Equal(t, float64(3), body["streak"])
	assert.Equal(t, "2026-03-03", body["date"])
	assert.Len(t, body["streakDates"], 3)
	assert.Equal(t, []string{"checkin"}, f.audit.actions)
}

func TestPerformCheckin_AlreadyCheckedIn(t *testing.T) {
	f := newFixture("")
	f.checkins.err = service.ErrAlreadyCheckedIn
	f.checkins.status = &domain.CheckinStatus{HasCheckedInToday: true, CurrentStreak: 4, StreakDates: []time.Time{}}

	w, body := f.do(t, http.MethodPost, "/daily-checkin", map[string]any{"fid": "9"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "already checked in today", body["error"])
	assert.Equal(t, float64(4), body["currentStreak"])
	assert.Empty(t, f.audit.actions)
}

func TestPerformCheckin_MissingFID(t *testing.T) {
	w, _ := newFixture("").do(t, http.MethodPost, "/daily-checkin", map[string]any{"username": "pig"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
