package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"oink_ledger/internal/domain"
	"oink_ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubBalances struct {
	balance int64
	change  *domain.BalanceChange
	entries []*domain.LedgerEntry
	err     error

	gotFID    string
	gotValue  int64
	gotLimit  int
	gotMethod string
}

func (s *stubBalances) GetBalance(_ context.Context, fid string) (int64, error) {
	s.gotFID, s.gotMethod = fid, "get"
	return s.balance, s.err
}

func (s *stubBalances) SetBalance(_ context.Context, fid, _ string, value int64, _ string) (*domain.BalanceChange, error) {
	s.gotFID, s.gotValue, s.gotMethod = fid, value, "set"
	return s.change, s.err
}

func (s *stubBalances) AdjustBalance(_ context.Context, fid, _ string, delta int64, _ string) (*domain.BalanceChange, error) {
	s.gotFID, s.gotValue, s.gotMethod = fid, delta, "adjust"
	return s.change, s.err
}

func (s *stubBalances) Add(_ context.Context, fid, _ string, amount int64, _ string) (*domain.BalanceChange, error) {
	s.gotFID, s.gotValue, s.gotMethod = fid, amount, "add"
	return s.change, s.err
}

func (s *stubBalances) Subtract(_ context.Context, fid, _ string, amount int64, _ string) (*domain.BalanceChange, error) {
	s.gotFID, s.gotValue, s.gotMethod = fid, amount, "subtract"
	return s.change, s.err
}

func (s *stubBalances) History(_ context.Context, fid string, limit int) ([]*domain.LedgerEntry, error) {
	s.gotFID, s.gotLimit, s.gotMethod = fid, limit, "history"
	return s.entries, s.err
}

type stubCheckins struct {
	status *domain.CheckinStatus
	result *domain.CheckinResult
	err    error
}

func (s *stubCheckins) GetStatus(context.Context, string) (*domain.CheckinStatus, error) {
	if s.status == nil {
		return nil, service.ErrStoreUnavailable
	}
	return s.status, nil
}

func (s *stubCheckins) PerformCheckin(context.Context, string, string) (*domain.CheckinResult, error) {
	return s.result, s.err
}

type stubTips struct {
	result *service.TipResult
	err    error
	got    service.TipRequest
	gotRef string
}

func (s *stubTips) SendTip(_ context.Context, req service.TipRequest) (*service.TipResult, error) {
	s.got = req
	return s.result, s.err
}

func (s *stubTips) TransferToUsername(_ context.Context, from, to string, amount int64, ref string) (*service.TipResult, error) {
	s.got = service.TipRequest{FromFID: from, ToUsername: to, Amount: amount}
	s.gotRef = ref
	return s.result, s.err
}

type recordingAuditor struct {
	actions []string
}

func (a *recordingAuditor) LogBalanceChange(context.Context, *domain.BalanceChange, string, string) {
	a.actions = append(a.actions, "balance")
}

func (a *recordingAuditor) LogCheckin(context.Context, string, *domain.CheckinResult, string, string) {
	a.actions = append(a.actions, "checkin")
}

func (a *recordingAuditor) LogTip(context.Context, *service.TipResult, string, string) {
	a.actions = append(a.actions, "tip")
}

type fixture struct {
	balances *stubBalances
	checkins *stubCheckins
	tips     *stubTips
	audit    *recordingAuditor
	router   *gin.Engine
}

// newFixture wires the handlers the way routes.go does, minus middleware.
// actingFID simulates the Identity middleware when non-empty.
func newFixture(actingFID string) *fixture {
	f := &fixture{
		balances: &stubBalances{},
		checkins: &stubCheckins{},
		tips:     &stubTips{},
		audit:    &recordingAuditor{},
	}
	h := NewHandler(f.balances, f.checkins, f.tips, f.audit, time.Second)

	r := gin.New()
	if actingFID != "" {
		r.Use(func(c *gin.Context) { c.Set("fid", actingFID) })
	}
	r.GET("/balance", h.GetBalance)
	r.POST("/balance", h.UpdateBalance)
	r.POST("/balance-operations", h.BalanceOperation)
	r.GET("/daily-checkin", h.GetCheckinStatus)
	r.POST("/daily-checkin", h.PerformCheckin)
	r.POST("/send-tip", h.SendTip)
	r.POST("/transactions", h.CreateTransaction)
	r.GET("/transactions", h.ListTransactions)
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}
