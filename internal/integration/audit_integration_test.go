package integration

import (
	"context"
	"testing"

	"oink_ledger/internal/domain"
	"oink_ledger/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudit_RecordsTip(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	audit := service.NewAuditService(db)
	fid := newFID("audit-")

	audit.LogTip(ctx, &service.TipResult{FromFID: fid, ToFID: "2", Amount: 15, MessageRef: "m-1"}, "10.0.0.1", "test-agent")
	audit.LogBalanceChange(ctx, &domain.BalanceChange{FID: fid, Balance: 0, Change: -5, Reason: domain.ReasonDirectUpdate}, "", "")

	logs, err := audit.Recent(ctx, fid, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	actions := []string{logs[0].Action, logs[1].Action}
	assert.ElementsMatch(t, []string{domain.AuditActionTipSent, domain.AuditActionBalanceSet}, actions)
	for _, l := range logs {
		if l.Action == domain.AuditActionTipSent {
			assert.Equal(t, "m-1", l.Details["message_ref"])
			assert.Equal(t, float64(15), l.Details["amount"])
			assert.Equal(t, "10.0.0.1", l.IP)
		}
	}
}
