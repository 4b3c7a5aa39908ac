package domain

import "time"

// AuditLog represents an audit log entry for tracking important actions
type AuditLog struct {
	ID        int64          `db:"id" json:"id"`
	FID       string         `db:"fid" json:"fid"`
	Action    string         `db:"action" json:"action"`
	Category  string         `db:"category" json:"category"`
	Details   map[string]any `db:"details" json:"details"`
	IP        string         `db:"ip" json:"ip,omitempty"`
	UserAgent string         `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// Audit action categories
const (
	AuditCategoryBalance = "balance"
	AuditCategoryCheckin = "checkin"
	AuditCategoryTip     = "tip"
)

// Audit actions
const (
	AuditActionBalanceSet    = "balance_set"
	AuditActionBalanceCredit = "balance_credit"
	AuditActionBalanceDebit  = "balance_debit"
	AuditActionCheckin       = "daily_checkin"
	AuditActionTipSent       = "tip_sent"
)
