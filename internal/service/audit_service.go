package service

import (
	"context"

	"oink_ledger/internal/domain"
	"oink_ledger/internal/logger"
	"oink_ledger/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditService handles audit logging. Writes are best effort: a failure is
// logged and never fails the operation being audited.
type AuditService struct {
	repo *repository.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(db *pgxpool.Pool) *AuditService {
	return &AuditService{
		repo: repository.NewAuditRepository(db),
	}
}

// LogWithRequest creates an audit log with request info (IP, User-Agent)
func (s *AuditService) LogWithRequest(ctx context.Context, fid, action, category, ip, userAgent string, details map[string]any) {
	entry := &domain.AuditLog{
		FID:       fid,
		Action:    action,
		Category:  category,
		Details:   details,
		IP:        ip,
		UserAgent: userAgent,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		logger.WithContext(ctx).Error("failed to create audit log", "error", err, "action", action, "fid", fid)
	}
}

// LogBalanceChange logs a committed balance mutation
func (s *AuditService) LogBalanceChange(ctx context.Context, change *domain.BalanceChange, ip, userAgent string) {
	action := domain.AuditActionBalanceCredit
	switch {
	case change.Reason == domain.ReasonDirectUpdate:
		action = domain.AuditActionBalanceSet
	case change.Change < 0:
		action = domain.AuditActionBalanceDebit
	}

	s.LogWithRequest(ctx, change.FID, action, domain.AuditCategoryBalance, ip, userAgent, map[string]any{
		"change":  change.Change,
		"balance": change.Balance,
		"reason":  change.Reason,
	})
}

// LogCheckin logs a granted daily check-in
func (s *AuditService) LogCheckin(ctx context.Context, fid string, result *domain.CheckinResult, ip, userAgent string) {
	s.LogWithRequest(ctx, fid, domain.AuditActionCheckin, domain.AuditCategoryCheckin, ip, userAgent, map[string]any{
		"date":   result.Date.Format(domain.DateLayout),
		"streak": result.Streak,
		"reward": result.Reward,
		"bonus":  result.Bonus,
	})
}

// LogTip logs a committed tip on the sender's trail
func (s *AuditService) LogTip(ctx context.Context, result *TipResult, ip, userAgent string) {
	details := map[string]any{
		"to_fid": result.ToFID,
		"amount": result.Amount,
	}
	if result.MessageRef != "" {
		details["message_ref"] = result.MessageRef
	}
	s.LogWithRequest(ctx, result.FromFID, domain.AuditActionTipSent, domain.AuditCategoryTip, ip, userAgent, details)
}

// Recent returns the latest audit entries of fid
func (s *AuditService) Recent(ctx context.Context, fid string, limit int) ([]*domain.AuditLog, error) {
	return s.repo.GetByFID(ctx, fid, limit)
}
