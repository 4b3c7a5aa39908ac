package service

import (
	"context"
	"errors"
	"strings"

	"oink_ledger/internal/db"
	"oink_ledger/internal/domain"
	"oink_ledger/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultGuestPrefix marks ephemeral fids that cannot take part in tips.
const DefaultGuestPrefix = "guest_"

type TipRequest struct {
	FromFID      string
	FromUsername string
	ToFID        string
	ToUsername   string
	Amount       int64
	MessageRef   string
}

type TipResult struct {
	FromFID          string
	FromUsername     string
	ToFID            string
	ToUsername       string
	Amount           int64
	SenderBalance    int64
	RecipientBalance int64
	MessageRef       string
	Entry            *domain.LedgerEntry
}

// TipService moves OINK between two accounts atomically.
type TipService struct {
	db          *pgxpool.Pool
	accounts    *repository.AccountRepository
	ledger      *repository.LedgerRepository
	balances    *BalanceService
	guestPrefix string
}

func NewTipService(db *pgxpool.Pool, balances *BalanceService, guestPrefix string) *TipService {
	if guestPrefix == "" {
		guestPrefix = DefaultGuestPrefix
	}
	return &TipService{
		db:          db,
		accounts:    repository.NewAccountRepository(db),
		ledger:      repository.NewLedgerRepository(db),
		balances:    balances,
		guestPrefix: guestPrefix,
	}
}

// IsGuest reports whether fid is an ephemeral guest identifier.
func (s *TipService) IsGuest(fid string) bool {
	return strings.HasPrefix(strings.TrimSpace(fid), s.guestPrefix)
}

// SendTip debits the sender and credits the recipient in one transaction.
// The sender must exist; an unknown recipient starts at exactly the tip.
func (s *TipService) SendTip(ctx context.Context, req TipRequest) (*TipResult, error) {
	req, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	return s.transfer(ctx, req)
}

// TransferToUsername resolves the recipient by display name and tips it.
// messageRef makes the transfer unique per chat message.
func (s *TipService) TransferToUsername(ctx context.Context, fromFID, toUsername string, amount int64, messageRef string) (*TipResult, error) {
	toUsername = normalizeUsername(strings.TrimPrefix(strings.TrimSpace(toUsername), "@"))
	if toUsername == "" {
		return nil, invalid("toUsername", "is required")
	}
	req, err := s.validateSender(TipRequest{FromFID: fromFID, Amount: amount, MessageRef: messageRef})
	if err != nil {
		return nil, err
	}

	recipient, err := s.accounts.FindByUsername(ctx, toUsername)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fail(ctx, "transfer", req.FromFID, ErrRecipientNotFound)
	}
	if err != nil {
		return nil, fail(ctx, "transfer", req.FromFID, err)
	}

	req.ToFID = recipient.FID
	req.ToUsername = recipient.Username
	if req, err = s.validateRecipient(req); err != nil {
		return nil, err
	}
	return s.transfer(ctx, req)
}

func (s *TipService) validate(req TipRequest) (TipRequest, error) {
	req, err := s.validateSender(req)
	if err != nil {
		return req, err
	}
	return s.validateRecipient(req)
}

func (s *TipService) validateSender(req TipRequest) (TipRequest, error) {
	var err error
	if req.FromFID, err = normalizeFID("fromFid", req.FromFID); err != nil {
		return req, err
	}
	if err := requirePositive("amount", req.Amount); err != nil {
		return req, err
	}
	if s.IsGuest(req.FromFID) {
		return req, &ValidationError{Field: "fromFid", Reason: ErrGuestAccount.Error(), Err: ErrGuestAccount}
	}

	req.MessageRef = strings.TrimSpace(req.MessageRef)
	if len(req.MessageRef) > 128 {
		return req, invalid("messageId", "is too long")
	}
	req.FromUsername = normalizeUsername(req.FromUsername)
	return req, nil
}

func (s *TipService) validateRecipient(req TipRequest) (TipRequest, error) {
	var err error
	if req.ToFID, err = normalizeFID("toFid", req.ToFID); err != nil {
		return req, err
	}
	if s.IsGuest(req.ToFID) {
		return req, &ValidationError{Field: "toFid", Reason: ErrGuestAccount.Error(), Err: ErrGuestAccount}
	}
	req.ToUsername = normalizeUsername(req.ToUsername)
	return req, nil
}

func (s *TipService) transfer(ctx context.Context, req TipRequest) (*TipResult, error) {
	var res *TipResult
	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		// lock both rows in fid order; the sender must already exist
		locked, err := s.accounts.LockBalancesWithTx(ctx, tx, []string{req.FromFID, req.ToFID})
		if err != nil {
			return err
		}
		if _, ok := locked[req.FromFID]; !ok {
			return ErrSenderNotFound
		}

		senderBalance, err := s.balances.DebitWithTx(ctx, tx, req.FromFID, req.Amount)
		if errors.Is(err, ErrAccountNotFound) {
			return ErrSenderNotFound
		}
		if err != nil {
			return err
		}

		recipientBalance, err := s.balances.CreditOrCreateWithTx(ctx, tx, req.ToFID, req.ToUsername, req.Amount)
		if err != nil {
			return err
		}
		if req.FromFID == req.ToFID {
			senderBalance = recipientBalance
		}

		entry := &domain.LedgerEntry{
			FromFID: req.FromFID,
			ToFID:   req.ToFID,
			Amount:  req.Amount,
			Reason:  domain.ReasonTip,
		}
		if req.MessageRef != "" {
			ref := req.MessageRef
			entry.MessageRef = &ref
		}
		if err := s.ledger.CreateWithTx(ctx, tx, entry); err != nil {
			if repository.IsUniqueViolation(err, repository.MessageRefIndex) {
				return ErrDuplicateTransfer
			}
			return err
		}

		res = &TipResult{
			FromFID:          req.FromFID,
			FromUsername:     req.FromUsername,
			ToFID:            req.ToFID,
			ToUsername:       req.ToUsername,
			Amount:           req.Amount,
			SenderBalance:    senderBalance,
			RecipientBalance: recipientBalance,
			MessageRef:       req.MessageRef,
			Entry:            entry,
		}
		return nil
	})
	if err != nil {
		return nil, fail(ctx, "tip", req.FromFID, err)
	}

	tipVolume.Add(float64(req.Amount))
	s.balances.committed(ctx,
		&domain.BalanceChange{FID: res.FromFID, Balance: res.SenderBalance, Change: -res.Amount, Reason: domain.ReasonTip},
		&domain.BalanceChange{FID: res.ToFID, Balance: res.RecipientBalance, Change: res.Amount, Reason: domain.ReasonTip},
	)
	return res, nil
}
