package service

import (
	"context"
	"errors"

	"oink_ledger/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ledgerMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_mutations_total",
			Help: "Committed balance mutations by reason",
		},
		[]string{"reason"},
	)
	ledgerRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_rejections_total",
			Help: "Balance operations rejected by a business rule",
		},
		[]string{"operation", "cause"},
	)
	tipVolume = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_tip_volume_oink_total",
			Help: "OINK moved between accounts by tips",
		},
	)
	checkinsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_checkins_total",
			Help: "Daily check-ins granted",
		},
	)
)

func init() {
	prometheus.MustRegister(ledgerMutations)
	prometheus.MustRegister(ledgerRejections)
	prometheus.MustRegister(tipVolume)
	prometheus.MustRegister(checkinsTotal)
}

func rejected(operation string, err error) {
	cause := "other"
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		cause = "insufficient_funds"
	case errors.Is(err, ErrAlreadyCheckedIn):
		cause = "already_checked_in"
	case errors.Is(err, ErrValidation):
		cause = "validation"
	case errors.Is(err, ErrAccountNotFound):
		cause = "not_found"
	case errors.Is(err, ErrDuplicateTransfer):
		cause = "duplicate"
	case errors.Is(err, ErrStoreUnavailable):
		cause = "store_unavailable"
	}
	ledgerRejections.WithLabelValues(operation, cause).Inc()
}

// fail classifies err, counts and logs it, and returns it for the caller.
func fail(ctx context.Context, operation, fid string, err error) error {
	err = storeError(operation, err)
	rejected(operation, err)

	log := logger.WithContext(ctx).With("operation", operation, "fid", fid)
	if isDomainError(err) && !errors.Is(err, ErrStoreUnavailable) {
		log.Debug("operation rejected", "error", err)
	} else {
		log.Error("operation failed", "error", err)
	}
	return err
}
