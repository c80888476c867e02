package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// AuditPort records voucher lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ApproveInput identifies the voucher to approve.
type ApproveInput struct {
	CompanyID int64
	Kind      VoucherKind
	VoucherID int64
	ActorID   int64
}

// Service drives the voucher lifecycle.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the voucher service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Approve moves a draft or pending voucher to approved. Approving twice fails
// with ErrInvalidTransition.
func (s *Service) Approve(ctx context.Context, in ApproveInput) (VoucherStatus, error) {
	if _, err := tablesFor(in.Kind); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	var from, to VoucherStatus
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetVoucherStatusForUpdate(ctx, in.CompanyID, in.Kind, in.VoucherID)
		if err != nil {
			return err
		}
		next, err := current.Approve()
		if err != nil {
			return err
		}
		if err := tx.UpdateVoucherStatus(ctx, in.Kind, in.VoucherID, next); err != nil {
			return err
		}
		from, to = current, next
		return nil
	})
	if err != nil {
		return "", err
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:   in.ActorID,
			CompanyID: in.CompanyID,
			Action:    "voucher.approve",
			Entity:    string(in.Kind),
			EntityID:  strconv.FormatInt(in.VoucherID, 10),
			Meta:      map[string]any{"from": string(from), "to": string(to)},
			At:        s.now(),
		}); err != nil {
			s.logger.Warn("audit voucher approve", slog.Any("error", err), slog.Int64("voucher_id", in.VoucherID))
		}
	}
	return to, nil
}
