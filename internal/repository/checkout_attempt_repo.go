package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"frontdesk/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrAttemptInFlight is returned by Create while another submission for the
// same booking is still pending.
var ErrAttemptInFlight = errors.New("checkout attempt already in flight")

// StalePendingMessage is stored on attempts whose outcome was never recorded.
const StalePendingMessage = "outcome not recorded"

type CheckoutAttemptRepository struct {
	db *gorm.DB
}

func NewCheckoutAttemptRepository(db *gorm.DB) *CheckoutAttemptRepository {
	return &CheckoutAttemptRepository{db: db}
}

// MigrateCheckoutAttempts creates the table and the one-pending-per-booking
// index. The partial index syntax is shared by PostgreSQL and SQLite.
func MigrateCheckoutAttempts(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.CheckoutAttempt{}); err != nil {
		return err
	}
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_checkout_attempts_one_pending
ON checkout_attempts (booking_id) WHERE status = 'pending'`).Error
}

func (r *CheckoutAttemptRepository) Create(ctx context.Context, a *domain.CheckoutAttempt) error {
	if a.Status == "" {
		a.Status = domain.AttemptPending
	}
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrAttemptInFlight
		}
		return err
	}
	return nil
}

// Complete moves a pending attempt to its final status. Attempts that are
// no longer pending are left untouched.
func (r *CheckoutAttemptRepository) Complete(ctx context.Context, id string, status domain.AttemptStatus, errorMessage string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.CheckoutAttempt{}).
		Where("id = ? AND status = ?", id, domain.AttemptPending).
		Updates(map[string]interface{}{
			"status":        status,
			"error_message": errorMessage,
			"completed_at":  at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var existing int64
		if err := r.db.WithContext(ctx).Model(&domain.CheckoutAttempt{}).Where("id = ?", id).Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// LatestForBooking returns nil without error when the booking has no attempts.
func (r *CheckoutAttemptRepository) LatestForBooking(ctx context.Context, bookingID int64) (*domain.CheckoutAttempt, error) {
	var a domain.CheckoutAttempt
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at desc").
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *CheckoutAttemptRepository) ListForBooking(ctx context.Context, bookingID int64) ([]domain.CheckoutAttempt, error) {
	var out []domain.CheckoutAttempt
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("created_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ExpireStalePending marks pending attempts created before cutoff as unknown.
// Such a row outlived every backend call that could still answer, so its
// outcome was never recorded. bookingID 0 expires across all bookings.
func (r *CheckoutAttemptRepository) ExpireStalePending(ctx context.Context, bookingID int64, cutoff, at time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.CheckoutAttempt{}).
		Where("status = ? AND created_at < ?", domain.AttemptPending, cutoff)
	if bookingID > 0 {
		q = q.Where("booking_id = ?", bookingID)
	}
	res := q.Updates(map[string]interface{}{
		"status":        domain.AttemptUnknown,
		"error_message": StalePendingMessage,
		"completed_at":  at,
	})
	return res.RowsAffected, res.Error
}

// DeleteCompletedBefore removes finished attempts older than cutoff. Pending
// and unknown attempts are kept so a possible double charge stays visible.
func (r *CheckoutAttemptRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ? AND status IN ?", cutoff, []domain.AttemptStatus{domain.AttemptSucceeded, domain.AttemptFailed}).
		Delete(&domain.CheckoutAttempt{})
	return res.RowsAffected, res.Error
}

func isUniqueConstraintError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}
