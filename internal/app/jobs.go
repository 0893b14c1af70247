/**
 * @description
 * Scheduled sweep implementations. The sweeps make the time-based
 * transitions durable: reservation expiry releases held copies, and the
 * overdue sweep promotes active loans past their due date. Both are
 * set-based statements at the store, so concurrent runs cannot apply the
 * same transition twice.
 */

package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
	"github.com/tperrut/gestao-igrejas2-sub000/internal/metrics"
	"github.com/tperrut/gestao-igrejas2-sub000/pkg/rabbitmq"
)

// SweepRepository defines the database operations the sweeps need.
type SweepRepository interface {
	ExpireReservations(ctx context.Context, now time.Time) ([]domain.Reservation, error)
	MarkOverdueLoans(ctx context.Context, now time.Time) ([]domain.Loan, error)
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	repo     SweepRepository
	producer rabbitmq.Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewJobs creates a new Jobs runner. A nil metrics handle disables
// instrumentation.
func NewJobs(repo SweepRepository, producer rabbitmq.Publisher, logger *slog.Logger, m *metrics.Metrics) *Jobs {
	return &Jobs{repo: repo, producer: producer, logger: logger, metrics: m}
}

// ExpireReservations releases copies held by reservations whose window
// has passed without conversion.
func (j *Jobs) ExpireReservations() {
	ctx := context.Background()
	now := time.Now().UTC()

	expired, err := j.repo.ExpireReservations(ctx, now)
	if err != nil {
		j.logger.Error("reservation expiry sweep failed", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}
	if j.metrics != nil {
		j.metrics.ReservationsExpired(len(expired))
	}

	j.logger.Info("expired reservations", "count", len(expired))
	for _, res := range expired {
		j.publish(ctx, domain.RoutingReservationExpired, domain.CirculationEvent{
			TenantID:   res.TenantID,
			BookID:     res.BookID,
			MemberID:   res.MemberID,
			SubjectID:  res.ID,
			Status:     res.Status,
			OccurredAt: now,
		})
	}
}

// MarkOverdueLoans durably transitions active loans past their due date.
func (j *Jobs) MarkOverdueLoans() {
	ctx := context.Background()
	now := time.Now().UTC()

	overdue, err := j.repo.MarkOverdueLoans(ctx, now)
	if err != nil {
		j.logger.Error("overdue sweep failed", "error", err)
		return
	}
	if len(overdue) == 0 {
		return
	}
	if j.metrics != nil {
		j.metrics.LoansMarkedOverdue(len(overdue))
	}

	j.logger.Info("marked loans overdue", "count", len(overdue))
	for _, loan := range overdue {
		j.publish(ctx, domain.RoutingLoanOverdue, domain.CirculationEvent{
			TenantID:   loan.TenantID,
			BookID:     loan.BookID,
			MemberID:   loan.MemberID,
			SubjectID:  loan.ID,
			Status:     loan.Status,
			OccurredAt: now,
		})
	}
}

func (j *Jobs) publish(ctx context.Context, routingKey string, body interface{}) {
	if j.producer == nil {
		return
	}
	if err := j.producer.Publish(ctx, domain.Exchange, routingKey, body); err != nil {
		j.logger.Error("failed to publish sweep event", "routing_key", routingKey, "error", err)
	}
}
