package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
)

type sweepRepoStub struct {
	expired    []domain.Reservation
	expiredErr error
	overdue    []domain.Loan
	overdueErr error
}

func (s *sweepRepoStub) ExpireReservations(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	return s.expired, s.expiredErr
}

func (s *sweepRepoStub) MarkOverdueLoans(ctx context.Context, now time.Time) ([]domain.Loan, error) {
	return s.overdue, s.overdueErr
}

func TestExpireReservations_PublishesPerRow(t *testing.T) {
	repo := &sweepRepoStub{expired: []domain.Reservation{
		{ID: uuid.New(), Status: domain.ReservationStatusExpired},
		{ID: uuid.New(), Status: domain.ReservationStatusExpired},
	}}
	producer := &publisherStub{}
	jobs := NewJobs(repo, producer, testLogger(), nil)

	jobs.ExpireReservations()

	if len(producer.routingKeys) != 2 {
		t.Fatalf("expected 2 events, got %d", len(producer.routingKeys))
	}
	for _, key := range producer.routingKeys {
		if key != domain.RoutingReservationExpired {
			t.Fatalf("expected %q routing key, got %q", domain.RoutingReservationExpired, key)
		}
	}
}

func TestExpireReservations_NoRowsNoEvents(t *testing.T) {
	producer := &publisherStub{}
	jobs := NewJobs(&sweepRepoStub{}, producer, testLogger(), nil)

	jobs.ExpireReservations()

	if len(producer.routingKeys) != 0 {
		t.Fatalf("expected no events, got %v", producer.routingKeys)
	}
}

func TestExpireReservations_SurvivesRepositoryError(t *testing.T) {
	jobs := NewJobs(&sweepRepoStub{expiredErr: errors.New("db down")}, &publisherStub{}, testLogger(), nil)

	// Must not panic; the next cron run retries.
	jobs.ExpireReservations()
}

func TestMarkOverdueLoans_PublishesPerRow(t *testing.T) {
	repo := &sweepRepoStub{overdue: []domain.Loan{
		{ID: uuid.New(), Status: domain.LoanStatusOverdue},
	}}
	producer := &publisherStub{}
	jobs := NewJobs(repo, producer, testLogger(), nil)

	jobs.MarkOverdueLoans()

	if len(producer.routingKeys) != 1 || producer.routingKeys[0] != domain.RoutingLoanOverdue {
		t.Fatalf("expected one %q event, got %v", domain.RoutingLoanOverdue, producer.routingKeys)
	}
}

func TestSweeps_WorkWithoutProducer(t *testing.T) {
	repo := &sweepRepoStub{
		expired: []domain.Reservation{{ID: uuid.New()}},
		overdue: []domain.Loan{{ID: uuid.New()}},
	}
	jobs := NewJobs(repo, nil, testLogger(), nil)

	jobs.ExpireReservations()
	jobs.MarkOverdueLoans()
}
