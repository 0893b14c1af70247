/**
 * @description
 * Business logic for the lending library: book catalog, reservations and
 * loans. The service validates input and authorization, delegates the
 * state transitions to the repository (which performs them atomically),
 * and publishes circulation events for the notification pipeline.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/config"
	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
	"github.com/tperrut/gestao-igrejas2-sub000/internal/metrics"
	"github.com/tperrut/gestao-igrejas2-sub000/pkg/rabbitmq"
)

// Service-level sentinel errors, mapped to HTTP statuses by the API layer.
var (
	ErrForbidden      = errors.New("operation not permitted for this role")
	ErrInvalidInput   = errors.New("invalid input")
	ErrMemberInactive = errors.New("member is not active")
	ErrRateLimited    = errors.New("too many reservation attempts")
)

// LibraryRepository defines the database operations the library service needs.
type LibraryRepository interface {
	CreateBook(ctx context.Context, b *domain.Book) error
	GetBook(ctx context.Context, tenantID, id uuid.UUID) (*domain.Book, error)
	ListBooks(ctx context.Context, tenantID uuid.UUID) ([]domain.Book, error)
	UpdateBook(ctx context.Context, tenantID, id uuid.UUID, in domain.BookInput) (*domain.Book, error)
	DeleteBook(ctx context.Context, tenantID, id uuid.UUID) error

	GetMember(ctx context.Context, tenantID, id uuid.UUID) (*domain.Member, error)

	CreateReservationHold(ctx context.Context, res *domain.Reservation) error
	CancelReservation(ctx context.Context, tenantID, id uuid.UUID) error
	ConvertReservation(ctx context.Context, tenantID, id uuid.UUID, dueDate, now time.Time) (*domain.Loan, error)
	ListReservations(ctx context.Context, tenantID uuid.UUID) ([]domain.Reservation, error)

	CreateLoanWithHold(ctx context.Context, loan *domain.Loan) error
	ListLoans(ctx context.Context, tenantID uuid.UUID) ([]domain.Loan, error)
	ReturnLoan(ctx context.Context, tenantID, id uuid.UUID, returnDate time.Time) (*domain.Loan, error)
	DeleteLoan(ctx context.Context, tenantID, id uuid.UUID) (*domain.Loan, error)
}

// RateLimiter limits reservation creation per member. A nil limiter
// disables limiting.
type RateLimiter interface {
	Allow(ctx context.Context, subject string) (bool, error)
}

// LibraryService orchestrates catalog and circulation operations.
type LibraryService struct {
	repo     LibraryRepository
	producer rabbitmq.Publisher
	limiter  RateLimiter
	cfg      config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewLibraryService creates a new library service. A nil metrics handle
// disables instrumentation.
func NewLibraryService(repo LibraryRepository, producer rabbitmq.Publisher, limiter RateLimiter, cfg config.Config, logger *slog.Logger, m *metrics.Metrics) *LibraryService {
	return &LibraryService{repo: repo, producer: producer, limiter: limiter, cfg: cfg, logger: logger, metrics: m}
}

func (s *LibraryService) publish(ctx context.Context, routingKey string, body interface{}) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(ctx, domain.Exchange, routingKey, body); err != nil {
		s.logger.Error("failed to publish event", "routing_key", routingKey, "error", err)
	}
}

// ── Book catalog ────────────────────────────────────────────────────────

// CreateBook adds a title to the tenant's catalog with all copies available.
func (s *LibraryService) CreateBook(ctx context.Context, sess domain.Session, in domain.BookInput) (*domain.Book, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Copies <= 0 {
		return nil, fmt.Errorf("%w: copies must be positive", ErrInvalidInput)
	}

	now := time.Now().UTC()
	book := &domain.Book{
		ID:              uuid.New(),
		TenantID:        sess.TenantID,
		Title:           in.Title,
		Author:          strings.TrimSpace(in.Author),
		ISBN:            in.ISBN,
		Category:        in.Category,
		Publisher:       in.Publisher,
		CoverURL:        in.CoverURL,
		Copies:          in.Copies,
		AvailableCopies: in.Copies,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.CreateBook(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// GetBook returns one book from the tenant's catalog.
func (s *LibraryService) GetBook(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.Book, error) {
	return s.repo.GetBook(ctx, sess.TenantID, id)
}

// ListBooks returns the tenant's catalog.
func (s *LibraryService) ListBooks(ctx context.Context, sess domain.Session) ([]domain.Book, error) {
	return s.repo.ListBooks(ctx, sess.TenantID)
}

// UpdateBook overwrites a book's catalog fields.
func (s *LibraryService) UpdateBook(ctx context.Context, sess domain.Session, id uuid.UUID, in domain.BookInput) (*domain.Book, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Copies <= 0 {
		return nil, fmt.Errorf("%w: copies must be positive", ErrInvalidInput)
	}
	return s.repo.UpdateBook(ctx, sess.TenantID, id, in)
}

// DeleteBook removes a book from the catalog.
func (s *LibraryService) DeleteBook(ctx context.Context, sess domain.Session, id uuid.UUID) error {
	if !sess.IsAdmin() {
		return ErrForbidden
	}
	return s.repo.DeleteBook(ctx, sess.TenantID, id)
}

// ── Reservations ────────────────────────────────────────────────────────

// CreateReservation places a hold on one copy for a member. The member
// must be active and the book must have an available copy; the decrement
// and the insert happen in one transaction at the store.
func (s *LibraryService) CreateReservation(ctx context.Context, sess domain.Session, req domain.CreateReservationRequest) (*domain.Reservation, error) {
	if req.BookID == uuid.Nil || req.MemberID == uuid.Nil {
		return nil, fmt.Errorf("%w: book_id and member_id are required", ErrInvalidInput)
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, req.MemberID.String())
		if err != nil {
			// Rate limiting is advisory; a broken limiter must not block circulation.
			s.logger.Warn("rate limiter unavailable", "error", err)
		} else if !ok {
			return nil, ErrRateLimited
		}
	}

	member, err := s.repo.GetMember(ctx, sess.TenantID, req.MemberID)
	if err != nil {
		return nil, err
	}
	if !member.CanBorrow() {
		return nil, ErrMemberInactive
	}

	now := time.Now().UTC()
	res := &domain.Reservation{
		ID:              uuid.New(),
		TenantID:        sess.TenantID,
		BookID:          req.BookID,
		MemberID:        req.MemberID,
		ReservationDate: now,
		ExpiresAt:       now.Add(s.cfg.ReservationHoldPeriod()),
		Status:          domain.ReservationStatusActive,
	}
	if err := s.repo.CreateReservationHold(ctx, res); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ReservationCreated()
	}

	s.publish(ctx, domain.RoutingReservationCreated, domain.CirculationEvent{
		TenantID:   res.TenantID,
		BookID:     res.BookID,
		MemberID:   res.MemberID,
		SubjectID:  res.ID,
		Status:     res.Status,
		OccurredAt: now,
	})
	return res, nil
}

// CancelReservation cancels an active hold and releases its copy. Any
// user of the tenant may cancel any reservation: sessions identify a
// user account, not a member row, so ownership cannot be checked yet.
// TODO: restrict to the owning member (or an admin) once tenant_users
// carries a member_id link.
func (s *LibraryService) CancelReservation(ctx context.Context, sess domain.Session, id uuid.UUID) error {
	return s.repo.CancelReservation(ctx, sess.TenantID, id)
}

// ConvertReservationToLoan turns an active, unexpired reservation into a
// loan. Admin only; the copy stays spoken for, moving from the
// reservation hold to the loan hold.
func (s *LibraryService) ConvertReservationToLoan(ctx context.Context, sess domain.Session, id uuid.UUID, dueDate time.Time) (*domain.Loan, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	now := time.Now().UTC()
	if !dueDate.After(now) {
		return nil, fmt.Errorf("%w: due_date must be in the future", ErrInvalidInput)
	}

	loan, err := s.repo.ConvertReservation(ctx, sess.TenantID, id, dueDate, now)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.LoanCreated()
	}

	s.publish(ctx, domain.RoutingLoanCreated, domain.CirculationEvent{
		TenantID:   loan.TenantID,
		BookID:     loan.BookID,
		MemberID:   loan.MemberID,
		SubjectID:  loan.ID,
		Status:     loan.Status,
		OccurredAt: now,
	})
	return loan, nil
}

// ListReservations returns the tenant's reservations grouped into the
// actionable bucket and the historical one. An active reservation past
// its expiry is shown as expired even before the sweep catches it, but
// its stored status is untouched here; listing never writes.
func (s *LibraryService) ListReservations(ctx context.Context, sess domain.Session) (*domain.ReservationListing, error) {
	reservations, err := s.repo.ListReservations(ctx, sess.TenantID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	listing := &domain.ReservationListing{}
	for _, res := range reservations {
		if res.Status == domain.ReservationStatusActive && !res.IsExpired(now) {
			listing.Active = append(listing.Active, res)
			continue
		}
		if res.Status == domain.ReservationStatusActive {
			res.Status = domain.ReservationStatusExpired
		}
		listing.Other = append(listing.Other, res)
	}
	return listing, nil
}

// ── Loans ───────────────────────────────────────────────────────────────

// CreateLoan issues a direct loan, bypassing the reservation flow. It
// runs through the same active-member check and atomic copy decrement as
// a reservation, so two librarians cannot both issue the last copy.
func (s *LibraryService) CreateLoan(ctx context.Context, sess domain.Session, req domain.CreateLoanRequest) (*domain.Loan, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	if req.BookID == uuid.Nil || req.MemberID == uuid.Nil {
		return nil, fmt.Errorf("%w: book_id and member_id are required", ErrInvalidInput)
	}

	member, err := s.repo.GetMember(ctx, sess.TenantID, req.MemberID)
	if err != nil {
		return nil, err
	}
	if !member.CanBorrow() {
		return nil, ErrMemberInactive
	}

	now := time.Now().UTC()
	dueDate := req.DueDate
	if dueDate.IsZero() {
		dueDate = now.Add(s.cfg.LoanPeriod())
	}
	if !dueDate.After(now) {
		return nil, fmt.Errorf("%w: due_date must be in the future", ErrInvalidInput)
	}

	loan := &domain.Loan{
		ID:         uuid.New(),
		TenantID:   sess.TenantID,
		BookID:     req.BookID,
		MemberID:   req.MemberID,
		BorrowDate: now,
		DueDate:    dueDate,
		Status:     domain.LoanStatusActive,
	}
	if err := s.repo.CreateLoanWithHold(ctx, loan); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.LoanCreated()
	}

	s.publish(ctx, domain.RoutingLoanCreated, domain.CirculationEvent{
		TenantID:   loan.TenantID,
		BookID:     loan.BookID,
		MemberID:   loan.MemberID,
		SubjectID:  loan.ID,
		Status:     loan.Status,
		OccurredAt: now,
	})
	return loan, nil
}

// ListLoans returns the tenant's loans. Loans past due are reported as
// overdue even between sweep runs; the derived flag only affects the
// response, never the stored row.
func (s *LibraryService) ListLoans(ctx context.Context, sess domain.Session) ([]domain.Loan, error) {
	loans, err := s.repo.ListLoans(ctx, sess.TenantID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for i := range loans {
		if loans[i].IsOverdue(now) {
			loans[i].Status = domain.LoanStatusOverdue
		}
	}
	return loans, nil
}

// ReturnLoan marks a loan returned and releases its copy. A repeated
// return surfaces the store's ErrLoanAlreadyReturned unchanged.
func (s *LibraryService) ReturnLoan(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.Loan, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	now := time.Now().UTC()
	loan, err := s.repo.ReturnLoan(ctx, sess.TenantID, id, now)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.LoanReturned()
	}

	s.publish(ctx, domain.RoutingLoanReturned, domain.CirculationEvent{
		TenantID:   loan.TenantID,
		BookID:     loan.BookID,
		MemberID:   loan.MemberID,
		SubjectID:  loan.ID,
		Status:     loan.Status,
		OccurredAt: now,
	})
	return loan, nil
}

// CancelLoan hard-deletes a loan, releasing its copy when the loan still
// held one. The deletion is logged since no audit row remains.
func (s *LibraryService) CancelLoan(ctx context.Context, sess domain.Session, id uuid.UUID) error {
	if !sess.IsAdmin() {
		return ErrForbidden
	}
	loan, err := s.repo.DeleteLoan(ctx, sess.TenantID, id)
	if err != nil {
		return err
	}
	s.logger.Info("loan cancelled and deleted",
		"loan_id", loan.ID, "book_id", loan.BookID, "member_id", loan.MemberID, "status", loan.Status)
	return nil
}
