/**
 * @description
 * Library queries: book catalog CRUD and the circulation transactions.
 *
 * Copy accounting never does read-then-write. Taking a copy out of the
 * pool is a single conditional decrement
 * (`SET available_copies = available_copies - 1 WHERE ... AND
 * available_copies > 0`) so two concurrent holds on the last copy cannot
 * both succeed, and the reservation-to-loan conversion locks the
 * reservation row with FOR UPDATE before checking expiry.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
)

const bookColumns = `id, tenant_id, title, author, isbn, category, publisher, cover_url, copies, available_copies, created_at, updated_at`

func scanBook(row pgx.Row) (*domain.Book, error) {
	var b domain.Book
	err := row.Scan(&b.ID, &b.TenantID, &b.Title, &b.Author, &b.ISBN, &b.Category,
		&b.Publisher, &b.CoverURL, &b.Copies, &b.AvailableCopies, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBook inserts a book with all copies available.
func (r *Repository) CreateBook(ctx context.Context, b *domain.Book) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO books (id, tenant_id, title, author, isbn, category, publisher, cover_url, copies, available_copies, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		b.ID, b.TenantID, b.Title, b.Author, b.ISBN, b.Category, b.Publisher, b.CoverURL,
		b.Copies, b.AvailableCopies, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// GetBook returns one book scoped to the tenant.
func (r *Repository) GetBook(ctx context.Context, tenantID, id uuid.UUID) (*domain.Book, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	b, err := scanBook(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// ListBooks returns the tenant's catalog ordered by title.
func (r *Repository) ListBooks(ctx context.Context, tenantID uuid.UUID) ([]domain.Book, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+bookColumns+` FROM books WHERE tenant_id = $1 ORDER BY title`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

// UpdateBook overwrites the catalog fields of a book. The total copy
// count may change; available_copies is adjusted by the same delta so
// outstanding holds are preserved, clamped at zero.
func (r *Repository) UpdateBook(ctx context.Context, tenantID, id uuid.UUID, in domain.BookInput) (*domain.Book, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE books
         SET title = $3, author = $4, isbn = $5, category = $6, publisher = $7, cover_url = $8,
             available_copies = GREATEST(0, available_copies + ($9 - copies)),
             copies = $9,
             updated_at = $10
         WHERE id = $1 AND tenant_id = $2
         RETURNING `+bookColumns,
		id, tenantID, in.Title, in.Author, in.ISBN, in.Category, in.Publisher, in.CoverURL,
		in.Copies, time.Now().UTC(),
	)
	b, err := scanBook(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("update book: %w", err)
	}
	return b, nil
}

// DeleteBook removes a book from the catalog.
func (r *Repository) DeleteBook(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM books WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}

// takeCopy atomically removes one copy from the available pool. It
// distinguishes "book missing" from "no copies left" so callers can map
// the right error.
func takeCopy(ctx context.Context, tx pgx.Tx, tenantID, bookID uuid.UUID) error {
	tag, err := tx.Exec(ctx,
		`UPDATE books
         SET available_copies = available_copies - 1, updated_at = NOW()
         WHERE id = $1 AND tenant_id = $2 AND available_copies > 0`,
		bookID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("decrement available copies: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM books WHERE id = $1 AND tenant_id = $2)`,
			bookID, tenantID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check book: %w", err)
		}
		if !exists {
			return ErrBookNotFound
		}
		return ErrBookUnavailable
	}
	return nil
}

// returnCopy puts one copy back into the available pool, capped at the
// total owned so a stray double-release can never exceed it.
func returnCopy(ctx context.Context, tx pgx.Tx, tenantID, bookID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE books
         SET available_copies = LEAST(copies, available_copies + 1), updated_at = NOW()
         WHERE id = $1 AND tenant_id = $2`,
		bookID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("increment available copies: %w", err)
	}
	return nil
}

// ── Reservations ────────────────────────────────────────────────────────

// CreateReservationHold takes one copy and inserts the active reservation
// in a single transaction, so a failure leaves neither side applied.
func (r *Repository) CreateReservationHold(ctx context.Context, res *domain.Reservation) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if err := takeCopy(ctx, tx, res.TenantID, res.BookID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO reservations (id, tenant_id, book_id, member_id, reservation_date, expires_at, status)
             VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			res.ID, res.TenantID, res.BookID, res.MemberID, res.ReservationDate, res.ExpiresAt, res.Status,
		)
		if err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		return nil
	})
}

// CancelReservation moves an active reservation to cancelled and releases
// its copy. The status flip is conditional, so cancelling twice (or
// cancelling a converted reservation) fails without touching the count.
func (r *Repository) CancelReservation(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		var bookID uuid.UUID
		err := tx.QueryRow(ctx,
			`UPDATE reservations SET status = $3
             WHERE id = $1 AND tenant_id = $2 AND status = $4
             RETURNING book_id`,
			id, tenantID, domain.ReservationStatusCancelled, domain.ReservationStatusActive,
		).Scan(&bookID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				var exists bool
				if err := tx.QueryRow(ctx,
					`SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1 AND tenant_id = $2)`,
					id, tenantID,
				).Scan(&exists); err != nil {
					return fmt.Errorf("check reservation: %w", err)
				}
				if !exists {
					return ErrReservationNotFound
				}
				return ErrReservationNotActive
			}
			return fmt.Errorf("cancel reservation: %w", err)
		}
		return returnCopy(ctx, tx, tenantID, bookID)
	})
}

// ConvertReservation turns an active, unexpired reservation into a loan.
// The reservation row is locked before the expiry check so a concurrent
// expiry sweep and a conversion cannot both win. The copy count is not
// touched: the hold moves from the reservation to the loan.
func (r *Repository) ConvertReservation(ctx context.Context, tenantID, id uuid.UUID, dueDate time.Time, now time.Time) (*domain.Loan, error) {
	loan := &domain.Loan{
		ID:         uuid.New(),
		TenantID:   tenantID,
		BorrowDate: now,
		DueDate:    dueDate,
		Status:     domain.LoanStatusActive,
	}
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		var status string
		var expiresAt time.Time
		err := tx.QueryRow(ctx,
			`SELECT book_id, member_id, status, expires_at
             FROM reservations
             WHERE id = $1 AND tenant_id = $2
             FOR UPDATE`,
			id, tenantID,
		).Scan(&loan.BookID, &loan.MemberID, &status, &expiresAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("lock reservation: %w", err)
		}
		if status != domain.ReservationStatusActive {
			return ErrReservationNotActive
		}
		if now.After(expiresAt) {
			return ErrReservationExpired
		}

		if _, err := tx.Exec(ctx,
			`UPDATE reservations SET status = $3 WHERE id = $1 AND tenant_id = $2`,
			id, tenantID, domain.ReservationStatusConverted,
		); err != nil {
			return fmt.Errorf("mark reservation converted: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO loans (id, tenant_id, book_id, member_id, borrow_date, due_date, status)
             VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			loan.ID, loan.TenantID, loan.BookID, loan.MemberID, loan.BorrowDate, loan.DueDate, loan.Status,
		); err != nil {
			return fmt.Errorf("insert loan: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ListReservations returns all reservations for the tenant with display
// fields, newest first.
func (r *Repository) ListReservations(ctx context.Context, tenantID uuid.UUID) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT res.id, res.tenant_id, res.book_id, res.member_id,
                res.reservation_date, res.expires_at, res.status,
                b.title, m.name
         FROM reservations res
         JOIN books b ON b.id = res.book_id
         JOIN members m ON m.id = res.member_id
         WHERE res.tenant_id = $1
         ORDER BY res.reservation_date DESC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.TenantID, &res.BookID, &res.MemberID,
			&res.ReservationDate, &res.ExpiresAt, &res.Status,
			&res.BookTitle, &res.MemberName); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

// ExpireReservations moves every active reservation past its expiry to
// expired and releases the held copies, across all tenants. Returns the
// transitioned rows so the caller can publish events.
func (r *Repository) ExpireReservations(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	var expired []domain.Reservation
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`UPDATE reservations SET status = $1
             WHERE status = $2 AND expires_at < $3
             RETURNING id, tenant_id, book_id, member_id, reservation_date, expires_at, status`,
			domain.ReservationStatusExpired, domain.ReservationStatusActive, now,
		)
		if err != nil {
			return fmt.Errorf("expire reservations: %w", err)
		}
		for rows.Next() {
			var res domain.Reservation
			if err := rows.Scan(&res.ID, &res.TenantID, &res.BookID, &res.MemberID,
				&res.ReservationDate, &res.ExpiresAt, &res.Status); err != nil {
				rows.Close()
				return fmt.Errorf("scan expired reservation: %w", err)
			}
			expired = append(expired, res)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, res := range expired {
			if err := returnCopy(ctx, tx, res.TenantID, res.BookID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

// ── Loans ───────────────────────────────────────────────────────────────

// CreateLoanWithHold takes one copy and inserts the active loan in a
// single transaction. Direct loans go through the same atomic decrement
// as reservations; availability is never checked at a different layer.
func (r *Repository) CreateLoanWithHold(ctx context.Context, loan *domain.Loan) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if err := takeCopy(ctx, tx, loan.TenantID, loan.BookID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO loans (id, tenant_id, book_id, member_id, borrow_date, due_date, status)
             VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			loan.ID, loan.TenantID, loan.BookID, loan.MemberID, loan.BorrowDate, loan.DueDate, loan.Status,
		)
		if err != nil {
			return fmt.Errorf("insert loan: %w", err)
		}
		return nil
	})
}

// ListLoans returns all loans for the tenant with display fields, newest
// first. Listing never mutates; overdue promotion belongs to the sweep.
func (r *Repository) ListLoans(ctx context.Context, tenantID uuid.UUID) ([]domain.Loan, error) {
	rows, err := r.db.Query(ctx,
		`SELECT l.id, l.tenant_id, l.book_id, l.member_id,
                l.borrow_date, l.due_date, l.return_date, l.status,
                b.title, m.name
         FROM loans l
         JOIN books b ON b.id = l.book_id
         JOIN members m ON m.id = l.member_id
         WHERE l.tenant_id = $1
         ORDER BY l.borrow_date DESC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		var l domain.Loan
		if err := rows.Scan(&l.ID, &l.TenantID, &l.BookID, &l.MemberID,
			&l.BorrowDate, &l.DueDate, &l.ReturnDate, &l.Status,
			&l.BookTitle, &l.MemberName); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

// loanReturnConflict maps the status of a loan that refused the return
// transition to a sentinel. Only an already-returned loan gets
// ErrLoanAlreadyReturned; anything else (such as a legacy reserved row)
// is an invalid transition.
func loanReturnConflict(status string) error {
	if status == domain.LoanStatusReturned {
		return ErrLoanAlreadyReturned
	}
	return ErrInvalidTransition
}

// ReturnLoan moves an active or overdue loan to returned, stamps the
// return date, and releases the copy. The conditional status list makes a
// second return fail with ErrLoanAlreadyReturned instead of incrementing
// the pool twice.
func (r *Repository) ReturnLoan(ctx context.Context, tenantID, id uuid.UUID, returnDate time.Time) (*domain.Loan, error) {
	var loan domain.Loan
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE loans SET status = $3, return_date = $4
             WHERE id = $1 AND tenant_id = $2 AND status IN ($5, $6)
             RETURNING id, tenant_id, book_id, member_id, borrow_date, due_date, return_date, status`,
			id, tenantID, domain.LoanStatusReturned, returnDate,
			domain.LoanStatusActive, domain.LoanStatusOverdue,
		).Scan(&loan.ID, &loan.TenantID, &loan.BookID, &loan.MemberID,
			&loan.BorrowDate, &loan.DueDate, &loan.ReturnDate, &loan.Status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				var status string
				if err := tx.QueryRow(ctx,
					`SELECT status FROM loans WHERE id = $1 AND tenant_id = $2`,
					id, tenantID,
				).Scan(&status); err != nil {
					if errors.Is(err, pgx.ErrNoRows) {
						return ErrLoanNotFound
					}
					return fmt.Errorf("check loan: %w", err)
				}
				return loanReturnConflict(status)
			}
			return fmt.Errorf("return loan: %w", err)
		}
		return returnCopy(ctx, tx, tenantID, loan.BookID)
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// DeleteLoan hard-deletes a loan row. When the loan still held a copy out
// of the pool (any status except returned) the copy is released in the
// same transaction, so cancellation cannot leak availability.
func (r *Repository) DeleteLoan(ctx context.Context, tenantID, id uuid.UUID) (*domain.Loan, error) {
	var loan domain.Loan
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`DELETE FROM loans WHERE id = $1 AND tenant_id = $2
             RETURNING id, tenant_id, book_id, member_id, borrow_date, due_date, return_date, status`,
			id, tenantID,
		).Scan(&loan.ID, &loan.TenantID, &loan.BookID, &loan.MemberID,
			&loan.BorrowDate, &loan.DueDate, &loan.ReturnDate, &loan.Status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrLoanNotFound
			}
			return fmt.Errorf("delete loan: %w", err)
		}
		if loan.Status != domain.LoanStatusReturned {
			return returnCopy(ctx, tx, tenantID, loan.BookID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// MarkOverdueLoans durably transitions every active loan past its due
// date to overdue, across all tenants, in one set-based statement.
// Returns the transitioned rows so the caller can publish events.
func (r *Repository) MarkOverdueLoans(ctx context.Context, now time.Time) ([]domain.Loan, error) {
	rows, err := r.db.Query(ctx,
		`UPDATE loans SET status = $1
         WHERE status = $2 AND due_date < $3
         RETURNING id, tenant_id, book_id, member_id, borrow_date, due_date, return_date, status`,
		domain.LoanStatusOverdue, domain.LoanStatusActive, now,
	)
	if err != nil {
		return nil, fmt.Errorf("mark overdue loans: %w", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		var l domain.Loan
		if err := rows.Scan(&l.ID, &l.TenantID, &l.BookID, &l.MemberID,
			&l.BorrowDate, &l.DueDate, &l.ReturnDate, &l.Status); err != nil {
			return nil, fmt.Errorf("scan overdue loan: %w", err)
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}
