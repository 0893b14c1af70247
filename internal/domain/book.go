/**
 * @description
 * Book catalog models. A book row tracks the total number of copies the
 * library owns and how many are currently loanable; reservations and
 * loans move copies out of the available pool and back in.
 *
 * @notes
 * - The invariant 0 <= available_copies <= copies is enforced at the
 *   store boundary with conditional updates, never by read-then-write.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Book represents a title in a tenant's lending library.
type Book struct {
	ID              uuid.UUID `json:"id"`
	TenantID        uuid.UUID `json:"tenant_id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn,omitempty"`
	Category        string    `json:"category,omitempty"`
	Publisher       string    `json:"publisher,omitempty"`
	CoverURL        string    `json:"cover_url,omitempty"`
	Copies          int       `json:"copies"`
	AvailableCopies int       `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsAvailable reports whether at least one copy can be reserved or loaned.
func (b *Book) IsAvailable() bool {
	return b.AvailableCopies > 0
}

// BookInput is the DTO for creating or updating a book.
type BookInput struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn"`
	Category  string `json:"category"`
	Publisher string `json:"publisher"`
	CoverURL  string `json:"cover_url"`
	Copies    int    `json:"copies"`
}
