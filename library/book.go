package library

import "strings"

// BookID is assigned by the store when a book is added and never changes.
type BookID int64

// Book is one catalog entry. Stock counts the copies currently on the shelf.
type Book struct {
	ID          BookID  `json:"bookId"`
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Press       string  `json:"press"`
	PublishYear int     `json:"publishYear"`
	Author      string  `json:"author"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

// NaturalKey identifies a book independently of its BookID. No two books share one.
type NaturalKey struct {
	Category    string
	Title       string
	Press       string
	PublishYear int
	Author      string
}

// NaturalKey returns the natural key of b.
func (b Book) NaturalKey() NaturalKey {
	return NaturalKey{
		Category:    b.Category,
		Title:       b.Title,
		Press:       b.Press,
		PublishYear: b.PublishYear,
		Author:      b.Author,
	}
}

// Validate checks the fields a caller may set when adding or modifying a book.
func (b Book) Validate() error {
	if strings.TrimSpace(b.Category) == "" ||
		strings.TrimSpace(b.Title) == "" ||
		strings.TrimSpace(b.Press) == "" ||
		strings.TrimSpace(b.Author) == "" {

		return ErrEmptyNaturalKeyField
	}

	if b.Price < 0 {
		return ErrNegativePrice
	}

	if b.Stock < 0 {
		return ErrNegativeInitialStock
	}

	return nil
}

// FindDuplicateNaturalKeys returns the index of the first book in books whose natural key was already
// used by an earlier book of the same slice, or -1 if all keys are distinct.
func FindDuplicateNaturalKeys(books []Book) int {
	seen := make(map[NaturalKey]struct{}, len(books))

	for i, book := range books {
		key := book.NaturalKey()
		if _, ok := seen[key]; ok {
			return i
		}

		seen[key] = struct{}{}
	}

	return -1
}
