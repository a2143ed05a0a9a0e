package library

import "time"

// Borrow records that a card took a copy of a book.
// (CardID, BookID, BorrowTime) identifies it. ReturnTime is zero while the borrow is open.
type Borrow struct {
	CardID     CardID    `json:"cardId"`
	BookID     BookID    `json:"bookId"`
	BorrowTime time.Time `json:"borrowTime"`
	ReturnTime time.Time `json:"returnTime"`
}

// IsOpen reports whether the copy has not been returned yet.
func (b Borrow) IsOpen() bool {
	return b.ReturnTime.IsZero()
}

// HistoryItem is a Borrow together with the catalog fields of its book at the time of reading.
type HistoryItem struct {
	Borrow
	Book Book `json:"book"`
}

// TimestampPrecision is the resolution timestamps are persisted with.
const TimestampPrecision = time.Millisecond

// ToMillis converts t to the persisted unix millisecond representation.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts a persisted unix millisecond value back to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
