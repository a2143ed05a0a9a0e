package library

import "strings"

// CardID is assigned by the store when a card is registered.
type CardID int64

// CardType is persisted by name.
type CardType string

const (
	CardTypeStudent CardType = "Student"
	CardTypeTeacher CardType = "Teacher"
)

// ParseCardType accepts the persisted names and their single-letter abbreviations, case-insensitive.
func ParseCardType(s string) (CardType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student", "s":
		return CardTypeStudent, nil
	case "teacher", "t":
		return CardTypeTeacher, nil
	default:
		return "", ErrUnknownCardType
	}
}

func (t CardType) IsValid() bool {
	return t == CardTypeStudent || t == CardTypeTeacher
}

func (t CardType) String() string {
	return string(t)
}

// Card is a library membership card.
type Card struct {
	ID         CardID   `json:"cardId"`
	Name       string   `json:"name"`
	Department string   `json:"department"`
	Type       CardType `json:"type"`
}

// Validate checks the fields a caller may set when registering or modifying a card.
func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCardName
	}

	if !c.Type.IsValid() {
		return ErrUnknownCardType
	}

	return nil
}
