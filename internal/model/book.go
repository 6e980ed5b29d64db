package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book is a title in the school catalog together with its copy counters.
// AvailableCopies is derived state: it must stay between 0 and TotalCopies
// and is only ever mutated by circulation transitions.
type Book struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	ISBN            string          `json:"isbn,omitempty"`
	Category        string          `json:"category"`
	Price           decimal.Decimal `json:"price"`
	TotalCopies     int             `json:"total_copies"`
	AvailableCopies int             `json:"available_copies"`
	CreatedAt       time.Time       `json:"created_at"`
}
