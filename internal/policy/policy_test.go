package policy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDaysLate(t *testing.T) {
	tests := []struct {
		name       string
		dueDate    time.Time
		returnDate time.Time
		want       int
	}{
		{
			name:       "returned before due date",
			dueDate:    date("2024-01-10T00:00:00Z"),
			returnDate: date("2024-01-05T00:00:00Z"),
			want:       0,
		},
		{
			name:       "returned exactly at due date",
			dueDate:    date("2024-01-10T00:00:00Z"),
			returnDate: date("2024-01-10T00:00:00Z"),
			want:       0,
		},
		{
			name:       "one hour late counts as one day",
			dueDate:    date("2024-01-10T00:00:00Z"),
			returnDate: date("2024-01-10T01:00:00Z"),
			want:       1,
		},
		{
			name:       "exactly five days late",
			dueDate:    date("2024-01-01T00:00:00Z"),
			returnDate: date("2024-01-06T00:00:00Z"),
			want:       5,
		},
		{
			name:       "five days and a minute rounds up to six",
			dueDate:    date("2024-01-01T00:00:00Z"),
			returnDate: date("2024-01-06T00:01:00Z"),
			want:       6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysLate(tt.dueDate, tt.returnDate))
		})
	}
}

func TestLateFine(t *testing.T) {
	perDay := decimal.NewFromInt(5)

	t.Run("five days late at 5 per day is 25", func(t *testing.T) {
		fine := LateFine(date("2024-01-01T00:00:00Z"), date("2024-01-06T00:00:00Z"), perDay)
		assert.True(t, fine.Equal(decimal.NewFromInt(25)), "got %s", fine)
	})

	t.Run("on-time return has zero fine", func(t *testing.T) {
		due := date("2024-01-01T00:00:00Z")
		fine := LateFine(due, due, perDay)
		assert.True(t, fine.IsZero(), "got %s", fine)
	})

	t.Run("early return has zero fine", func(t *testing.T) {
		fine := LateFine(date("2024-01-10T00:00:00Z"), date("2024-01-02T00:00:00Z"), perDay)
		assert.True(t, fine.IsZero(), "got %s", fine)
	})

	t.Run("ten days late is 50", func(t *testing.T) {
		fine := LateFine(date("2024-03-14T00:00:00Z"), date("2024-03-24T00:00:00Z"), perDay)
		assert.True(t, fine.Equal(decimal.NewFromInt(50)), "got %s", fine)
	})
}

func TestLostBookFine(t *testing.T) {
	fine := LostBookFine(decimal.NewFromInt(500), decimal.NewFromInt(100))
	assert.True(t, fine.Equal(decimal.NewFromInt(600)), "got %s", fine)

	fine = LostBookFine(decimal.NewFromInt(250), decimal.NewFromInt(100))
	assert.True(t, fine.Equal(decimal.NewFromInt(350)), "got %s", fine)
}

func TestIsOverdue(t *testing.T) {
	due := date("2024-01-10T00:00:00Z")

	assert.False(t, IsOverdue(date("2024-01-09T23:59:59Z"), due))
	assert.False(t, IsOverdue(due, due))
	assert.True(t, IsOverdue(date("2024-01-10T00:00:01Z"), due))
}

func TestValidDuration(t *testing.T) {
	assert.False(t, ValidDuration(0))
	assert.True(t, ValidDuration(1))
	assert.True(t, ValidDuration(14))
	assert.True(t, ValidDuration(30))
	assert.False(t, ValidDuration(31))
	assert.False(t, ValidDuration(-7))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.PerDayRate.Equal(decimal.NewFromInt(5)))
	assert.True(t, cfg.ProcessingFee.Equal(decimal.NewFromInt(100)))
	assert.True(t, cfg.ReplacementCost.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 14, cfg.LoanDurationDays)
	assert.Equal(t, 3, cfg.BorrowWarnThreshold)
}
