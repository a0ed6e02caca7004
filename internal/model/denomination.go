package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Denomination is one supported bill face value for a currency. The set is
// configuration, seeded at startup and served to the client for the counting
// form; the close operation validates submitted counts against it.
type Denomination struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Currency string    `gorm:"type:varchar(3);not null;uniqueIndex:idx_denom_currency_value"`
	Value    int       `gorm:"not null;uniqueIndex:idx_denom_currency_value"`
	Label    string    `gorm:"not null"`
	// Position orders the counting form, largest bill first.
	Position int  `gorm:"not null"`
	Active   bool `gorm:"not null;default:true"`
}

// DefaultMXNDenominations is the seed set for Mexican peso bills.
func DefaultMXNDenominations() []Denomination {
	values := []int{1000, 500, 200, 100, 50, 20}
	denoms := make([]Denomination, 0, len(values))
	for i, v := range values {
		denoms = append(denoms, Denomination{
			Currency: "MXN",
			Value:    v,
			Label:    fmt.Sprintf("$%d", v),
			Position: i + 1,
			Active:   true,
		})
	}
	return denoms
}
