package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient represents a patient directory entry for data transfer between layers.
type Patient struct {
	ID         uuid.UUID  `json:"id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	NationalID string     `json:"national_id,omitempty"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// FullName joins first and last name with a single space.
func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
