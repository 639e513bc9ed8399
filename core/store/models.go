package store

import (
	"context"
	"database/sql"
)

// Account is keyed by its name. Contacts is the back-reference populated on load.
type Account struct {
	Name         string    `json:"name"`
	IncidentName *string   `json:"incidentName"`
	Contacts     []Contact `json:"contacts"`
}

// Contact is keyed by its email. A nil AccountName means unaffiliated.
type Contact struct {
	Email       string  `json:"email"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	AccountName *string `json:"accountName"`
}

// Incident names are generated by the server at creation time.
type Incident struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Accounts    []Account `json:"accounts"`
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SameAccountRef reports whether two optional references point at the same name.
func SameAccountRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
