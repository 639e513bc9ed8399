package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
)

type IncidentsStore interface {
	List(ctx context.Context) ([]Incident, error)
	Get(ctx context.Context, name string) (*Incident, error)
	Insert(ctx context.Context, inc *Incident) error
	Update(ctx context.Context, inc *Incident) error
	Delete(ctx context.Context, name string) error
}

type incidentsStore struct {
	q        querier
	pg       bool
	accounts *accountsStore
}

func NewIncidentsStore(db *sql.DB) IncidentsStore {
	pg := isPostgresDB(db)
	return &incidentsStore{q: db, pg: pg, accounts: &accountsStore{q: db, pg: pg, contacts: &contactsStore{q: db, pg: pg}}}
}

// NewIncidentName returns a fresh server-side identity for an incident.
func NewIncidentName() string {
	return uuid.Must(uuid.NewV4()).String()
}

func (s *incidentsStore) List(ctx context.Context) ([]Incident, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT name, description FROM incidents ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []Incident{}
	for rows.Next() {
		var inc Incident
		if err := rows.Scan(&inc.Name, &inc.Description); err != nil {
			return nil, err
		}
		res = append(res, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachAccounts(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *incidentsStore) Get(ctx context.Context, name string) (*Incident, error) {
	var inc Incident
	row := s.q.QueryRowContext(ctx, rebind(s.pg, `SELECT name, description FROM incidents WHERE name=?`), name)
	if err := row.Scan(&inc.Name, &inc.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	list := []Incident{inc}
	if err := s.attachAccounts(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// Insert assigns a generated name when the incident has none.
func (s *incidentsStore) Insert(ctx context.Context, inc *Incident) error {
	if inc.Name == "" {
		inc.Name = NewIncidentName()
	}
	_, err := s.q.ExecContext(ctx, rebind(s.pg, `INSERT INTO incidents(name, description) VALUES(?,?)`), inc.Name, inc.Description)
	if err != nil {
		return fmt.Errorf("insert incident %s: %w", inc.Name, err)
	}
	return nil
}

func (s *incidentsStore) Update(ctx context.Context, inc *Incident) error {
	_, err := s.q.ExecContext(ctx, rebind(s.pg, `UPDATE incidents SET description=? WHERE name=?`), inc.Description, inc.Name)
	if err != nil {
		return fmt.Errorf("update incident %s: %w", inc.Name, err)
	}
	return nil
}

func (s *incidentsStore) Delete(ctx context.Context, name string) error {
	if _, err := s.q.ExecContext(ctx, rebind(s.pg, `DELETE FROM incidents WHERE name=?`), name); err != nil {
		return fmt.Errorf("delete incident %s: %w", name, err)
	}
	return nil
}

func (s *incidentsStore) attachAccounts(ctx context.Context, incidents []Incident) error {
	if len(incidents) == 0 {
		return nil
	}
	names := make([]string, 0, len(incidents))
	for _, inc := range incidents {
		names = append(names, inc.Name)
	}
	byIncident, err := s.accounts.ListByIncidents(ctx, names)
	if err != nil {
		return err
	}
	for i := range incidents {
		accounts := byIncident[incidents[i].Name]
		if accounts == nil {
			accounts = []Account{}
		}
		incidents[i].Accounts = accounts
	}
	return nil
}
