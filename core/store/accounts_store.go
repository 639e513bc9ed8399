package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type AccountsStore interface {
	List(ctx context.Context) ([]Account, error)
	Get(ctx context.Context, name string) (*Account, error)
	Exists(ctx context.Context, name string) (bool, error)
	ListByIncidents(ctx context.Context, incidentNames []string) (map[string][]Account, error)
	Insert(ctx context.Context, a *Account) error
	Update(ctx context.Context, a *Account) error
	Delete(ctx context.Context, name string) error
}

type accountsStore struct {
	q        querier
	pg       bool
	contacts *contactsStore
}

func NewAccountsStore(db *sql.DB) AccountsStore {
	pg := isPostgresDB(db)
	return &accountsStore{q: db, pg: pg, contacts: &contactsStore{q: db, pg: pg}}
}

func (s *accountsStore) List(ctx context.Context) ([]Account, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT name, incident_name FROM accounts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	res, err := scanAccounts(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachContacts(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Get loads the account with its contacts, or nil when absent.
func (s *accountsStore) Get(ctx context.Context, name string) (*Account, error) {
	row := s.q.QueryRowContext(ctx, rebind(s.pg, `SELECT name, incident_name FROM accounts WHERE name=?`), name)
	var a Account
	var incident sql.NullString
	if err := row.Scan(&a.Name, &incident); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.IncidentName = stringPtr(incident)
	list := []Account{a}
	if err := s.attachContacts(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (s *accountsStore) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, rebind(s.pg, `SELECT COUNT(1) FROM accounts WHERE name=?`), name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *accountsStore) ListByIncidents(ctx context.Context, incidentNames []string) (map[string][]Account, error) {
	out := map[string][]Account{}
	if len(incidentNames) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(incidentNames))
	for _, name := range incidentNames {
		args = append(args, name)
	}
	query := fmt.Sprintf(`SELECT name, incident_name FROM accounts WHERE incident_name IN (%s) ORDER BY name`, placeholders(len(incidentNames)))
	rows, err := s.q.QueryContext(ctx, rebind(s.pg, query), args...)
	if err != nil {
		return nil, err
	}
	list, err := scanAccounts(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachContacts(ctx, list); err != nil {
		return nil, err
	}
	for _, a := range list {
		if a.IncidentName != nil {
			out[*a.IncidentName] = append(out[*a.IncidentName], a)
		}
	}
	return out, nil
}

func (s *accountsStore) Insert(ctx context.Context, a *Account) error {
	_, err := s.q.ExecContext(ctx, rebind(s.pg, `INSERT INTO accounts(name, incident_name) VALUES(?,?)`), a.Name, nullableString(a.IncidentName))
	if err != nil {
		return fmt.Errorf("insert account %s: %w", a.Name, err)
	}
	return nil
}

func (s *accountsStore) Update(ctx context.Context, a *Account) error {
	_, err := s.q.ExecContext(ctx, rebind(s.pg, `UPDATE accounts SET incident_name=? WHERE name=?`), nullableString(a.IncidentName), a.Name)
	if err != nil {
		return fmt.Errorf("update account %s: %w", a.Name, err)
	}
	return nil
}

func (s *accountsStore) Delete(ctx context.Context, name string) error {
	if _, err := s.q.ExecContext(ctx, rebind(s.pg, `DELETE FROM accounts WHERE name=?`), name); err != nil {
		return fmt.Errorf("delete account %s: %w", name, err)
	}
	return nil
}

func (s *accountsStore) attachContacts(ctx context.Context, accounts []Account) error {
	if len(accounts) == 0 {
		return nil
	}
	names := make([]string, 0, len(accounts))
	for _, a := range accounts {
		names = append(names, a.Name)
	}
	byAccount, err := s.contacts.ListByAccounts(ctx, names)
	if err != nil {
		return err
	}
	for i := range accounts {
		contacts := byAccount[accounts[i].Name]
		if contacts == nil {
			contacts = []Contact{}
		}
		accounts[i].Contacts = contacts
	}
	return nil
}

func scanAccounts(rows *sql.Rows) ([]Account, error) {
	defer rows.Close()
	res := []Account{}
	for rows.Next() {
		var a Account
		var incident sql.NullString
		if err := rows.Scan(&a.Name, &incident); err != nil {
			return nil, err
		}
		a.IncidentName = stringPtr(incident)
		res = append(res, a)
	}
	return res, rows.Err()
}
