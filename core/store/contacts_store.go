package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type ContactsStore interface {
	List(ctx context.Context) ([]Contact, error)
	Get(ctx context.Context, email string) (*Contact, error)
	Exists(ctx context.Context, email string) (bool, error)
	ListByAccounts(ctx context.Context, accountNames []string) (map[string][]Contact, error)
	Insert(ctx context.Context, c *Contact) error
	Update(ctx context.Context, c *Contact) error
	Delete(ctx context.Context, email string) error
}

type contactsStore struct {
	q  querier
	pg bool
}

func NewContactsStore(db *sql.DB) ContactsStore {
	return &contactsStore{q: db, pg: isPostgresDB(db)}
}

func (s *contactsStore) List(ctx context.Context) ([]Contact, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT email, first_name, last_name, account_name FROM contacts ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []Contact{}
	for rows.Next() {
		c, err := scanContactRow(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *contactsStore) Get(ctx context.Context, email string) (*Contact, error) {
	row := s.q.QueryRowContext(ctx, rebind(s.pg, `SELECT email, first_name, last_name, account_name FROM contacts WHERE email=?`), email)
	var c Contact
	var account sql.NullString
	if err := row.Scan(&c.Email, &c.FirstName, &c.LastName, &account); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.AccountName = stringPtr(account)
	return &c, nil
}

func (s *contactsStore) Exists(ctx context.Context, email string) (bool, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, rebind(s.pg, `SELECT COUNT(1) FROM contacts WHERE email=?`), email).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByAccounts groups the contacts of the given accounts by account name.
func (s *contactsStore) ListByAccounts(ctx context.Context, accountNames []string) (map[string][]Contact, error) {
	out := map[string][]Contact{}
	if len(accountNames) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(accountNames))
	for _, name := range accountNames {
		args = append(args, name)
	}
	query := fmt.Sprintf(`SELECT email, first_name, last_name, account_name FROM contacts WHERE account_name IN (%s) ORDER BY email`, placeholders(len(accountNames)))
	rows, err := s.q.QueryContext(ctx, rebind(s.pg, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanContactRow(rows)
		if err != nil {
			return nil, err
		}
		if c.AccountName != nil {
			out[*c.AccountName] = append(out[*c.AccountName], c)
		}
	}
	return out, rows.Err()
}

func (s *contactsStore) Insert(ctx context.Context, c *Contact) error {
	_, err := s.q.ExecContext(ctx, rebind(s.pg, `
		INSERT INTO contacts(email, first_name, last_name, account_name)
		VALUES(?,?,?,?)`), c.Email, c.FirstName, c.LastName, nullableString(c.AccountName))
	if err != nil {
		return fmt.Errorf("insert contact %s: %w", c.Email, err)
	}
	return nil
}

func (s *contactsStore) Update(ctx context.Context, c *Contact) error {
	_, err := s.q.ExecContext(ctx, rebind(s.pg, `
		UPDATE contacts SET first_name=?, last_name=?, account_name=?
		WHERE email=?`), c.FirstName, c.LastName, nullableString(c.AccountName), c.Email)
	if err != nil {
		return fmt.Errorf("update contact %s: %w", c.Email, err)
	}
	return nil
}

func (s *contactsStore) Delete(ctx context.Context, email string) error {
	if _, err := s.q.ExecContext(ctx, rebind(s.pg, `DELETE FROM contacts WHERE email=?`), email); err != nil {
		return fmt.Errorf("delete contact %s: %w", email, err)
	}
	return nil
}

func scanContactRow(rows *sql.Rows) (Contact, error) {
	var c Contact
	var account sql.NullString
	if err := rows.Scan(&c.Email, &c.FirstName, &c.LastName, &account); err != nil {
		return c, err
	}
	c.AccountName = stringPtr(account)
	return c, nil
}
