package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrSessionClosed = errors.New("store: session closed")

// Store hands out per-request sessions over a shared connection pool.
type Store struct {
	db *sql.DB
	pg bool
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, pg: isPostgresDB(db)}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Session is the unit of work for one request. Reads go through the tx-scoped
// entity stores; writes are staged and flushed together by SaveChanges.
type Session struct {
	tx        *sql.Tx
	Accounts  AccountsStore
	Contacts  ContactsStore
	Incidents IncidentsStore

	accounts  *accountsStore
	contacts  *contactsStore
	incidents *incidentsStore
	pending   []stagedOp
	done      bool
}

type stagedOp struct {
	desc string
	run  func(ctx context.Context) error
}

func (s *Store) Begin(ctx context.Context) (*Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}
	contacts := &contactsStore{q: tx, pg: s.pg}
	accounts := &accountsStore{q: tx, pg: s.pg, contacts: contacts}
	incidents := &incidentsStore{q: tx, pg: s.pg, accounts: accounts}
	return &Session{
		tx:        tx,
		Accounts:  accounts,
		Contacts:  contacts,
		Incidents: incidents,
		accounts:  accounts,
		contacts:  contacts,
		incidents: incidents,
	}, nil
}

func (s *Session) GetAccount(ctx context.Context, name string) (*Account, error) {
	return s.accounts.Get(ctx, name)
}

func (s *Session) GetContact(ctx context.Context, email string) (*Contact, error) {
	return s.contacts.Get(ctx, email)
}

func (s *Session) GetIncident(ctx context.Context, name string) (*Incident, error) {
	return s.incidents.Get(ctx, name)
}

func (s *Session) stage(desc string, fn func(ctx context.Context) error) {
	s.pending = append(s.pending, stagedOp{desc: desc, run: fn})
}

func (s *Session) AddAccount(a Account) {
	s.stage("insert account "+a.Name, func(ctx context.Context) error { return s.accounts.Insert(ctx, &a) })
}

func (s *Session) UpdateAccount(a Account) {
	s.stage("update account "+a.Name, func(ctx context.Context) error { return s.accounts.Update(ctx, &a) })
}

func (s *Session) RemoveAccount(name string) {
	s.stage("delete account "+name, func(ctx context.Context) error { return s.accounts.Delete(ctx, name) })
}

func (s *Session) AddContact(c Contact) {
	s.stage("insert contact "+c.Email, func(ctx context.Context) error { return s.contacts.Insert(ctx, &c) })
}

func (s *Session) UpdateContact(c Contact) {
	s.stage("update contact "+c.Email, func(ctx context.Context) error { return s.contacts.Update(ctx, &c) })
}

func (s *Session) RemoveContact(email string) {
	s.stage("delete contact "+email, func(ctx context.Context) error { return s.contacts.Delete(ctx, email) })
}

// AddIncident stages the insert and returns the incident with its generated name,
// so later staged mutations can reference it.
func (s *Session) AddIncident(inc Incident) Incident {
	if inc.Name == "" {
		inc.Name = NewIncidentName()
	}
	s.stage("insert incident "+inc.Name, func(ctx context.Context) error { return s.incidents.Insert(ctx, &inc) })
	return inc
}

func (s *Session) UpdateIncident(inc Incident) {
	s.stage("update incident "+inc.Name, func(ctx context.Context) error { return s.incidents.Update(ctx, &inc) })
}

func (s *Session) RemoveIncident(name string) {
	s.stage("delete incident "+name, func(ctx context.Context) error { return s.incidents.Delete(ctx, name) })
}

// Pending returns the number of staged, unflushed mutations.
func (s *Session) Pending() int {
	return len(s.pending)
}

// SaveChanges flushes staged mutations in order. The first failure aborts the session.
func (s *Session) SaveChanges(ctx context.Context) error {
	if s.done {
		return ErrSessionClosed
	}
	ops := s.pending
	s.pending = nil
	for _, op := range ops {
		if err := op.run(ctx); err != nil {
			_ = s.rollback()
			return fmt.Errorf("save changes (%s): %w", op.desc, err)
		}
	}
	return nil
}

func (s *Session) Commit() error {
	if s.done {
		return ErrSessionClosed
	}
	if len(s.pending) > 0 {
		_ = s.rollback()
		return fmt.Errorf("commit with %d unsaved changes", len(s.pending))
	}
	s.done = true
	return s.tx.Commit()
}

// Close rolls back anything not committed. Safe to call more than once.
func (s *Session) Close() error {
	if s.done {
		return nil
	}
	return s.rollback()
}

func (s *Session) rollback() error {
	s.done = true
	s.pending = nil
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
