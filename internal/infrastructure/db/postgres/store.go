package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/epicevents/crm/internal/core/ports"
)

// querier is implemented by both the pool and an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// Store implements ports.Store on PostgreSQL. Reads issued inside WithinTx take
// row locks so the rules engine sees rows that cannot change under it.
type Store struct {
	db *DB

	users     *UserRepository
	clients   *ClientRepository
	contracts *ContractRepository
	events    *EventRepository
	audit     *AuditRepository
}

var _ ports.Store = (*Store)(nil)

func NewStore(db *DB) *Store {
	return &Store{
		db:        db,
		users:     &UserRepository{db: db},
		clients:   &ClientRepository{db: db},
		contracts: &ContractRepository{db: db},
		events:    &EventRepository{db: db},
		audit:     &AuditRepository{db: db},
	}
}

func (s *Store) Users() ports.UserRepository         { return s.users }
func (s *Store) Clients() ports.ClientRepository     { return s.clients }
func (s *Store) Contracts() ports.ContractRepository { return s.contracts }
func (s *Store) Events() ports.EventRepository       { return s.events }
func (s *Store) Audit() ports.AuditRepository        { return s.audit }

// WithinTx runs fn in a transaction, committing when fn succeeds. A context
// that already carries a transaction joins it.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapErr("begin tx", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = mapErr("commit tx", e)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}

func (s *Store) Ping(ctx context.Context) error {
	return mapErr("ping", s.db.Pool.Ping(ctx))
}

func (s *Store) Close(context.Context) error {
	s.db.Pool.Close()
	return nil
}

// conn returns the transaction carried by ctx, or the pool.
func (db *DB) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db.Pool
}

// forUpdate appends a row lock to single-row reads issued inside a transaction.
func forUpdate(ctx context.Context, query string) string {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return query + " FOR UPDATE"
	}
	return query
}

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

// eq adds "col = $n".
func (w *where) eq(col string, v any) {
	w.args = append(w.args, v)
	w.conds = append(w.conds, fmt.Sprintf("%s = $%d", col, len(w.args)))
}

// cmp adds "col op $n".
func (w *where) cmp(col, op string, v any) {
	w.args = append(w.args, v)
	w.conds = append(w.conds, fmt.Sprintf("%s %s $%d", col, op, len(w.args)))
}

func (w *where) raw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// collect scans every row with scan.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()

	out := []*T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
