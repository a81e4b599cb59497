package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

const (
	selectContract = `SELECT id, client_id, sales_contact_id, amount, status, payment_due, created_at, updated_at FROM contracts`

	insertContract = `INSERT INTO contracts (id, client_id, sales_contact_id, amount, status, payment_due, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	updateContract = `UPDATE contracts SET sales_contact_id = $2, amount = $3, status = $4, payment_due = $5, updated_at = $6 WHERE id = $1`

	deleteContract = `DELETE FROM contracts WHERE id = $1`

	reassignContracts = `UPDATE contracts SET sales_contact_id = $2, updated_at = $3 WHERE client_id = $1 AND sales_contact_id <> $2`
)

// ContractRepository implements ports.ContractRepository. The client of a
// contract is never rewritten by Update.
type ContractRepository struct {
	db *DB
}

func scanContract(row pgx.Row) (*domain.Contract, error) {
	var k domain.Contract
	var status string
	err := row.Scan(&k.ID, &k.ClientID, &k.SalesContactID, &k.Amount, &status, &k.PaymentDue, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		return nil, err
	}
	k.Status = domain.ContractStatus(status)
	return &k, nil
}

func (r *ContractRepository) Get(ctx context.Context, id string) (*domain.Contract, error) {
	k, err := scanContract(r.db.conn(ctx).QueryRow(ctx, forUpdate(ctx, selectContract+` WHERE id = $1`), id))
	if err != nil {
		return nil, mapErr("get contract", err)
	}
	return k, nil
}

func (r *ContractRepository) List(ctx context.Context, f ports.ContractFilter) ([]*domain.Contract, error) {
	query, args := contractQuery(f)
	rows, err := r.db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list contracts", err)
	}
	contracts, err := collect(rows, scanContract)
	return contracts, mapErr("scan contracts", err)
}

func contractQuery(f ports.ContractFilter) (string, []any) {
	var w where
	if f.ClientID != "" {
		w.eq("client_id", f.ClientID)
	}
	if f.SalesContactID != "" {
		w.eq("sales_contact_id", f.SalesContactID)
	}
	if f.Status != "" {
		w.eq("status", string(f.Status))
	}
	return selectContract + w.String() + ` ORDER BY created_at, id`, w.args
}

// Create inserts the contract; a missing client surfaces as ErrNotFound
// through the foreign key.
func (r *ContractRepository) Create(ctx context.Context, contract *domain.Contract) (*domain.Contract, error) {
	k := *contract
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	_, err := r.db.conn(ctx).Exec(ctx, insertContract,
		k.ID, k.ClientID, k.SalesContactID, k.Amount, string(k.Status), k.PaymentDue, k.CreatedAt, k.UpdatedAt)
	if err != nil {
		return nil, mapErr("insert contract", err)
	}
	return &k, nil
}

func (r *ContractRepository) Update(ctx context.Context, contract *domain.Contract) (*domain.Contract, error) {
	tag, err := r.db.conn(ctx).Exec(ctx, updateContract,
		contract.ID, contract.SalesContactID, contract.Amount, string(contract.Status), contract.PaymentDue, contract.UpdatedAt)
	if err != nil {
		return nil, mapErr("update contract", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, mapErr("update contract", pgx.ErrNoRows)
	}
	k := *contract
	return &k, nil
}

func (r *ContractRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, deleteContract, id)
	if err != nil {
		return mapErr("delete contract", err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr("delete contract", pgx.ErrNoRows)
	}
	return nil
}

func (r *ContractRepository) ReassignSalesContact(ctx context.Context, clientID, salesContactID string, at time.Time) (int64, error) {
	tag, err := r.db.conn(ctx).Exec(ctx, reassignContracts, clientID, salesContactID, at)
	if err != nil {
		return 0, mapErr("reassign contracts", err)
	}
	return tag.RowsAffected(), nil
}
