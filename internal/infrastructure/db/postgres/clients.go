package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

const (
	selectClient = `SELECT id, company_name, first_name, last_name, COALESCE(email, ''), phone, mobile, sales_contact_id, created_at, updated_at FROM clients`

	insertClient = `INSERT INTO clients (id, company_name, first_name, last_name, email, phone, mobile, sales_contact_id, created_at, updated_at) VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10)`

	updateClient = `UPDATE clients SET company_name = $2, first_name = $3, last_name = $4, email = NULLIF($5, ''), phone = $6, mobile = $7, sales_contact_id = $8, updated_at = $9 WHERE id = $1`

	deleteClient = `DELETE FROM clients WHERE id = $1`

	noSignedContract = `NOT EXISTS (SELECT 1 FROM contracts k WHERE k.client_id = clients.id AND k.status = 'signed')`
)

// ClientRepository implements ports.ClientRepository. Contracts and events
// follow a deleted client through ON DELETE CASCADE.
type ClientRepository struct {
	db *DB
}

func scanClient(row pgx.Row) (*domain.Client, error) {
	var c domain.Client
	err := row.Scan(&c.ID, &c.CompanyName, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Mobile,
		&c.SalesContactID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) Get(ctx context.Context, id string) (*domain.Client, error) {
	c, err := scanClient(r.db.conn(ctx).QueryRow(ctx, forUpdate(ctx, selectClient+` WHERE id = $1`), id))
	if err != nil {
		return nil, mapErr("get client", err)
	}
	return c, nil
}

func (r *ClientRepository) List(ctx context.Context, f ports.ClientFilter) ([]*domain.Client, error) {
	query, args := clientQuery(f)
	rows, err := r.db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list clients", err)
	}
	clients, err := collect(rows, scanClient)
	return clients, mapErr("scan clients", err)
}

func clientQuery(f ports.ClientFilter) (string, []any) {
	var w where
	if f.Unassigned {
		w.raw("sales_contact_id IS NULL")
	}
	if f.SalesContactID != "" {
		w.eq("sales_contact_id", f.SalesContactID)
	}
	if f.WithoutSignedContract {
		w.raw(noSignedContract)
	}
	return selectClient + w.String() + ` ORDER BY created_at, id`, w.args
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	c := *client
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.conn(ctx).Exec(ctx, insertClient,
		c.ID, c.CompanyName, c.FirstName, c.LastName, c.Email, c.Phone, c.Mobile,
		c.SalesContactID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, mapErr("insert client", err)
	}
	return &c, nil
}

func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	tag, err := r.db.conn(ctx).Exec(ctx, updateClient,
		client.ID, client.CompanyName, client.FirstName, client.LastName, client.Email, client.Phone, client.Mobile,
		client.SalesContactID, client.UpdatedAt)
	if err != nil {
		return nil, mapErr("update client", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, mapErr("update client", pgx.ErrNoRows)
	}
	c := *client
	return &c, nil
}

func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, deleteClient, id)
	if err != nil {
		return mapErr("delete client", err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr("delete client", pgx.ErrNoRows)
	}
	return nil
}
