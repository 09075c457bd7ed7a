package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"maplecase/pkg/domain"
	"maplecase/pkg/platform/sentinel"
)

// PostgresStore persists tenants in the tenants table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts the tenant. A duplicate slug hits the unique index and
// reports conflict.
func (s *PostgresStore) Create(ctx context.Context, t *Tenant) error {
	const query = `
		INSERT INTO tenants (id, name, slug, secret_hash, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		t.ID.String(), t.Name, t.Slug, t.SecretHash, t.Active, t.CreatedAt, t.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

// GetByID returns the tenant by ID.
func (s *PostgresStore) GetByID(ctx context.Context, id domain.TenantID) (*Tenant, error) {
	return s.get(ctx, "id = $1", id.String())
}

// GetBySlug returns the tenant by slug.
func (s *PostgresStore) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return s.get(ctx, "slug = $1", slug)
}

func (s *PostgresStore) get(ctx context.Context, where string, arg any) (*Tenant, error) {
	query := `SELECT id, name, slug, secret_hash, active, created_at, updated_at FROM tenants WHERE ` + where

	var (
		t  Tenant
		id string
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&id, &t.Name, &t.Slug, &t.SecretHash, &t.Active, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	if t.ID, err = domain.ParseTenantID(id); err != nil {
		return nil, err
	}
	return &t, nil
}

// SetActive flips the tenant's active flag.
func (s *PostgresStore) SetActive(ctx context.Context, id domain.TenantID, active bool) error {
	const query = `UPDATE tenants SET active = $2, updated_at = NOW() WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id.String(), active)
	if err != nil {
		return fmt.Errorf("set tenant active: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set tenant active: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
