package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the full DDL. EnsureSchema applies it at startup; statements
// are idempotent so repeated boots are safe.
const Schema = `
CREATE TABLE IF NOT EXISTS tenants (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	slug        TEXT NOT NULL UNIQUE,
	secret_hash TEXT NOT NULL,
	active      BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS cases (
	id         UUID PRIMARY KEY,
	tenant_id  UUID NOT NULL,
	status     TEXT NOT NULL,
	label      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	deleted    BOOLEAN NOT NULL DEFAULT FALSE,
	deleted_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_cases_tenant ON cases (tenant_id) WHERE NOT deleted;

CREATE TABLE IF NOT EXISTS case_snapshots (
	id             UUID PRIMARY KEY,
	case_id        UUID NOT NULL REFERENCES cases (id),
	tenant_id      UUID NOT NULL,
	version        INTEGER NOT NULL,
	payload        JSONB NOT NULL,
	fingerprint    TEXT NOT NULL,
	config_version TEXT NOT NULL,
	engine_version TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	UNIQUE (case_id, version)
);

CREATE TABLE IF NOT EXISTS case_events (
	id         UUID PRIMARY KEY,
	case_id    UUID NOT NULL REFERENCES cases (id),
	tenant_id  UUID NOT NULL,
	event_type TEXT NOT NULL,
	actor      TEXT NOT NULL DEFAULT '',
	metadata   JSONB,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_case_events_case ON case_events (case_id, created_at);

CREATE TABLE IF NOT EXISTS case_outbox (
	id           BIGSERIAL PRIMARY KEY,
	event_id     UUID NOT NULL,
	tenant_id    UUID NOT NULL,
	case_id      UUID NOT NULL,
	event_type   TEXT NOT NULL,
	category     TEXT NOT NULL,
	payload      JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	published_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_case_outbox_pending ON case_outbox (id) WHERE published_at IS NULL;
`

// EnsureSchema applies the DDL.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
