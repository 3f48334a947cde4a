//go:build integration

package containers

// Schema is the DDL the integration suites apply to a fresh database.
const Schema = `
CREATE TABLE IF NOT EXISTS legal_reservations (
	id              UUID PRIMARY KEY,
	unit_id         UUID NOT NULL,
	buyer_id        UUID NOT NULL,
	transaction_id  TEXT,
	status          TEXT NOT NULL,
	legal_stage     TEXT,
	deposit         JSONB,
	terms_accepted  JSONB,
	solicitor       JSONB,
	contract        JSONB,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	expires_at      TIMESTAMPTZ,
	completion_date TIMESTAMPTZ,
	executed_at     TIMESTAMPTZ,
	record_version  INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_legal_reservations_expires
	ON legal_reservations (expires_at)
	WHERE expires_at IS NOT NULL;

CREATE TABLE IF NOT EXISTS legal_audit_events (
	id             UUID PRIMARY KEY,
	reservation_id UUID NOT NULL,
	seq            INTEGER NOT NULL,
	event          TEXT NOT NULL,
	description    TEXT NOT NULL,
	data           JSONB,
	source         TEXT NOT NULL,
	timestamp      TIMESTAMPTZ NOT NULL,
	UNIQUE (reservation_id, seq)
);

CREATE TABLE IF NOT EXISTS outbox (
	id             UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id   UUID NOT NULL,
	event_type     TEXT NOT NULL,
	payload        JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	published_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_outbox_pending
	ON outbox (created_at)
	WHERE published_at IS NULL;

CREATE TABLE IF NOT EXISTS escrow_accounts (
	id            UUID PRIMARY KEY,
	firm_name     TEXT NOT NULL,
	iban          TEXT NOT NULL,
	total_balance NUMERIC(14, 2) NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS escrow_deposits (
	id             UUID PRIMARY KEY,
	reservation_id UUID NOT NULL,
	amount         NUMERIC(14, 2) NOT NULL,
	currency       TEXT NOT NULL,
	status         TEXT NOT NULL,
	method         TEXT NOT NULL,
	reference      TEXT NOT NULL,
	account_id     UUID REFERENCES escrow_accounts (id),
	audit_log      JSONB,
	paid_at        TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_escrow_deposits_reservation
	ON escrow_deposits (reservation_id);

CREATE TABLE IF NOT EXISTS compliance_records (
	reservation_id UUID PRIMARY KEY,
	record         JSONB NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);
`
