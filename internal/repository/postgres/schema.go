package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the DDL for the tables the matching service reads and writes.
// Every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id                 UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name               TEXT NOT NULL DEFAULT '',
	email              TEXT NOT NULL UNIQUE,
	phone              TEXT,
	role               TEXT NOT NULL DEFAULT 'donor',
	status             TEXT NOT NULL DEFAULT 'active',
	blood_type         TEXT,
	latitude           DOUBLE PRECISION,
	longitude          DOUBLE PRECISION,
	last_donation_date TIMESTAMPTZ,
	date_of_birth      DATE,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_users_donor_search ON users (status, role, blood_type);

CREATE TABLE IF NOT EXISTS blood_requests (
	id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	requester_id UUID REFERENCES users (id),
	blood_type   TEXT NOT NULL,
	latitude     DOUBLE PRECISION NOT NULL,
	longitude    DOUBLE PRECISION NOT NULL,
	urgency      TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'open',
	version      BIGINT NOT NULL DEFAULT 1,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS blood_request_matches (
	request_id  UUID NOT NULL REFERENCES blood_requests (id) ON DELETE CASCADE,
	donor_id    UUID NOT NULL REFERENCES users (id),
	blood_type  TEXT NOT NULL,
	rank        INT NOT NULL,
	score       DOUBLE PRECISION NOT NULL,
	distance_km DOUBLE PRECISION NOT NULL,
	available   BOOLEAN NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (request_id, donor_id)
);

ALTER TABLE blood_request_matches
	ADD COLUMN IF NOT EXISTS next_available_date  TIMESTAMPTZ,
	ADD COLUMN IF NOT EXISTS restrictions         TEXT[] NOT NULL DEFAULT '{}',
	ADD COLUMN IF NOT EXISTS response_rate        DOUBLE PRECISION NOT NULL DEFAULT 0,
	ADD COLUMN IF NOT EXISTS avg_response_minutes DOUBLE PRECISION NOT NULL DEFAULT 0,
	ADD COLUMN IF NOT EXISTS completion_rate      DOUBLE PRECISION NOT NULL DEFAULT 0,
	ADD COLUMN IF NOT EXISTS fallback             BOOLEAN NOT NULL DEFAULT FALSE;

CREATE TABLE IF NOT EXISTS donor_notifications (
	id                 UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	donor_id           UUID NOT NULL REFERENCES users (id),
	request_id         UUID REFERENCES blood_requests (id) ON DELETE SET NULL,
	sent_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	responded_at       TIMESTAMPTZ,
	donation_completed BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_donor_notifications_donor ON donor_notifications (donor_id);
CREATE INDEX IF NOT EXISTS idx_donor_notifications_request ON donor_notifications (request_id);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
