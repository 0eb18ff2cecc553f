package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied idempotently at startup. Unique indexes back the
// store-level conflict detection: one suspect per (case, person), one captain
// decision per interrogation, one chief sign-off per captain decision, and
// globally unique redemption codes.
const schema = `
CREATE TABLE IF NOT EXISTS roles (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	capability TEXT NOT NULL UNIQUE,
	rank       INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS actor_roles (
	actor_id UUID NOT NULL,
	role_id  UUID NOT NULL REFERENCES roles (id),
	PRIMARY KEY (actor_id, role_id)
);

CREATE TABLE IF NOT EXISTS cases (
	id                 UUID PRIMARY KEY,
	title              TEXT NOT NULL,
	description        TEXT NOT NULL,
	formation_type     TEXT NOT NULL,
	crime_level        INTEGER NOT NULL,
	crime_level_name   TEXT NOT NULL,
	status             TEXT NOT NULL,
	rejection_count    INTEGER NOT NULL DEFAULT 0,
	created_by         UUID NOT NULL,
	assigned_cadet     UUID,
	assigned_officer   UUID,
	assigned_detective UUID,
	assigned_sergeant  UUID,
	opened_at          TIMESTAMPTZ,
	closed_at          TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS case_persons (
	case_id   UUID NOT NULL REFERENCES cases (id),
	person_id UUID NOT NULL,
	kind      TEXT NOT NULL,
	PRIMARY KEY (case_id, person_id, kind)
);

CREATE TABLE IF NOT EXISTS case_reviews (
	id          UUID PRIMARY KEY,
	case_id     UUID NOT NULL REFERENCES cases (id),
	stage       TEXT NOT NULL,
	reviewer_id UUID NOT NULL,
	decision    TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_case_reviews_case ON case_reviews (case_id, created_at);

CREATE TABLE IF NOT EXISTS suspects (
	id                    UUID PRIMARY KEY,
	case_id               UUID NOT NULL REFERENCES cases (id),
	person_id             UUID NOT NULL,
	status                TEXT NOT NULL,
	identified_by         UUID NOT NULL,
	reason                TEXT NOT NULL,
	approved_by_sergeant  UUID,
	arrest_warrant_issued BOOLEAN NOT NULL DEFAULT FALSE,
	identified_at         TIMESTAMPTZ NOT NULL,
	arrested_at           TIMESTAMPTZ,
	updated_at            TIMESTAMPTZ NOT NULL,
	UNIQUE (case_id, person_id)
);

CREATE INDEX IF NOT EXISTS idx_suspects_status ON suspects (status);

CREATE TABLE IF NOT EXISTS suspect_submissions (
	id           UUID PRIMARY KEY,
	case_id      UUID NOT NULL REFERENCES cases (id),
	detective_id UUID NOT NULL,
	reasoning    TEXT NOT NULL,
	status       TEXT NOT NULL,
	reviewed_by  UUID,
	review_notes TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS submission_suspects (
	submission_id UUID NOT NULL REFERENCES suspect_submissions (id),
	suspect_id    UUID NOT NULL REFERENCES suspects (id),
	position      INTEGER NOT NULL,
	PRIMARY KEY (submission_id, suspect_id)
);

CREATE TABLE IF NOT EXISTS interrogations (
	id                     UUID PRIMARY KEY,
	case_id                UUID NOT NULL REFERENCES cases (id),
	suspect_id             UUID NOT NULL REFERENCES suspects (id),
	detective_id           UUID NOT NULL,
	sergeant_id            UUID NOT NULL,
	detective_guilt_rating INTEGER,
	sergeant_guilt_rating  INTEGER,
	detective_notes        TEXT NOT NULL DEFAULT '',
	sergeant_notes         TEXT NOT NULL DEFAULT '',
	status                 TEXT NOT NULL,
	submitted_at           TIMESTAMPTZ,
	created_at             TIMESTAMPTZ NOT NULL,
	updated_at             TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS captain_decisions (
	id               UUID PRIMARY KEY,
	interrogation_id UUID NOT NULL UNIQUE REFERENCES interrogations (id),
	captain_id       UUID NOT NULL,
	decision         TEXT NOT NULL,
	reasoning        TEXT NOT NULL,
	status           TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS chief_decisions (
	id                  UUID PRIMARY KEY,
	captain_decision_id UUID NOT NULL UNIQUE REFERENCES captain_decisions (id),
	chief_id            UUID NOT NULL,
	decision            TEXT NOT NULL,
	comments            TEXT NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS tip_offs (
	id               UUID PRIMARY KEY,
	case_id          UUID NOT NULL REFERENCES cases (id),
	suspect_id       UUID NOT NULL REFERENCES suspects (id),
	submitted_by     UUID NOT NULL,
	content          TEXT NOT NULL,
	status           TEXT NOT NULL,
	officer_id       UUID,
	detective_id     UUID,
	rejection_reason TEXT NOT NULL DEFAULT '',
	redemption_code  TEXT,
	reward_amount    BIGINT NOT NULL DEFAULT 0,
	approved_at      TIMESTAMPTZ,
	redeemed_by      UUID,
	redeemed_at      TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_tip_offs_redemption_code
	ON tip_offs (redemption_code) WHERE redemption_code IS NOT NULL;

CREATE TABLE IF NOT EXISTS bail_payments (
	id                   UUID PRIMARY KEY,
	suspect_id           UUID NOT NULL REFERENCES suspects (id),
	case_id              UUID NOT NULL REFERENCES cases (id),
	amount               BIGINT NOT NULL,
	status               TEXT NOT NULL,
	requested_by         UUID NOT NULL,
	approved_by_sergeant UUID,
	approved_at          TIMESTAMPTZ,
	gateway_authority    TEXT NOT NULL DEFAULT '',
	gateway_ref_id       TEXT NOT NULL DEFAULT '',
	paid_at              TIMESTAMPTZ,
	created_at           TIMESTAMPTZ NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS notification_outbox (
	id           UUID PRIMARY KEY,
	recipient_id UUID NOT NULL,
	kind         TEXT NOT NULL,
	case_id      UUID NOT NULL,
	payload      JSONB,
	created_at   TIMESTAMPTZ NOT NULL,
	published    BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_outbox_unpublished
	ON notification_outbox (created_at) WHERE NOT published;
`

// EnsureSchema creates all tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
