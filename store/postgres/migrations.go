package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the sale store.
var Migrations = migrate.NewGroup("tokensale")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_tokensale_state",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tokensale_state (
    id                TEXT PRIMARY KEY,
    output_asset      TEXT NOT NULL DEFAULT '',
    input_asset       TEXT NOT NULL DEFAULT '',
    sale_start        TIMESTAMPTZ NOT NULL,
    sale_duration_ns  BIGINT NOT NULL DEFAULT 0,
    token_out_price   TEXT NOT NULL DEFAULT '0',
    sale_recipient    TEXT NOT NULL DEFAULT '',
    input_limit       TEXT NOT NULL DEFAULT '0',
    whitelist         BOOLEAN NOT NULL DEFAULT FALSE,
    total_in          TEXT NOT NULL DEFAULT '0',
    total_out_bought  TEXT NOT NULL DEFAULT '0',
    total_out_claimed TEXT NOT NULL DEFAULT '0',
    initialized       BOOLEAN NOT NULL DEFAULT FALSE,
    finalized         BOOLEAN NOT NULL DEFAULT FALSE,
    event_seq         BIGINT NOT NULL DEFAULT 0,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tokensale_state`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_tokensale_entitlements",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tokensale_entitlements (
    account       TEXT PRIMARY KEY,
    bought_amount TEXT NOT NULL DEFAULT '0',
    has_claimed   BOOLEAN NOT NULL DEFAULT FALSE,
    voted_group   SMALLINT NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tokensale_entitlements_claimed ON tokensale_entitlements (has_claimed, account);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tokensale_entitlements`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_tokensale_group_commitments",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tokensale_group_commitments (
    group_id SMALLINT PRIMARY KEY,
    amount   TEXT NOT NULL DEFAULT '0'
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tokensale_group_commitments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_tokensale_events",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tokensale_events (
    id         TEXT PRIMARY KEY,
    sequence   BIGINT NOT NULL,
    type       TEXT NOT NULL DEFAULT '',
    attributes JSONB NOT NULL DEFAULT '{}',
    timestamp  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tokensale_events_sequence ON tokensale_events (sequence);
CREATE INDEX IF NOT EXISTS idx_tokensale_events_type ON tokensale_events (type, sequence);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tokensale_events`)
				return err
			},
		},
	)
}
