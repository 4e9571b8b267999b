package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied on startup so a fresh deployment needs no migration step.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    community_id   BIGINT NOT NULL,
    participant_id BIGINT NOT NULL,
    points         BIGINT NOT NULL DEFAULT 0,
    carry_seconds  BIGINT NOT NULL DEFAULT 0,
    session_start  TIMESTAMPTZ,
    PRIMARY KEY (community_id, participant_id)
);

CREATE TABLE IF NOT EXISTS activity (
    community_id   BIGINT NOT NULL,
    participant_id BIGINT NOT NULL,
    last_active_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (community_id, participant_id)
);

CREATE TABLE IF NOT EXISTS community_settings (
    community_id BIGINT PRIMARY KEY,
    afk_room_id  BIGINT,
    log_room_id  BIGINT
);

CREATE TABLE IF NOT EXISTS shop_items (
    id           BIGSERIAL PRIMARY KEY,
    community_id BIGINT NOT NULL,
    name         TEXT   NOT NULL,
    price        BIGINT NOT NULL,
    stock        BIGINT
);

CREATE INDEX IF NOT EXISTS shop_items_community_idx ON shop_items (community_id);

CREATE TABLE IF NOT EXISTS purchases (
    id             BIGSERIAL PRIMARY KEY,
    community_id   BIGINT NOT NULL,
    participant_id BIGINT NOT NULL,
    item_id        BIGINT NOT NULL REFERENCES shop_items (id),
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}
