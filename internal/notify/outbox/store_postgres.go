package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"casefile/internal/notify"
	id "casefile/pkg/domain"
	txcontext "casefile/pkg/platform/tx"
)

// PostgresStore persists outbox rows in the notification_outbox table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, n notify.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	query := `
		INSERT INTO notification_outbox (id, recipient_id, kind, case_id, payload, created_at, published)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		n.ID, uuid.UUID(n.Recipient), string(n.Kind), uuid.UUID(n.CaseID), payload, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) FetchUnpublished(ctx context.Context, limit int) ([]notify.Notification, error) {
	query := `
		SELECT id, recipient_id, kind, case_id, payload, created_at
		FROM notification_outbox
		WHERE published = FALSE
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var out []notify.Notification
	for rows.Next() {
		var (
			n           notify.Notification
			recipientID uuid.UUID
			caseID      uuid.UUID
			payload     []byte
		)
		if err := rows.Scan(&n.ID, &recipientID, &n.Kind, &caseID, &payload, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		n.Recipient = id.ActorID(recipientID)
		n.CaseID = id.CaseID(caseID)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &n.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal outbox payload: %w", err)
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, entryID := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = entryID
	}
	query := fmt.Sprintf(`
		UPDATE notification_outbox
		SET published = TRUE, published_at = NOW()
		WHERE id IN (%s)
	`, strings.Join(placeholders, ", "))
	_, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
