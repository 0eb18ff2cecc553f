package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"casefile/internal/platform/postgres"
	"casefile/internal/tipoffs/models"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
	txcontext "casefile/pkg/platform/tx"
)

// Postgres implements the tip store over the tip_offs table. A partial
// unique index on redemption_code backs code uniqueness; a colliding code
// surfaces as ErrConflict from Execute.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const tipColumns = `
	id, case_id, suspect_id, submitted_by, content, status,
	officer_id, detective_id, rejection_reason,
	redemption_code, reward_amount, approved_at, redeemed_by, redeemed_at,
	created_at, updated_at
`

func (s *Postgres) Create(ctx context.Context, tip *models.TipOff) error {
	query := `
		INSERT INTO tip_offs (` + tipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(tip.ID), uuid.UUID(tip.CaseID), uuid.UUID(tip.SuspectID),
		uuid.UUID(tip.SubmittedBy), tip.Content, string(tip.Status),
		actorRef(tip.OfficerID), actorRef(tip.DetectiveID), tip.RejectionReason,
		tip.RedemptionCode, tip.RewardAmount, tip.ApprovedAt,
		actorRef(tip.RedeemedBy), tip.RedeemedAt,
		tip.CreatedAt, tip.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert tip: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, tipID id.TipOffID) (*models.TipOff, error) {
	query := `SELECT ` + tipColumns + ` FROM tip_offs WHERE id = $1`
	tip, err := scanTip(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(tipID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find tip: %w", err)
	}
	return tip, nil
}

func (s *Postgres) FindByCodeAndSubmitter(ctx context.Context, code string, submitter id.PersonID) (*models.TipOff, error) {
	query := `SELECT ` + tipColumns + ` FROM tip_offs WHERE redemption_code = $1 AND submitted_by = $2`
	tip, err := scanTip(s.q(ctx).QueryRowContext(ctx, query, code, uuid.UUID(submitter)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find tip by code: %w", err)
	}
	return tip, nil
}

func (s *Postgres) Execute(ctx context.Context, tipID id.TipOffID, validate func(*models.TipOff) error, mutate func(*models.TipOff)) (*models.TipOff, error) {
	var out *models.TipOff
	runner := txcontext.SQLRunner{DB: s.db}
	err := runner.RunInTx(ctx, func(txCtx context.Context) error {
		query := `SELECT ` + tipColumns + ` FROM tip_offs WHERE id = $1 FOR UPDATE`
		tip, err := scanTip(s.q(txCtx).QueryRowContext(txCtx, query, uuid.UUID(tipID)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("lock tip: %w", err)
		}
		if err := validate(tip); err != nil {
			return err
		}
		mutate(tip)
		update := `
			UPDATE tip_offs SET
				status = $2, officer_id = $3, detective_id = $4, rejection_reason = $5,
				redemption_code = $6, reward_amount = $7, approved_at = $8,
				redeemed_by = $9, redeemed_at = $10, updated_at = $11
			WHERE id = $1
		`
		if _, err := s.q(txCtx).ExecContext(txCtx, update,
			uuid.UUID(tip.ID), string(tip.Status),
			actorRef(tip.OfficerID), actorRef(tip.DetectiveID), tip.RejectionReason,
			tip.RedemptionCode, tip.RewardAmount, tip.ApprovedAt,
			actorRef(tip.RedeemedBy), tip.RedeemedAt, tip.UpdatedAt,
		); err != nil {
			if postgres.IsUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("update tip: %w", err)
		}
		out = tip
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Postgres) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.TipOff, error) {
	query := `SELECT ` + tipColumns + ` FROM tip_offs WHERE case_id = $1 ORDER BY created_at, id`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(caseID))
	if err != nil {
		return nil, fmt.Errorf("list tips: %w", err)
	}
	defer rows.Close()

	var out []*models.TipOff
	for rows.Next() {
		tip, err := scanTip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tip: %w", err)
		}
		out = append(out, tip)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTip(row rowScanner) (*models.TipOff, error) {
	var (
		tip         models.TipOff
		tipID       uuid.UUID
		caseID      uuid.UUID
		suspectID   uuid.UUID
		submittedBy uuid.UUID
		status      string
		officerID   *uuid.UUID
		detectiveID *uuid.UUID
		redeemedBy  *uuid.UUID
	)
	err := row.Scan(
		&tipID, &caseID, &suspectID, &submittedBy, &tip.Content, &status,
		&officerID, &detectiveID, &tip.RejectionReason,
		&tip.RedemptionCode, &tip.RewardAmount, &tip.ApprovedAt,
		&redeemedBy, &tip.RedeemedAt,
		&tip.CreatedAt, &tip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tip.ID = id.TipOffID(tipID)
	tip.CaseID = id.CaseID(caseID)
	tip.SuspectID = id.SuspectID(suspectID)
	tip.SubmittedBy = id.PersonID(submittedBy)
	tip.Status = models.TipOffStatus(status)
	tip.OfficerID = toActorRef(officerID)
	tip.DetectiveID = toActorRef(detectiveID)
	tip.RedeemedBy = toActorRef(redeemedBy)
	return &tip, nil
}

func actorRef(ref *id.ActorID) *uuid.UUID {
	if ref == nil {
		return nil
	}
	v := uuid.UUID(*ref)
	return &v
}

func toActorRef(ref *uuid.UUID) *id.ActorID {
	if ref == nil {
		return nil
	}
	v := id.ActorID(*ref)
	return &v
}
