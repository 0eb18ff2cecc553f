package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"casefile/internal/bail/models"
	"casefile/internal/platform/postgres"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
	txcontext "casefile/pkg/platform/tx"
)

// Postgres implements the bail store over the bail_payments table.
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

const bailColumns = `
	id, suspect_id, case_id, amount, status,
	requested_by, approved_by_sergeant, approved_at,
	gateway_authority, gateway_ref_id, paid_at,
	created_at, updated_at
`

func (s *Postgres) Create(ctx context.Context, bail *models.BailPayment) error {
	query := `
		INSERT INTO bail_payments (` + bailColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(bail.ID), uuid.UUID(bail.SuspectID), uuid.UUID(bail.CaseID),
		bail.Amount, string(bail.Status),
		uuid.UUID(bail.RequestedBy), actorRef(bail.ApprovedBySergeant), bail.ApprovedAt,
		bail.GatewayAuthority, bail.GatewayRefID, bail.PaidAt,
		bail.CreatedAt, bail.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert bail: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, bailID id.BailID) (*models.BailPayment, error) {
	query := `SELECT ` + bailColumns + ` FROM bail_payments WHERE id = $1`
	bail, err := scanBail(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(bailID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find bail: %w", err)
	}
	return bail, nil
}

func (s *Postgres) Execute(ctx context.Context, bailID id.BailID, validate func(*models.BailPayment) error, mutate func(*models.BailPayment)) (*models.BailPayment, error) {
	var out *models.BailPayment
	runner := txcontext.SQLRunner{DB: s.db}
	err := runner.RunInTx(ctx, func(txCtx context.Context) error {
		query := `SELECT ` + bailColumns + ` FROM bail_payments WHERE id = $1 FOR UPDATE`
		bail, err := scanBail(s.q(txCtx).QueryRowContext(txCtx, query, uuid.UUID(bailID)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("lock bail: %w", err)
		}
		if err := validate(bail); err != nil {
			return err
		}
		mutate(bail)
		update := `
			UPDATE bail_payments SET
				status = $2, approved_by_sergeant = $3, approved_at = $4,
				gateway_authority = $5, gateway_ref_id = $6, paid_at = $7, updated_at = $8
			WHERE id = $1
		`
		if _, err := s.q(txCtx).ExecContext(txCtx, update,
			uuid.UUID(bail.ID), string(bail.Status),
			actorRef(bail.ApprovedBySergeant), bail.ApprovedAt,
			bail.GatewayAuthority, bail.GatewayRefID, bail.PaidAt, bail.UpdatedAt,
		); err != nil {
			return fmt.Errorf("update bail: %w", err)
		}
		out = bail
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Postgres) ListBySuspect(ctx context.Context, suspectID id.SuspectID) ([]*models.BailPayment, error) {
	query := `SELECT ` + bailColumns + ` FROM bail_payments WHERE suspect_id = $1 ORDER BY created_at, id`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(suspectID))
	if err != nil {
		return nil, fmt.Errorf("list bails: %w", err)
	}
	defer rows.Close()

	var out []*models.BailPayment
	for rows.Next() {
		bail, err := scanBail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bail: %w", err)
		}
		out = append(out, bail)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBail(row rowScanner) (*models.BailPayment, error) {
	var (
		bail        models.BailPayment
		bailID      uuid.UUID
		suspectID   uuid.UUID
		caseID      uuid.UUID
		status      string
		requestedBy uuid.UUID
		approvedBy  *uuid.UUID
	)
	err := row.Scan(
		&bailID, &suspectID, &caseID, &bail.Amount, &status,
		&requestedBy, &approvedBy, &bail.ApprovedAt,
		&bail.GatewayAuthority, &bail.GatewayRefID, &bail.PaidAt,
		&bail.CreatedAt, &bail.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	bail.ID = id.BailID(bailID)
	bail.SuspectID = id.SuspectID(suspectID)
	bail.CaseID = id.CaseID(caseID)
	bail.Status = models.BailStatus(status)
	bail.RequestedBy = id.ActorID(requestedBy)
	bail.ApprovedBySergeant = toActorRef(approvedBy)
	return &bail, nil
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
