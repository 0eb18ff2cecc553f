package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"casefile/internal/platform/postgres"
	"casefile/internal/suspects/models"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
	txcontext "casefile/pkg/platform/tx"
)

// Postgres implements the suspect store over the suspects table. A unique
// index on (case_id, person_id) backs the one-suspect-per-pair invariant.
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

const suspectColumns = `
	id, case_id, person_id, status, identified_by, reason,
	approved_by_sergeant, arrest_warrant_issued,
	identified_at, arrested_at, updated_at
`

func (s *Postgres) Create(ctx context.Context, suspect *models.Suspect) error {
	query := `
		INSERT INTO suspects (` + suspectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(suspect.ID), uuid.UUID(suspect.CaseID), uuid.UUID(suspect.PersonID),
		string(suspect.Status), uuid.UUID(suspect.IdentifiedBy), suspect.Reason,
		actorRef(suspect.ApprovedBySergeant), suspect.ArrestWarrantIssued,
		suspect.IdentifiedAt, suspect.ArrestedAt, suspect.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert suspect: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, suspectID id.SuspectID) (*models.Suspect, error) {
	query := `SELECT ` + suspectColumns + ` FROM suspects WHERE id = $1`
	suspect, err := scanSuspect(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(suspectID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find suspect: %w", err)
	}
	return suspect, nil
}

// Execute locks the row, runs the validation against the current state and
// persists the mutated state in the same transaction.
func (s *Postgres) Execute(ctx context.Context, suspectID id.SuspectID, validate func(*models.Suspect) error, mutate func(*models.Suspect)) (*models.Suspect, error) {
	var out *models.Suspect
	runner := txcontext.SQLRunner{DB: s.db}
	err := runner.RunInTx(ctx, func(txCtx context.Context) error {
		query := `SELECT ` + suspectColumns + ` FROM suspects WHERE id = $1 FOR UPDATE`
		suspect, err := scanSuspect(s.q(txCtx).QueryRowContext(txCtx, query, uuid.UUID(suspectID)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("lock suspect: %w", err)
		}
		if err := validate(suspect); err != nil {
			return err
		}
		mutate(suspect)
		update := `
			UPDATE suspects SET
				status = $2, approved_by_sergeant = $3, arrest_warrant_issued = $4,
				arrested_at = $5, updated_at = $6
			WHERE id = $1
		`
		if _, err := s.q(txCtx).ExecContext(txCtx, update,
			uuid.UUID(suspect.ID), string(suspect.Status),
			actorRef(suspect.ApprovedBySergeant), suspect.ArrestWarrantIssued,
			suspect.ArrestedAt, suspect.UpdatedAt,
		); err != nil {
			return fmt.Errorf("update suspect: %w", err)
		}
		out = suspect
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Postgres) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.Suspect, error) {
	query := `SELECT ` + suspectColumns + ` FROM suspects WHERE case_id = $1 ORDER BY identified_at, id`
	return s.list(ctx, query, uuid.UUID(caseID))
}

func (s *Postgres) ListByStatus(ctx context.Context, status models.SuspectStatus) ([]*models.Suspect, error) {
	query := `SELECT ` + suspectColumns + ` FROM suspects WHERE status = $1 ORDER BY identified_at, id`
	return s.list(ctx, query, string(status))
}

// EscalateOverdue promotes every under_pursuit suspect identified at or
// before the cutoff in a single statement.
func (s *Postgres) EscalateOverdue(ctx context.Context, cutoff time.Time, now time.Time) (int, error) {
	query := `
		UPDATE suspects
		SET status = $1, updated_at = $2
		WHERE status = $3 AND identified_at <= $4
	`
	res, err := s.q(ctx).ExecContext(ctx, query,
		string(models.StatusIntensivePursuit), now,
		string(models.StatusUnderPursuit), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("escalate suspects: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("escalate suspects: %w", err)
	}
	return int(affected), nil
}

func (s *Postgres) list(ctx context.Context, query string, arg any) ([]*models.Suspect, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list suspects: %w", err)
	}
	defer rows.Close()

	var out []*models.Suspect
	for rows.Next() {
		suspect, err := scanSuspect(rows)
		if err != nil {
			return nil, fmt.Errorf("scan suspect: %w", err)
		}
		out = append(out, suspect)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSuspect(row rowScanner) (*models.Suspect, error) {
	var (
		suspect    models.Suspect
		suspectID  uuid.UUID
		caseID     uuid.UUID
		personID   uuid.UUID
		identifier uuid.UUID
		status     string
		approvedBy *uuid.UUID
	)
	err := row.Scan(
		&suspectID, &caseID, &personID, &status, &identifier, &suspect.Reason,
		&approvedBy, &suspect.ArrestWarrantIssued,
		&suspect.IdentifiedAt, &suspect.ArrestedAt, &suspect.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	suspect.ID = id.SuspectID(suspectID)
	suspect.CaseID = id.CaseID(caseID)
	suspect.PersonID = id.PersonID(personID)
	suspect.IdentifiedBy = id.ActorID(identifier)
	suspect.Status = models.SuspectStatus(status)
	suspect.ApprovedBySergeant = toActorRef(approvedBy)
	return &suspect, nil
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
