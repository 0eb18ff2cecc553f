package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"casefile/internal/platform/postgres"
	"casefile/internal/submissions/models"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
	txcontext "casefile/pkg/platform/tx"
)

// Postgres implements the submission store over the suspect_submissions and
// submission_suspects tables.
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

const submissionColumns = `
	id, case_id, detective_id, reasoning, status,
	reviewed_by, review_notes, created_at, updated_at
`

func (s *Postgres) Create(ctx context.Context, submission *models.SuspectSubmission) error {
	runner := txcontext.SQLRunner{DB: s.db}
	return runner.RunInTx(ctx, func(txCtx context.Context) error {
		query := `
			INSERT INTO suspect_submissions (` + submissionColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		_, err := s.q(txCtx).ExecContext(txCtx, query,
			uuid.UUID(submission.ID), uuid.UUID(submission.CaseID), uuid.UUID(submission.DetectiveID),
			submission.Reasoning, string(submission.Status),
			actorRef(submission.ReviewedBy), submission.ReviewNotes,
			submission.CreatedAt, submission.UpdatedAt,
		)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert submission: %w", err)
		}
		for pos, suspectID := range submission.SuspectIDs {
			_, err := s.q(txCtx).ExecContext(txCtx,
				`INSERT INTO submission_suspects (submission_id, suspect_id, position) VALUES ($1, $2, $3)`,
				uuid.UUID(submission.ID), uuid.UUID(suspectID), pos,
			)
			if err != nil {
				return fmt.Errorf("insert submission suspect: %w", err)
			}
		}
		return nil
	})
}

func (s *Postgres) FindByID(ctx context.Context, submissionID id.SubmissionID) (*models.SuspectSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM suspect_submissions WHERE id = $1`
	submission, err := scanSubmission(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(submissionID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	if err := s.loadSuspects(ctx, submission); err != nil {
		return nil, err
	}
	return submission, nil
}

func (s *Postgres) Execute(ctx context.Context, submissionID id.SubmissionID, validate func(*models.SuspectSubmission) error, mutate func(*models.SuspectSubmission)) (*models.SuspectSubmission, error) {
	var out *models.SuspectSubmission
	runner := txcontext.SQLRunner{DB: s.db}
	err := runner.RunInTx(ctx, func(txCtx context.Context) error {
		query := `SELECT ` + submissionColumns + ` FROM suspect_submissions WHERE id = $1 FOR UPDATE`
		submission, err := scanSubmission(s.q(txCtx).QueryRowContext(txCtx, query, uuid.UUID(submissionID)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("lock submission: %w", err)
		}
		if err := s.loadSuspects(txCtx, submission); err != nil {
			return err
		}
		if err := validate(submission); err != nil {
			return err
		}
		mutate(submission)
		update := `
			UPDATE suspect_submissions SET
				status = $2, reviewed_by = $3, review_notes = $4, updated_at = $5
			WHERE id = $1
		`
		if _, err := s.q(txCtx).ExecContext(txCtx, update,
			uuid.UUID(submission.ID), string(submission.Status),
			actorRef(submission.ReviewedBy), submission.ReviewNotes, submission.UpdatedAt,
		); err != nil {
			return fmt.Errorf("update submission: %w", err)
		}
		out = submission
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Postgres) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.SuspectSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM suspect_submissions WHERE case_id = $1 ORDER BY created_at, id`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(caseID))
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []*models.SuspectSubmission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, submission)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, submission := range out {
		if err := s.loadSuspects(ctx, submission); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Postgres) loadSuspects(ctx context.Context, submission *models.SuspectSubmission) error {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT suspect_id FROM submission_suspects WHERE submission_id = $1 ORDER BY position`,
		uuid.UUID(submission.ID),
	)
	if err != nil {
		return fmt.Errorf("load submission suspects: %w", err)
	}
	defer rows.Close()

	submission.SuspectIDs = nil
	for rows.Next() {
		var suspectID uuid.UUID
		if err := rows.Scan(&suspectID); err != nil {
			return fmt.Errorf("scan submission suspect: %w", err)
		}
		submission.SuspectIDs = append(submission.SuspectIDs, id.SuspectID(suspectID))
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*models.SuspectSubmission, error) {
	var (
		submission   models.SuspectSubmission
		submissionID uuid.UUID
		caseID       uuid.UUID
		detectiveID  uuid.UUID
		status       string
		reviewedBy   *uuid.UUID
	)
	err := row.Scan(
		&submissionID, &caseID, &detectiveID, &submission.Reasoning, &status,
		&reviewedBy, &submission.ReviewNotes, &submission.CreatedAt, &submission.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	submission.ID = id.SubmissionID(submissionID)
	submission.CaseID = id.CaseID(caseID)
	submission.DetectiveID = id.ActorID(detectiveID)
	submission.Status = models.SubmissionStatus(status)
	submission.ReviewedBy = toActorRef(reviewedBy)
	return &submission, nil
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
