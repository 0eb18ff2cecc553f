package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"casefile/internal/interrogations/models"
	"casefile/internal/platform/postgres"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
	txcontext "casefile/pkg/platform/tx"
)

// Postgres implements the interrogation store over the interrogations,
// captain_decisions and chief_decisions tables. Unique indexes on
// captain_decisions.interrogation_id and chief_decisions.captain_decision_id
// back the one-decision-per-link invariants.
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

const interrogationColumns = `
	id, case_id, suspect_id, detective_id, sergeant_id,
	detective_guilt_rating, sergeant_guilt_rating, detective_notes, sergeant_notes,
	status, submitted_at, created_at, updated_at
`

func (s *Postgres) CreateInterrogation(ctx context.Context, interrogation *models.Interrogation) error {
	query := `
		INSERT INTO interrogations (` + interrogationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(interrogation.ID), uuid.UUID(interrogation.CaseID), uuid.UUID(interrogation.SuspectID),
		uuid.UUID(interrogation.DetectiveID), uuid.UUID(interrogation.SergeantID),
		interrogation.DetectiveGuiltRating, interrogation.SergeantGuiltRating,
		interrogation.DetectiveNotes, interrogation.SergeantNotes,
		string(interrogation.Status), interrogation.SubmittedAt,
		interrogation.CreatedAt, interrogation.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert interrogation: %w", err)
	}
	return nil
}

func (s *Postgres) FindInterrogation(ctx context.Context, interrogationID id.InterrogationID) (*models.Interrogation, error) {
	query := `SELECT ` + interrogationColumns + ` FROM interrogations WHERE id = $1`
	interrogation, err := scanInterrogation(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(interrogationID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find interrogation: %w", err)
	}
	return interrogation, nil
}

func (s *Postgres) ExecuteInterrogation(ctx context.Context, interrogationID id.InterrogationID, validate func(*models.Interrogation) error, mutate func(*models.Interrogation)) (*models.Interrogation, error) {
	var out *models.Interrogation
	runner := txcontext.SQLRunner{DB: s.db}
	err := runner.RunInTx(ctx, func(txCtx context.Context) error {
		query := `SELECT ` + interrogationColumns + ` FROM interrogations WHERE id = $1 FOR UPDATE`
		interrogation, err := scanInterrogation(s.q(txCtx).QueryRowContext(txCtx, query, uuid.UUID(interrogationID)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("lock interrogation: %w", err)
		}
		if err := validate(interrogation); err != nil {
			return err
		}
		mutate(interrogation)
		update := `
			UPDATE interrogations SET
				detective_guilt_rating = $2, sergeant_guilt_rating = $3,
				detective_notes = $4, sergeant_notes = $5,
				status = $6, submitted_at = $7, updated_at = $8
			WHERE id = $1
		`
		if _, err := s.q(txCtx).ExecContext(txCtx, update,
			uuid.UUID(interrogation.ID),
			interrogation.DetectiveGuiltRating, interrogation.SergeantGuiltRating,
			interrogation.DetectiveNotes, interrogation.SergeantNotes,
			string(interrogation.Status), interrogation.SubmittedAt, interrogation.UpdatedAt,
		); err != nil {
			return fmt.Errorf("update interrogation: %w", err)
		}
		out = interrogation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Postgres) ListInterrogationsByCase(ctx context.Context, caseID id.CaseID) ([]*models.Interrogation, error) {
	query := `SELECT ` + interrogationColumns + ` FROM interrogations WHERE case_id = $1 ORDER BY created_at, id`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(caseID))
	if err != nil {
		return nil, fmt.Errorf("list interrogations: %w", err)
	}
	defer rows.Close()

	var out []*models.Interrogation
	for rows.Next() {
		interrogation, err := scanInterrogation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interrogation: %w", err)
		}
		out = append(out, interrogation)
	}
	return out, rows.Err()
}

const decisionColumns = `
	id, interrogation_id, captain_id, decision, reasoning, status, created_at, updated_at
`

func (s *Postgres) CreateDecision(ctx context.Context, decision *models.CaptainDecision) error {
	query := `
		INSERT INTO captain_decisions (` + decisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(decision.ID), uuid.UUID(decision.InterrogationID), uuid.UUID(decision.CaptainID),
		string(decision.Decision), decision.Reasoning, string(decision.Status),
		decision.CreatedAt, decision.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert captain decision: %w", err)
	}
	return nil
}

func (s *Postgres) FindDecision(ctx context.Context, decisionID id.DecisionID) (*models.CaptainDecision, error) {
	query := `SELECT ` + decisionColumns + ` FROM captain_decisions WHERE id = $1`
	return s.findDecision(ctx, query, uuid.UUID(decisionID))
}

func (s *Postgres) FindDecisionByInterrogation(ctx context.Context, interrogationID id.InterrogationID) (*models.CaptainDecision, error) {
	query := `SELECT ` + decisionColumns + ` FROM captain_decisions WHERE interrogation_id = $1`
	return s.findDecision(ctx, query, uuid.UUID(interrogationID))
}

func (s *Postgres) findDecision(ctx context.Context, query string, arg any) (*models.CaptainDecision, error) {
	decision, err := scanDecision(s.q(ctx).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find captain decision: %w", err)
	}
	return decision, nil
}

func (s *Postgres) ExecuteDecision(ctx context.Context, decisionID id.DecisionID, validate func(*models.CaptainDecision) error, mutate func(*models.CaptainDecision)) (*models.CaptainDecision, error) {
	var out *models.CaptainDecision
	runner := txcontext.SQLRunner{DB: s.db}
	err := runner.RunInTx(ctx, func(txCtx context.Context) error {
		query := `SELECT ` + decisionColumns + ` FROM captain_decisions WHERE id = $1 FOR UPDATE`
		decision, err := scanDecision(s.q(txCtx).QueryRowContext(txCtx, query, uuid.UUID(decisionID)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("lock captain decision: %w", err)
		}
		if err := validate(decision); err != nil {
			return err
		}
		mutate(decision)
		update := `UPDATE captain_decisions SET status = $2, updated_at = $3 WHERE id = $1`
		if _, err := s.q(txCtx).ExecContext(txCtx, update,
			uuid.UUID(decision.ID), string(decision.Status), decision.UpdatedAt,
		); err != nil {
			return fmt.Errorf("update captain decision: %w", err)
		}
		out = decision
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Postgres) CreateChiefDecision(ctx context.Context, decision *models.PoliceChiefDecision) error {
	query := `
		INSERT INTO chief_decisions (id, captain_decision_id, chief_id, decision, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(decision.ID), uuid.UUID(decision.CaptainDecisionID), uuid.UUID(decision.ChiefID),
		string(decision.Decision), decision.Comments, decision.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert chief decision: %w", err)
	}
	return nil
}

func (s *Postgres) FindChiefDecisionByDecision(ctx context.Context, decisionID id.DecisionID) (*models.PoliceChiefDecision, error) {
	query := `
		SELECT id, captain_decision_id, chief_id, decision, comments, created_at
		FROM chief_decisions WHERE captain_decision_id = $1
	`
	var (
		decision          models.PoliceChiefDecision
		chiefDecisionID   uuid.UUID
		captainDecisionID uuid.UUID
		chiefID           uuid.UUID
		answer            string
	)
	err := s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(decisionID)).Scan(
		&chiefDecisionID, &captainDecisionID, &chiefID, &answer, &decision.Comments, &decision.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find chief decision: %w", err)
	}
	decision.ID = id.ChiefDecisionID(chiefDecisionID)
	decision.CaptainDecisionID = id.DecisionID(captainDecisionID)
	decision.ChiefID = id.ActorID(chiefID)
	decision.Decision = models.ChiefAnswer(answer)
	return &decision, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterrogation(row rowScanner) (*models.Interrogation, error) {
	var (
		interrogation   models.Interrogation
		interrogationID uuid.UUID
		caseID          uuid.UUID
		suspectID       uuid.UUID
		detectiveID     uuid.UUID
		sergeantID      uuid.UUID
		status          string
	)
	err := row.Scan(
		&interrogationID, &caseID, &suspectID, &detectiveID, &sergeantID,
		&interrogation.DetectiveGuiltRating, &interrogation.SergeantGuiltRating,
		&interrogation.DetectiveNotes, &interrogation.SergeantNotes,
		&status, &interrogation.SubmittedAt,
		&interrogation.CreatedAt, &interrogation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	interrogation.ID = id.InterrogationID(interrogationID)
	interrogation.CaseID = id.CaseID(caseID)
	interrogation.SuspectID = id.SuspectID(suspectID)
	interrogation.DetectiveID = id.ActorID(detectiveID)
	interrogation.SergeantID = id.ActorID(sergeantID)
	interrogation.Status = models.InterrogationStatus(status)
	return &interrogation, nil
}

func scanDecision(row rowScanner) (*models.CaptainDecision, error) {
	var (
		decision        models.CaptainDecision
		decisionID      uuid.UUID
		interrogationID uuid.UUID
		captainID       uuid.UUID
		verdict         string
		status          string
	)
	err := row.Scan(
		&decisionID, &interrogationID, &captainID, &verdict, &decision.Reasoning, &status,
		&decision.CreatedAt, &decision.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	decision.ID = id.DecisionID(decisionID)
	decision.InterrogationID = id.InterrogationID(interrogationID)
	decision.CaptainID = id.ActorID(captainID)
	decision.Decision = models.Verdict(verdict)
	decision.Status = models.DecisionStatus(status)
	return &decision, nil
}
