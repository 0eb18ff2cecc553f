package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"casefile/internal/cases/models"
	"casefile/internal/platform/postgres"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
	txcontext "casefile/pkg/platform/tx"
)

// Postgres implements the case store over the cases, case_persons and
// case_reviews tables.
type Postgres struct {
	db     *sql.DB
	runner txcontext.SQLRunner
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, runner: txcontext.SQLRunner{DB: db}}
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

const caseColumns = `
	id, title, description, formation_type, crime_level, crime_level_name,
	status, rejection_count, created_by,
	assigned_cadet, assigned_officer, assigned_detective, assigned_sergeant,
	opened_at, closed_at, created_at, updated_at
`

func (s *Postgres) Create(ctx context.Context, c *models.Case) error {
	return s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		query := `
			INSERT INTO cases (` + caseColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		`
		_, err := s.q(txCtx).ExecContext(txCtx, query,
			uuid.UUID(c.ID), c.Title, c.Description, string(c.FormationType),
			c.CrimeLevel.Level, c.CrimeLevel.Name,
			string(c.Status), c.RejectionCount, uuid.UUID(c.CreatedBy),
			actorRef(c.AssignedCadet), actorRef(c.AssignedOfficer),
			actorRef(c.AssignedDetective), actorRef(c.AssignedSergeant),
			c.OpenedAt, c.ClosedAt, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert case: %w", err)
		}
		for _, person := range c.Complainants {
			if err := s.insertPerson(txCtx, c.ID, person, "complainant"); err != nil {
				return err
			}
		}
		for _, person := range c.Witnesses {
			if err := s.insertPerson(txCtx, c.ID, person, "witness"); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Postgres) insertPerson(ctx context.Context, caseID id.CaseID, person id.PersonID, kind string) error {
	query := `
		INSERT INTO case_persons (case_id, person_id, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	if _, err := s.q(ctx).ExecContext(ctx, query, uuid.UUID(caseID), uuid.UUID(person), kind); err != nil {
		return fmt.Errorf("insert case person: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1`
	c, err := scanCase(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(caseID)))
	if err != nil {
		return nil, err
	}
	if err := s.loadPersons(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Execute locks the case row FOR UPDATE, validates, mutates and writes back,
// all inside one transaction. When the context already carries a transaction
// the side effects of the caller join the same boundary.
func (s *Postgres) Execute(ctx context.Context, caseID id.CaseID, validate func(*models.Case) error, mutate func(*models.Case)) (*models.Case, error) {
	var out *models.Case
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1 FOR UPDATE`
		c, err := scanCase(s.q(txCtx).QueryRowContext(txCtx, query, uuid.UUID(caseID)))
		if err != nil {
			return err
		}
		if err := s.loadPersons(txCtx, c); err != nil {
			return err
		}
		if err := validate(c); err != nil {
			return err
		}
		mutate(c)

		update := `
			UPDATE cases SET
				status = $2, rejection_count = $3,
				assigned_cadet = $4, assigned_officer = $5,
				assigned_detective = $6, assigned_sergeant = $7,
				opened_at = $8, closed_at = $9, updated_at = $10
			WHERE id = $1
		`
		_, err = s.q(txCtx).ExecContext(txCtx, update,
			uuid.UUID(c.ID), string(c.Status), c.RejectionCount,
			actorRef(c.AssignedCadet), actorRef(c.AssignedOfficer),
			actorRef(c.AssignedDetective), actorRef(c.AssignedSergeant),
			c.OpenedAt, c.ClosedAt, c.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update case: %w", err)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Postgres) ListByStatuses(ctx context.Context, statuses []models.CaseStatus) ([]*models.Case, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = string(status)
	}
	query := fmt.Sprintf(
		`SELECT %s FROM cases WHERE status IN (%s) ORDER BY created_at`,
		caseColumns, strings.Join(placeholders, ", "),
	)
	return s.queryCases(ctx, query, args...)
}

func (s *Postgres) ListByParticipant(ctx context.Context, actor id.ActorID) ([]*models.Case, error) {
	query := `
		SELECT ` + caseColumns + `
		FROM cases
		WHERE created_by = $1
		   OR assigned_cadet = $1
		   OR assigned_officer = $1
		   OR assigned_detective = $1
		   OR assigned_sergeant = $1
		ORDER BY created_at
	`
	return s.queryCases(ctx, query, uuid.UUID(actor))
}

func (s *Postgres) AppendReview(ctx context.Context, review *models.CaseReview) error {
	query := `
		INSERT INTO case_reviews (id, case_id, stage, reviewer_id, decision, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		review.ID, uuid.UUID(review.CaseID), string(review.Stage),
		uuid.UUID(review.ReviewerID), string(review.Decision), review.Reason, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert case review: %w", err)
	}
	return nil
}

func (s *Postgres) ListReviews(ctx context.Context, caseID id.CaseID) ([]*models.CaseReview, error) {
	query := `
		SELECT id, case_id, stage, reviewer_id, decision, reason, created_at
		FROM case_reviews
		WHERE case_id = $1
		ORDER BY created_at
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(caseID))
	if err != nil {
		return nil, fmt.Errorf("query case reviews: %w", err)
	}
	defer rows.Close()

	var out []*models.CaseReview
	for rows.Next() {
		var (
			r          models.CaseReview
			caseUUID   uuid.UUID
			reviewerID uuid.UUID
		)
		if err := rows.Scan(&r.ID, &caseUUID, &r.Stage, &reviewerID, &r.Decision, &r.Reason, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan case review: %w", err)
		}
		r.CaseID = id.CaseID(caseUUID)
		r.ReviewerID = id.ActorID(reviewerID)
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *Postgres) queryCases(ctx context.Context, query string, args ...any) ([]*models.Case, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	var out []*models.Case
	for rows.Next() {
		c, err := scanCaseFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, c := range out {
		if err := s.loadPersons(ctx, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Postgres) loadPersons(ctx context.Context, c *models.Case) error {
	query := `SELECT person_id, kind FROM case_persons WHERE case_id = $1`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(c.ID))
	if err != nil {
		return fmt.Errorf("query case persons: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			person uuid.UUID
			kind   string
		)
		if err := rows.Scan(&person, &kind); err != nil {
			return fmt.Errorf("scan case person: %w", err)
		}
		switch kind {
		case "complainant":
			c.Complainants = append(c.Complainants, id.PersonID(person))
		case "witness":
			c.Witnesses = append(c.Witnesses, id.PersonID(person))
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row *sql.Row) (*models.Case, error) {
	c, err := scanCaseFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func scanCaseFromRows(rows *sql.Rows) (*models.Case, error) {
	return scanCaseFrom(rows)
}

func scanCaseFrom(scanner rowScanner) (*models.Case, error) {
	var (
		c         models.Case
		caseUUID  uuid.UUID
		createdBy uuid.UUID
		cadet     *uuid.UUID
		officer   *uuid.UUID
		detective *uuid.UUID
		sergeant  *uuid.UUID
	)
	err := scanner.Scan(
		&caseUUID, &c.Title, &c.Description, &c.FormationType,
		&c.CrimeLevel.Level, &c.CrimeLevel.Name,
		&c.Status, &c.RejectionCount, &createdBy,
		&cadet, &officer, &detective, &sergeant,
		&c.OpenedAt, &c.ClosedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan case: %w", err)
	}
	c.ID = id.CaseID(caseUUID)
	c.CreatedBy = id.ActorID(createdBy)
	c.AssignedCadet = toActorRef(cadet)
	c.AssignedOfficer = toActorRef(officer)
	c.AssignedDetective = toActorRef(detective)
	c.AssignedSergeant = toActorRef(sergeant)
	return &c, nil
}

func actorRef(ref *id.ActorID) *uuid.UUID {
	if ref == nil {
		return nil
	}
	u := uuid.UUID(*ref)
	return &u
}

func toActorRef(u *uuid.UUID) *id.ActorID {
	if u == nil {
		return nil
	}
	a := id.ActorID(*u)
	return &a
}
