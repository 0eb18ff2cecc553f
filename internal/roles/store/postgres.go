package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"casefile/internal/platform/postgres"
	"casefile/internal/roles/models"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
	txcontext "casefile/pkg/platform/tx"
)

// Postgres implements the role store over the roles and actor_roles tables.
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

func (s *Postgres) CreateIfCapabilityAvailable(ctx context.Context, role *models.Role) error {
	query := `
		INSERT INTO roles (id, name, capability, rank, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(role.ID), role.Name, role.Capability, role.Rank, role.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

func (s *Postgres) FindByCapability(ctx context.Context, capability string) (*models.Role, error) {
	query := `
		SELECT id, name, capability, rank, created_at
		FROM roles
		WHERE capability = $1
	`
	row := s.q(ctx).QueryRowContext(ctx, query, capability)
	return scanRole(row)
}

func (s *Postgres) Grant(ctx context.Context, actor id.ActorID, roleID id.RoleID) error {
	query := `
		INSERT INTO actor_roles (actor_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (actor_id, role_id) DO NOTHING
	`
	_, err := s.q(ctx).ExecContext(ctx, query, uuid.UUID(actor), uuid.UUID(roleID))
	if err != nil {
		return fmt.Errorf("insert actor role: %w", err)
	}
	return nil
}

func (s *Postgres) ListByActor(ctx context.Context, actor id.ActorID) ([]*models.Role, error) {
	query := `
		SELECT r.id, r.name, r.capability, r.rank, r.created_at
		FROM roles r
		JOIN actor_roles ar ON ar.role_id = r.id
		WHERE ar.actor_id = $1
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(actor))
	if err != nil {
		return nil, fmt.Errorf("query actor roles: %w", err)
	}
	defer rows.Close()

	var out []*models.Role
	for rows.Next() {
		role, err := scanRoleFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (s *Postgres) ListActorsWithMinRank(ctx context.Context, minRank int) ([]id.ActorID, error) {
	query := `
		SELECT DISTINCT ar.actor_id
		FROM actor_roles ar
		JOIN roles r ON r.id = ar.role_id
		WHERE r.rank >= $1
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, minRank)
	if err != nil {
		return nil, fmt.Errorf("query actors by rank: %w", err)
	}
	defer rows.Close()

	var out []id.ActorID
	for rows.Next() {
		var actorID uuid.UUID
		if err := rows.Scan(&actorID); err != nil {
			return nil, fmt.Errorf("scan actor id: %w", err)
		}
		out = append(out, id.ActorID(actorID))
	}
	return out, rows.Err()
}

func scanRole(row *sql.Row) (*models.Role, error) {
	var (
		role   models.Role
		roleID uuid.UUID
	)
	err := row.Scan(&roleID, &role.Name, &role.Capability, &role.Rank, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan role: %w", err)
	}
	role.ID = id.RoleID(roleID)
	return &role, nil
}

func scanRoleFromRows(rows *sql.Rows) (*models.Role, error) {
	var (
		role   models.Role
		roleID uuid.UUID
	)
	if err := rows.Scan(&roleID, &role.Name, &role.Capability, &role.Rank, &role.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan role: %w", err)
	}
	role.ID = id.RoleID(roleID)
	return &role, nil
}
