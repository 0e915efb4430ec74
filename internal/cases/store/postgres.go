package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/caris2020/AssuranceProject/internal/cases/models"
	"github.com/caris2020/AssuranceProject/pkg/sentinel"
)

// Postgres persists cases in the cases table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const uniqueViolation = "23505"

func (s *Postgres) Create(ctx context.Context, c *models.Case) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO cases (reference, type, status, data, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		c.Reference, string(c.Type), string(c.Status), c.Data, c.CreatedBy, c.CreatedAt).
		Scan(&c.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id int64) (*models.Case, error) {
	return s.findWhere(ctx, `id = $1`, id)
}

func (s *Postgres) FindByReference(ctx context.Context, reference string) (*models.Case, error) {
	return s.findWhere(ctx, `reference = $1`, reference)
}

func (s *Postgres) Update(ctx context.Context, c *models.Case) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cases SET status = $2, data = $3 WHERE id = $1`,
		c.ID, string(c.Status), c.Data)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Case, error) {
	return s.listWhere(ctx, ``)
}

func (s *Postgres) ListByCreator(ctx context.Context, creator string) ([]*models.Case, error) {
	return s.listWhere(ctx, `WHERE created_by = $1`, creator)
}

const caseColumns = `id, reference, type, status, data, created_by, created_at`

func (s *Postgres) findWhere(ctx context.Context, predicate string, arg any) (*models.Case, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE `+predicate, arg)
	var c models.Case
	err := row.Scan(&c.ID, &c.Reference, &c.Type, &c.Status, &c.Data, &c.CreatedBy, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan case: %w", err)
	}
	return &c, nil
}

func (s *Postgres) listWhere(ctx context.Context, clause string, args ...any) ([]*models.Case, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+caseColumns+` FROM cases `+clause+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []*models.Case
	for rows.Next() {
		var c models.Case
		if err := rows.Scan(&c.ID, &c.Reference, &c.Type, &c.Status, &c.Data, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return out, nil
}
