package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/caris2020/AssuranceProject/internal/reports/models"
	"github.com/caris2020/AssuranceProject/pkg/sentinel"
)

// Postgres persists reports in the reports table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const reportColumns = `id, title, beneficiaries, insureds, initiator, subscriber, case_id, status, created_by, created_at`

func (s *Postgres) Create(ctx context.Context, r *models.Report) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO reports (title, beneficiaries, insureds, initiator, subscriber, case_id, status, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		r.Title, r.Beneficiaries, r.Insureds, r.Initiator, r.Subscriber,
		r.CaseID, string(r.Status), r.CreatedBy, r.CreatedAt).
		Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id int64) (*models.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	return r, nil
}

func (s *Postgres) Update(ctx context.Context, r *models.Report) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports
		 SET title = $2, beneficiaries = $3, insureds = $4, initiator = $5,
		     subscriber = $6, case_id = $7, status = $8
		 WHERE id = $1`,
		r.ID, r.Title, r.Beneficiaries, r.Insureds, r.Initiator,
		r.Subscriber, r.CaseID, string(r.Status))
	if err != nil {
		return fmt.Errorf("update report: %w", err)
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
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
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

func (s *Postgres) List(ctx context.Context) ([]*models.Report, error) {
	return s.listQuery(ctx, `SELECT `+reportColumns+` FROM reports ORDER BY id`)
}

func (s *Postgres) ListByCreator(ctx context.Context, creator string) ([]*models.Report, error) {
	return s.listQuery(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE created_by = $1 ORDER BY id`, creator)
}

// ListRecent returns the newest reports, capped at limit.
func (s *Postgres) ListRecent(ctx context.Context, limit int) ([]*models.Report, error) {
	return s.listQuery(ctx,
		`SELECT `+reportColumns+` FROM reports ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
}

// CountByCreator returns report counts grouped by creator.
func (s *Postgres) CountByCreator(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT created_by, COUNT(*) FROM reports GROUP BY created_by`)
	if err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var creator string
		var n int64
		if err := rows.Scan(&creator, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[creator] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

func (s *Postgres) listQuery(ctx context.Context, query string, args ...any) ([]*models.Report, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []*models.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var r models.Report
	err := row.Scan(&r.ID, &r.Title, &r.Beneficiaries, &r.Insureds, &r.Initiator,
		&r.Subscriber, &r.CaseID, &r.Status, &r.CreatedBy, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
