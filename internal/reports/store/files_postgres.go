package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/caris2020/AssuranceProject/internal/reports/models"
	"github.com/caris2020/AssuranceProject/pkg/sentinel"
)

// FilesPostgres persists report file metadata in the report_files table.
type FilesPostgres struct {
	db *sql.DB
}

func NewFilesPostgres(db *sql.DB) *FilesPostgres {
	return &FilesPostgres{db: db}
}

const fileColumns = `id, report_id, file_name, content_type, size_bytes, created_at`

func (s *FilesPostgres) Create(ctx context.Context, f *models.ReportFile) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO report_files (report_id, file_name, content_type, size_bytes, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		f.ReportID, f.FileName, f.ContentType, f.Size, f.CreatedAt).
		Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("insert report file: %w", err)
	}
	return nil
}

func (s *FilesPostgres) FindByID(ctx context.Context, id int64) (*models.ReportFile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM report_files WHERE id = $1`, id)
	var f models.ReportFile
	err := row.Scan(&f.ID, &f.ReportID, &f.FileName, &f.ContentType, &f.Size, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan report file: %w", err)
	}
	return &f, nil
}

// ListByReport returns the files owned by a report, newest first.
func (s *FilesPostgres) ListByReport(ctx context.Context, reportID int64) ([]*models.ReportFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM report_files
		 WHERE report_id = $1 ORDER BY created_at DESC, id DESC`, reportID)
	if err != nil {
		return nil, fmt.Errorf("list report files: %w", err)
	}
	defer rows.Close()

	var out []*models.ReportFile
	for rows.Next() {
		var f models.ReportFile
		if err := rows.Scan(&f.ID, &f.ReportID, &f.FileName, &f.ContentType, &f.Size, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report file: %w", err)
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report files: %w", err)
	}
	return out, nil
}

func (s *FilesPostgres) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM report_files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report file: %w", err)
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
