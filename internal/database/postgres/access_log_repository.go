package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

type accessLogRecord struct {
	ID             int64     `db:"id"`
	ShortLinkID    int64     `db:"short_link_id"`
	ConnectionInfo string    `db:"connection_info"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r *accessLogRecord) ToAccessLog() *models.AccessLog {
	return &models.AccessLog{
		ID:             r.ID,
		ShortLinkID:    r.ShortLinkID,
		ConnectionInfo: r.ConnectionInfo,
		CreatedAt:      r.CreatedAt,
	}
}

type AccessLogRepository struct {
	db *sqlx.DB
}

func NewAccessLogRepository(db *sqlx.DB) *AccessLogRepository {
	return &AccessLogRepository{
		db: db,
	}
}

func (r *AccessLogRepository) Append(ctx context.Context, linkID int64, connectionInfo string) error {
	const op = "database.postgres.AccessLogRepository.Append"

	query := `INSERT INTO access_logs(short_link_id, connection_info) VALUES ($1, $2)`

	if _, err := r.db.ExecContext(ctx, query, linkID, connectionInfo); err != nil {
		return fmt.Errorf("%s: failed to append access log record: %w", op, err)
	}

	return nil
}

func (r *AccessLogRepository) ListByLink(ctx context.Context, linkID int64, offset, limit int) ([]*models.AccessLog, error) {
	const op = "database.postgres.AccessLogRepository.ListByLink"

	var recs []accessLogRecord
	query := `SELECT * FROM access_logs
		WHERE short_link_id = $1
		ORDER BY id
		OFFSET $2 LIMIT $3`

	if err := r.db.SelectContext(ctx, &recs, query, linkID, offset, limit); err != nil {
		return nil, fmt.Errorf("%s: failed to list access log records: %w", op, err)
	}

	logs := make([]*models.AccessLog, 0, len(recs))
	for i := range recs {
		logs = append(logs, recs[i].ToAccessLog())
	}

	return logs, nil
}

func (r *AccessLogRepository) CountByLink(ctx context.Context, linkID int64) (int64, error) {
	const op = "database.postgres.AccessLogRepository.CountByLink"

	var count int64
	query := `SELECT COUNT(*) FROM access_logs WHERE short_link_id = $1`

	if err := r.db.GetContext(ctx, &count, query, linkID); err != nil {
		return 0, fmt.Errorf("%s: failed to count access log records: %w", op, err)
	}

	return count, nil
}
