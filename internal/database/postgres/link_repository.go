package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/database"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

type linkRecord struct {
	ID          int64      `db:"id"`
	ShortURL    string     `db:"short_url"`
	OriginalURL string     `db:"original_url"`
	Visibility  string     `db:"visibility"`
	OwnerID     *uuid.UUID `db:"owner_id"`
	IsActive    bool       `db:"is_active"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (r *linkRecord) ToShortLink() *models.ShortLink {
	return &models.ShortLink{
		ID:          r.ID,
		ShortURL:    r.ShortURL,
		OriginalURL: r.OriginalURL,
		Visibility:  models.Visibility(r.Visibility),
		OwnerID:     r.OwnerID,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
	}
}

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{
		db: db,
	}
}

func (r *LinkRepository) Create(ctx context.Context, shortURL, originalURL string, visibility models.Visibility, ownerID *uuid.UUID) (*models.ShortLink, error) {
	const op = "database.postgres.LinkRepository.Create"

	rec := new(linkRecord)
	query := `INSERT INTO short_links(short_url, original_url, visibility, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, shortURL, originalURL, string(visibility), ownerID)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkExists)
		}

		return nil, fmt.Errorf("%s: failed to create link record: %w", op, err)
	}

	return rec.ToShortLink(), nil
}

func (r *LinkRepository) GetByShortURL(ctx context.Context, shortURL string) (*models.ShortLink, error) {
	const op = "database.postgres.LinkRepository.GetByShortURL"

	rec := new(linkRecord)
	query := `SELECT * FROM short_links WHERE short_url = $1`

	err := r.db.GetContext(ctx, rec, query, shortURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToShortLink(), nil
}

func (r *LinkRepository) GetByID(ctx context.Context, id int64) (*models.ShortLink, error) {
	const op = "database.postgres.LinkRepository.GetByID"

	rec := new(linkRecord)
	query := `SELECT * FROM short_links WHERE id = $1`

	err := r.db.GetContext(ctx, rec, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToShortLink(), nil
}

func (r *LinkRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, activeOnly bool) ([]*models.ShortLink, error) {
	const op = "database.postgres.LinkRepository.ListByOwner"

	var recs []linkRecord
	query := `SELECT * FROM short_links WHERE owner_id = $1 ORDER BY id`
	if activeOnly {
		query = `SELECT * FROM short_links WHERE owner_id = $1 AND is_active ORDER BY id`
	}

	if err := r.db.SelectContext(ctx, &recs, query, ownerID); err != nil {
		return nil, fmt.Errorf("%s: failed to list link records: %w", op, err)
	}

	links := make([]*models.ShortLink, 0, len(recs))
	for i := range recs {
		links = append(links, recs[i].ToShortLink())
	}

	return links, nil
}

func (r *LinkRepository) SoftDelete(ctx context.Context, id int64) error {
	const op = "database.postgres.LinkRepository.SoftDelete"

	query := `UPDATE short_links SET is_active = FALSE WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: failed to soft delete link record: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
	}

	return nil
}

func (r *LinkRepository) UpdateVisibility(ctx context.Context, id int64, visibility models.Visibility) (*models.ShortLink, error) {
	const op = "database.postgres.LinkRepository.UpdateVisibility"

	rec := new(linkRecord)
	query := `UPDATE short_links
		SET visibility = $1
		WHERE id = $2
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, string(visibility), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update link record: %w", op, err)
	}

	return rec.ToShortLink(), nil
}
