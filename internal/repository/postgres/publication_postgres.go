package postgres

import (
	"context"

	"maktaba/internal/model"
	"maktaba/internal/repository"
)

// PublicationPostgres is a PostgreSQL implementation of repository.PublicationRepository.
type PublicationPostgres struct {
	db dbtx
}

// NewPublicationPostgres creates a new PublicationPostgres repository.
func NewPublicationPostgres(db dbtx) *PublicationPostgres {
	return &PublicationPostgres{db: db}
}

var _ repository.PublicationRepository = (*PublicationPostgres)(nil)

const publicationColumns = `id, title, description, filename, booklet_path, audio_path, thumbnail_path, size, content_type, created_at`

func scanPublication(row interface{ Scan(...any) error }) (*model.Publication, error) {
	var p model.Publication
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Filename,
		&p.BookletPath,
		&p.AudioPath,
		&p.ThumbnailPath,
		&p.Size,
		&p.ContentType,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new publication row and returns the stored record.
func (r *PublicationPostgres) Create(ctx context.Context, pub *model.Publication) (*model.Publication, error) {
	const q = `
		INSERT INTO publications (id, title, description, filename, booklet_path, audio_path, thumbnail_path, size, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + publicationColumns
	row := r.db.QueryRowContext(ctx, q,
		pub.ID,
		pub.Title,
		pub.Description,
		pub.Filename,
		pub.BookletPath,
		pub.AudioPath,
		pub.ThumbnailPath,
		pub.Size,
		pub.ContentType,
		pub.CreatedAt,
	)
	return scanPublication(row)
}

// FindByID fetches a single publication by its ID.
func (r *PublicationPostgres) FindByID(ctx context.Context, id string) (*model.Publication, error) {
	const q = `SELECT ` + publicationColumns + ` FROM publications WHERE id = $1`
	return scanPublication(r.db.QueryRowContext(ctx, q, id))
}

// List returns publications using LIMIT/OFFSET pagination and a total count.
func (r *PublicationPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Publication], error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM publications`).Scan(&total); err != nil {
		return nil, err
	}

	const q = `SELECT ` + publicationColumns + ` FROM publications
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Publication, 0)
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Publication]{Items: items, Total: total}, nil
}

// UpdateMeta rewrites title and description; the stored objects keep
// their keys. sql.ErrNoRows surfaces when the row is gone.
func (r *PublicationPostgres) UpdateMeta(ctx context.Context, id, title, description string) (*model.Publication, error) {
	const q = `
		UPDATE publications
		SET title = $2, description = $3
		WHERE id = $1
		RETURNING ` + publicationColumns
	return scanPublication(r.db.QueryRowContext(ctx, q, id, title, description))
}

// Delete removes a publication by ID. It does not return an error if the row does not exist.
func (r *PublicationPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM publications WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
