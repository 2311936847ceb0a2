package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUserForeignKey = errors.New("author_id does not exist")
)

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

// ForeignKeyError is a helper function to check if the error is a foreign key constraint error.
func ForeignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23503" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

func (m *BlogModel) insert(ctx context.Context, blog *Blog) error {
	query := `
		INSERT INTO blogs (id, title, content, tags, author_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	blog.ID = uuid.New()

	args := []any{blog.ID, blog.Title, blog.Content, pq.Array(nonNil(blog.Tags)), blog.Author.ID}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&blog.CreatedAt, &blog.UpdatedAt)
	if err != nil {
		switch {
		case ForeignKeyError(err, "blogs_author_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	return nil
}

const blogColumns = `
		b.id, b.title, b.content, b.tags, b.created_at, b.updated_at,
		u.id, u.username, u.email, u.role, u.created_at, u.updated_at`

func scanBlog(row interface{ Scan(...any) error }) (*Blog, error) {
	var blog Blog
	err := row.Scan(
		&blog.ID, &blog.Title, &blog.Content, pq.Array(&blog.Tags), &blog.CreatedAt, &blog.UpdatedAt,
		&blog.Author.ID, &blog.Author.Username, &blog.Author.Email, &blog.Author.Role, &blog.Author.CreatedAt, &blog.Author.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	blog.Tags = nonNil(blog.Tags)

	return &blog, nil
}

// getBlogById is a method to get a blog by its ID joining the users table to resolve the author.
func (m *BlogModel) getBlogById(ctx context.Context, id uuid.UUID) (*Blog, error) {
	query := `
		SELECT ` + blogColumns + `
		FROM blogs b
		JOIN users u ON b.author_id = u.id
		WHERE b.id = $1`

	blog, err := scanBlog(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return blog, nil
}

// getBlogs returns one page of posts, newest first, whose tags contain every tag in q.Tags,
// together with the number of matching posts across all pages.
func (m *BlogModel) getBlogs(ctx context.Context, q ListQuery) (*BlogList, error) {
	tags := pq.Array(nonNil(q.Tags))

	countQuery := `
		SELECT count(*)
		FROM blogs
		WHERE cardinality($1::text[]) = 0 OR tags @> $1::text[]`

	list := BlogList{Data: []Blog{}}

	err := m.db.QueryRowContext(ctx, countQuery, tags).Scan(&list.Total)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + blogColumns + `
		FROM blogs b
		JOIN users u ON b.author_id = u.id
		WHERE cardinality($1::text[]) = 0 OR b.tags @> $1::text[]
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $2 OFFSET $3`

	rows, err := m.db.QueryContext(ctx, query, tags, q.Limit, pageOffset(q.Page, q.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		list.Data = append(list.Data, *blog)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &list, nil
}

// updateBlog writes title, content and tags. The author is never changed.
func (m *BlogModel) updateBlog(ctx context.Context, blog *Blog) error {
	query := `
		UPDATE blogs
		SET title = $1, content = $2, tags = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at`

	err := m.db.QueryRowContext(ctx, query, blog.Title, blog.Content, pq.Array(nonNil(blog.Tags)), blog.ID).Scan(&blog.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) deleteBlog(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM blogs
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

// nonNil keeps empty tag lists as '{}' rather than NULL.
func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// pageOffset returns the row offset of page, saturating at math.MaxInt64 for pages
// that lie far beyond any stored data.
func pageOffset(page, limit int) int64 {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if int64(page-1) > math.MaxInt64/int64(limit) {
		return math.MaxInt64
	}
	return int64(page-1) * int64(limit)
}
