package blogservice

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sushihentaime/inkpost/internal/common"
	"github.com/sushihentaime/inkpost/internal/userservice"
)

const DefaultCacheTTL = 300 * time.Second

type Blog struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	// Content is stored in Markdown format.
	Content   string           `json:"content"`
	Tags      []string         `json:"tags"`
	Author    userservice.User `json:"author"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type BlogList struct {
	Data  []Blog `json:"data"`
	Total int    `json:"total"`
}

type CreateBlogRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// UpdateBlogRequest is a partial update; nil fields are left unchanged.
type UpdateBlogRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

type ListQuery struct {
	Page  int
	Limit int
	Tags  []string
}

type store interface {
	insert(ctx context.Context, blog *Blog) error
	getBlogById(ctx context.Context, id uuid.UUID) (*Blog, error)
	getBlogs(ctx context.Context, q ListQuery) (*BlogList, error)
	updateBlog(ctx context.Context, blog *Blog) error
	deleteBlog(ctx context.Context, id uuid.UUID) error
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	m      store
	c      common.Cache
	ttl    time.Duration
	logger *slog.Logger
}
