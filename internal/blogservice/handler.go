package blogservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sushihentaime/inkpost/internal/common"
	"github.com/sushihentaime/inkpost/internal/userservice"
)

// NewBlogService wires the postgres store behind the cache. A zero ttl means DefaultCacheTTL.
func NewBlogService(db *sql.DB, c common.Cache, ttl time.Duration, logger *slog.Logger) *BlogService {
	return newBlogService(newBlogModel(db), c, ttl, logger)
}

func newBlogService(m store, c common.Cache, ttl time.Duration, logger *slog.Logger) *BlogService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &BlogService{m: m, c: c, ttl: ttl, logger: logger}
}

// CreateBlog stores a new post written by actor.
func (s *BlogService) CreateBlog(ctx context.Context, actor *userservice.User, req *CreateBlogRequest) (*Blog, error) {
	err := userservice.Authorize(actor, userservice.ActionCreate, uuid.Nil)
	if err != nil {
		return nil, err
	}

	tags := normalizeTags(req.Tags)
	content := sanitizeMarkdown(req.Content)

	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, content)
	validateTags(v, tags)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog := &Blog{
		Title:   req.Title,
		Content: content,
		Tags:    tags,
		Author:  *actor,
	}

	err = s.m.insert(ctx, blog)
	if err != nil {
		return nil, err
	}

	err = s.invalidate(ctx)
	if err != nil {
		return nil, err
	}

	return blog, nil
}

// GetBlogs returns one page of posts, served from the cache when possible.
func (s *BlogService) GetBlogs(ctx context.Context, q ListQuery) (*BlogList, error) {
	q.Tags = normalizeFilter(q.Tags)

	v := common.NewValidator()
	validateListQuery(v, q)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	key := common.CacheKeyBlogs(q.Page, q.Limit, q.Tags)

	var cached BlogList
	if s.lookup(ctx, key, "blogs", &cached) {
		return &cached, nil
	}

	gen, genErr := s.listGeneration(ctx)

	list, err := s.m.getBlogs(ctx, q)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		s.logger.Warn("failed to read list cache generation", "error", genErr)
		return list, nil
	}

	// the key is registered before the entry exists so a write can always find it
	err = s.c.AddToSet(ctx, common.CacheKeyBlogsIndex, key, s.ttl)
	if err != nil {
		s.logger.Warn("failed to register list cache key", "key", key, "error", err)
		return list, nil
	}

	if s.listChanged(ctx, gen) {
		return list, nil
	}

	s.store(ctx, key, list)

	// a write that finished between the check above and the store may have missed the entry
	if s.listChanged(ctx, gen) {
		err = s.c.Delete(ctx, key)
		if err != nil {
			s.logger.Warn("failed to drop stale list page", "key", key, "error", err)
		}
	}

	return list, nil
}

// listGeneration returns the current list generation, empty when none was recorded yet.
func (s *BlogService) listGeneration(ctx context.Context) (string, error) {
	data, err := s.c.Get(ctx, common.CacheKeyBlogsGeneration)
	if errors.Is(err, common.ErrCacheMiss) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *BlogService) listChanged(ctx context.Context, gen string) bool {
	current, err := s.listGeneration(ctx)
	return err != nil || current != gen
}

// GetBlogByID returns a single post, served from the cache when possible.
func (s *BlogService) GetBlogByID(ctx context.Context, id uuid.UUID) (*Blog, error) {
	key := common.CacheKeyBlog(id)

	var cached Blog
	if s.lookup(ctx, key, "blog", &cached) {
		return &cached, nil
	}

	blog, err := s.m.getBlogById(ctx, id)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, blog)

	return blog, nil
}

// UpdateBlog applies a partial update. Only the author or an admin may update a post.
func (s *BlogService) UpdateBlog(ctx context.Context, actor *userservice.User, id uuid.UUID, req *UpdateBlogRequest) (*Blog, error) {
	var (
		tags    []string
		content string
	)

	v := common.NewValidator()
	if req.Title != nil {
		validateTitle(v, *req.Title)
	}
	if req.Content != nil {
		content = sanitizeMarkdown(*req.Content)
		validateContent(v, content)
	}
	if req.Tags != nil {
		tags = normalizeTags(*req.Tags)
		validateTags(v, tags)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	current, err := s.GetBlogByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = userservice.Authorize(actor, userservice.ActionUpdate, current.Author.ID)
	if err != nil {
		return nil, err
	}

	blog := *current
	if req.Title != nil {
		blog.Title = *req.Title
	}
	if req.Content != nil {
		blog.Content = content
	}
	if req.Tags != nil {
		blog.Tags = tags
	}

	err = s.m.updateBlog(ctx, &blog)
	if err != nil {
		return nil, err
	}

	err = s.invalidate(ctx, common.CacheKeyBlog(id))
	if err != nil {
		return nil, err
	}

	return s.m.getBlogById(ctx, id)
}

// DeleteBlog removes a post. Only the author or an admin may delete a post.
func (s *BlogService) DeleteBlog(ctx context.Context, actor *userservice.User, id uuid.UUID) error {
	current, err := s.GetBlogByID(ctx, id)
	if err != nil {
		return err
	}

	err = userservice.Authorize(actor, userservice.ActionDelete, current.Author.ID)
	if err != nil {
		return err
	}

	err = s.m.deleteBlog(ctx, id)
	if err != nil {
		return err
	}

	return s.invalidate(ctx, common.CacheKeyBlog(id))
}

// lookup decodes the entry at key into dst. Cache failures are treated as misses.
func (s *BlogService) lookup(ctx context.Context, key, kind string, dst any) bool {
	data, err := s.c.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			s.logger.Warn("cache read failed", "key", key, "error", err)
		}
		common.RecordCacheMiss(kind)
		return false
	}

	err = json.Unmarshal(data, dst)
	if err != nil {
		s.logger.Warn("cache entry could not be decoded", "key", key, "error", err)
		common.RecordCacheMiss(kind)
		return false
	}

	common.RecordCacheHit(kind)
	return true
}

func (s *BlogService) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("cache entry could not be encoded", "key", key, "error", err)
		return
	}

	err = s.c.Set(ctx, key, data, s.ttl)
	if err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// invalidate drops the given keys together with every cached list page.
func (s *BlogService) invalidate(ctx context.Context, keys ...string) error {
	err := s.c.Set(ctx, common.CacheKeyBlogsGeneration, []byte(uuid.NewString()), s.ttl)
	if err != nil {
		return fmt.Errorf("advance list generation: %w", err)
	}

	pages, err := s.c.PopSet(ctx, common.CacheKeyBlogsIndex)
	if err != nil {
		return fmt.Errorf("invalidate list cache: %w", err)
	}

	keys = append(keys, pages...)
	if len(keys) == 0 {
		return nil
	}

	err = s.c.Delete(ctx, keys...)
	if err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}

	return nil
}
