package blogservice

import (
	"context"
	"log/slog"

	"github.com/sushihentaime/nexus/internal/asset"
	"github.com/sushihentaime/nexus/internal/common"
	"github.com/sushihentaime/nexus/internal/docstore"
	"github.com/sushihentaime/nexus/internal/entity"
)

var Kind = entity.Kind[Blog]{
	Name:        "blog",
	Label:       "Blog",
	UniqueField: SlugField,
	UniqueKey:   func(b *Blog) string { return b.Slug },
	Image:       func(b *Blog) *asset.Image { return &b.Image },
}

func NewBlogService(c docstore.Collection[Blog], assets asset.Store, releaser asset.Releaser, logger *slog.Logger) *BlogService {
	return &BlogService{s: entity.NewService[Blog](Kind, c, assets, releaser, logger)}
}

// Build turns the request into a new Blog with a normalized slug and sanitized content.
func (r CreateBlogRequest) Build() (Blog, error) {
	slug := NormalizeSlug(r.Slug)

	v := common.NewValidator()
	validateSlug(v, slug)
	if !v.Valid() {
		return Blog{}, v.ValidationError()
	}

	return Blog{
		Alt:             r.Alt,
		MetaTitle:       r.MetaTitle,
		MetaDescription: r.MetaDescription,
		Slug:            slug,
		Title:           r.Title,
		SubHeading:      r.SubHeading,
		Content:         sanitizeMarkdown(r.Content),
	}, nil
}

func (r CreateBlogRequest) ImagePayload() string {
	return r.Image
}

// Apply overwrites the fields present in the request. A blank slug is ignored.
func (r UpdateBlogRequest) Apply(old Blog) (Blog, error) {
	b := old

	if r.Slug != nil {
		if slug := NormalizeSlug(*r.Slug); slug != "" {
			v := common.NewValidator()
			validateSlug(v, slug)
			if !v.Valid() {
				return Blog{}, v.ValidationError()
			}
			b.Slug = slug
		}
	}

	set(&b.Alt, r.Alt)
	set(&b.MetaTitle, r.MetaTitle)
	set(&b.MetaDescription, r.MetaDescription)
	set(&b.Title, r.Title)
	set(&b.SubHeading, r.SubHeading)
	if r.Content != nil {
		b.Content = sanitizeMarkdown(*r.Content)
	}

	return b, nil
}

func (r UpdateBlogRequest) ImagePayload() string {
	if r.Image == nil {
		return ""
	}
	return *r.Image
}

func set(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// CreateBlog validates the request, rejects a slug that is already taken and uploads the image.
func (s *BlogService) CreateBlog(ctx context.Context, req *CreateBlogRequest) (Blog, error) {
	return s.s.Create(ctx, *req)
}

// UpdateBlog changes the fields present in the request. The id must be provided.
func (s *BlogService) UpdateBlog(ctx context.Context, req *UpdateBlogRequest) (Blog, error) {
	return s.s.Update(ctx, req.ID, *req)
}

// DeleteBlog deletes a blog post together with its image.
func (s *BlogService) DeleteBlog(ctx context.Context, id string) error {
	return s.s.Delete(ctx, id)
}

// GetBlogBySlug returns a blog post by its slug. The slug is normalized before the lookup.
func (s *BlogService) GetBlogBySlug(ctx context.Context, slug string) (Blog, error) {
	return s.s.GetBy(ctx, SlugField, NormalizeSlug(slug))
}

// GetBlogs returns a page of blog posts, newest first.
func (s *BlogService) GetBlogs(ctx context.Context, page, limit int) (entity.Page[Blog], error) {
	return s.s.List(ctx, page, limit)
}
