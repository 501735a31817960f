package blogservice

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/nexus/internal/asset"
	"github.com/sushihentaime/nexus/internal/common"
	"github.com/sushihentaime/nexus/internal/docstore"
	"github.com/sushihentaime/nexus/internal/entity"
)

func setupTestEnvironment(t *testing.T, c docstore.Collection[Blog]) (*BlogService, *asset.MemoryBackend) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := asset.NewMemoryBackend()
	store := asset.NewAdapter(backend, "nexus", logger)

	return NewBlogService(c, store, asset.DirectReleaser{Store: store}, logger), backend
}

func newRequest(slug string) *CreateBlogRequest {
	return &CreateBlogRequest{
		Image:           "data:image/png;base64,iVBORw0KGgo=",
		Alt:             "alt",
		MetaTitle:       "meta title",
		MetaDescription: "meta description",
		Slug:            slug,
		Title:           "Title",
		SubHeading:      "Sub heading",
		Content:         "# Content",
	}
}

func strPtr(s string) *string {
	return &s
}

func TestNormalizeSlug(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{input: "My Post", want: "my-post"},
		{input: "  My   Post  ", want: "my-post"},
		{input: "my-post", want: "my-post"},
		{input: "Tabs\tand\nnewlines", want: "tabs-and-newlines"},
		{input: "   ", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got := NormalizeSlug(tc.input)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, NormalizeSlug(got), "normalization must be idempotent")
		})
	}
}

func exerciseBlogService(t *testing.T, c docstore.Collection[Blog]) {
	ctx := context.Background()
	s, backend := setupTestEnvironment(t, c)

	created, err := s.CreateBlog(ctx, newRequest("My Post"))
	require.NoError(t, err)
	assert.Equal(t, "my-post", created.Slug)
	assert.NotEmpty(t, created.Image.PublicID)
	assert.True(t, backend.Has("nexus/"+created.Image.PublicID))

	t.Run("conflicting slug", func(t *testing.T) {
		_, err := s.CreateBlog(ctx, newRequest("My   Post"))
		assert.ErrorIs(t, err, entity.ErrConflict)
		assert.EqualError(t, err, "Blog with this slug already exists")

		n, err := c.Count(ctx, docstore.All())
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("missing fields", func(t *testing.T) {
		req := newRequest("other")
		req.Title = ""
		req.Image = " "

		_, err := s.CreateBlog(ctx, req)
		var verr common.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"image", "title"}, verr.Fields())
	})

	t.Run("get by slug", func(t *testing.T) {
		b, err := s.GetBlogBySlug(ctx, "MY POST")
		require.NoError(t, err)
		assert.Equal(t, created.ID, b.ID)

		_, err = s.GetBlogBySlug(ctx, "missing")
		assert.ErrorIs(t, err, entity.ErrNotFound)
	})

	t.Run("update title only", func(t *testing.T) {
		b, err := s.UpdateBlog(ctx, &UpdateBlogRequest{ID: created.ID, Title: strPtr("New title")})
		require.NoError(t, err)
		assert.Equal(t, "New title", b.Title)
		assert.Equal(t, created.Slug, b.Slug)
		assert.Equal(t, created.Image, b.Image)
		assert.Equal(t, created.Content, b.Content)
	})

	t.Run("update slug and image", func(t *testing.T) {
		b, err := s.UpdateBlog(ctx, &UpdateBlogRequest{ID: created.ID, Slug: strPtr("Renamed Post"), Image: strPtr("data:image/png;base64,AAAA")})
		require.NoError(t, err)
		assert.Equal(t, "renamed-post", b.Slug)
		assert.NotEqual(t, created.Image.PublicID, b.Image.PublicID)
		assert.False(t, backend.Has("nexus/"+created.Image.PublicID))
		assert.True(t, backend.Has("nexus/"+b.Image.PublicID))
		created = b
	})

	t.Run("list", func(t *testing.T) {
		_, err := s.CreateBlog(ctx, newRequest("second"))
		require.NoError(t, err)

		page, err := s.GetBlogs(ctx, 1, 1)
		require.NoError(t, err)
		assert.EqualValues(t, 2, page.Total)
		assert.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "second", page.Items[0].Slug)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteBlog(ctx, created.ID))
		assert.False(t, backend.Has("nexus/"+created.Image.PublicID))

		err := s.DeleteBlog(ctx, created.ID)
		assert.ErrorIs(t, err, entity.ErrNotFound)
	})
}

func TestBlogService(t *testing.T) {
	exerciseBlogService(t, docstore.NewMemoryCollection[Blog](SlugField))
}

func TestBlogServicePostgres(t *testing.T) {
	db := common.TestDB(t)
	exerciseBlogService(t, docstore.NewPostgresCollection[Blog](db, CollectionName))
}

func TestCreateBlogSanitizesContent(t *testing.T) {
	s, _ := setupTestEnvironment(t, docstore.NewMemoryCollection[Blog](SlugField))

	req := newRequest("xss")
	req.Content = "text<script>alert(1)</script>"

	b, err := s.CreateBlog(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "text", b.Content)
}
