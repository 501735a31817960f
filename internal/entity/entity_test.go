package entity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/nexus/internal/asset"
	"github.com/sushihentaime/nexus/internal/common"
	"github.com/sushihentaime/nexus/internal/docstore"
)

type post struct {
	docstore.Meta `bson:",inline"`
	Image         asset.Image `bson:"image"`
	Slug          string      `bson:"slug"`
	Title         string      `bson:"title"`
}

var postKind = Kind[post]{
	Name:        "post",
	Label:       "Post",
	UniqueField: "slug",
	UniqueKey:   func(p *post) string { return p.Slug },
	Image:       func(p *post) *asset.Image { return &p.Image },
}

type postDraft struct {
	Slug  string
	Title string
	Image string
}

func (d postDraft) Required() map[string]any {
	return map[string]any{"slug": d.Slug, "title": d.Title, "image": d.Image}
}

func (d postDraft) Build() (post, error) {
	return post{Slug: strings.ToLower(d.Slug), Title: d.Title}, nil
}

func (d postDraft) ImagePayload() string {
	return d.Image
}

type postPatch struct {
	Slug  *string
	Title *string
	Image *string
}

func (p postPatch) Apply(old post) (post, error) {
	if p.Slug != nil {
		old.Slug = strings.ToLower(*p.Slug)
	}
	if p.Title != nil {
		old.Title = *p.Title
	}
	return old, nil
}

func (p postPatch) ImagePayload() string {
	if p.Image == nil {
		return ""
	}
	return *p.Image
}

type recordingReleaser struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingReleaser) Release(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	return nil
}

// failingCollection makes Save fail while delegating everything else.
type failingCollection struct {
	docstore.Collection[post]
}

func (c failingCollection) Save(ctx context.Context, doc post) (post, error) {
	return post{}, errors.New("connection reset")
}

// gatedCollection holds its first Find until release is closed.
type gatedCollection struct {
	docstore.Collection[post]
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (c *gatedCollection) Find(ctx context.Context, filter docstore.Filter, page docstore.Page) ([]post, error) {
	docs, err := c.Collection.Find(ctx, filter, page)
	c.once.Do(func() {
		close(c.entered)
		<-c.release
	})
	return docs, err
}

type fixture struct {
	svc      *Service[post, *post]
	c        docstore.Collection[post]
	backend  *asset.MemoryBackend
	releaser *recordingReleaser
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := docstore.NewMemoryCollection[post]("slug")
	backend := asset.NewMemoryBackend()
	releaser := &recordingReleaser{}

	return fixture{
		svc:      NewService[post](postKind, c, asset.NewAdapter(backend, "", logger), releaser, logger),
		c:        c,
		backend:  backend,
		releaser: releaser,
	}
}

func strPtr(s string) *string {
	return &s
}

func count(t *testing.T, c docstore.Collection[post]) int64 {
	t.Helper()
	n, err := c.Count(context.Background(), docstore.All())
	require.NoError(t, err)
	return n
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("stores document and asset", func(t *testing.T) {
		f := newFixture(t)

		p, err := f.svc.Create(ctx, postDraft{Slug: "Hello", Title: "Hello", Image: "img"})
		require.NoError(t, err)
		assert.Equal(t, "hello", p.Slug)
		assert.NotEmpty(t, p.ID)
		assert.Len(t, p.Image.PublicID, 20)
		assert.Equal(t, "memory://"+p.Image.PublicID, p.Image.URL)
		assert.True(t, f.backend.Has(p.Image.PublicID))
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(ctx, postDraft{Slug: "  ", Image: "img"})
		var verr common.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"slug", "title"}, verr.Fields())
		assert.Zero(t, count(t, f.c))
		assert.Zero(t, f.backend.Len())
	})

	t.Run("duplicate key", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(ctx, postDraft{Slug: "my-post", Title: "a", Image: "img"})
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, postDraft{Slug: "MY-POST", Title: "b", Image: "img"})
		assert.ErrorIs(t, err, ErrConflict)
		assert.EqualError(t, err, "Post with this slug already exists")
		assert.EqualValues(t, 1, count(t, f.c))
		assert.Equal(t, 1, f.backend.Len())
	})

	t.Run("upload failure persists nothing", func(t *testing.T) {
		f := newFixture(t)
		f.backend.SetFailures(true, false)

		_, err := f.svc.Create(ctx, postDraft{Slug: "a", Title: "a", Image: "img"})
		var uerr *asset.UploadError
		require.ErrorAs(t, err, &uerr)
		assert.Zero(t, count(t, f.c))
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update keeps other fields", func(t *testing.T) {
		f := newFixture(t)
		orig, err := f.svc.Create(ctx, postDraft{Slug: "a", Title: "a", Image: "img"})
		require.NoError(t, err)

		got, err := f.svc.Update(ctx, orig.ID, postPatch{Title: strPtr("changed")})
		require.NoError(t, err)
		assert.Equal(t, "changed", got.Title)
		assert.Equal(t, orig.Slug, got.Slug)
		assert.Equal(t, orig.Image, got.Image)
		assert.Equal(t, orig.CreatedAt, got.CreatedAt)
		assert.Empty(t, f.releaser.ids)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Update(ctx, "missing", postPatch{Title: strPtr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.EqualError(t, err, "Post not found")
	})

	t.Run("missing id", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Update(ctx, "", postPatch{})
		var verr common.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"id"}, verr.Fields())
	})

	t.Run("slug conflict with another document", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, postDraft{Slug: "a", Title: "a", Image: "img"})
		require.NoError(t, err)
		b, err := f.svc.Create(ctx, postDraft{Slug: "b", Title: "b", Image: "img"})
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, b.ID, postPatch{Slug: strPtr("A"), Image: strPtr("new")})
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, 2, f.backend.Len())

		// keeping its own slug is not a conflict
		_, err = f.svc.Update(ctx, b.ID, postPatch{Slug: strPtr("B")})
		require.NoError(t, err)
	})

	t.Run("image replacement releases the old asset after save", func(t *testing.T) {
		f := newFixture(t)
		orig, err := f.svc.Create(ctx, postDraft{Slug: "a", Title: "a", Image: "img"})
		require.NoError(t, err)

		got, err := f.svc.Update(ctx, orig.ID, postPatch{Image: strPtr("new")})
		require.NoError(t, err)
		assert.NotEqual(t, orig.Image.PublicID, got.Image.PublicID)
		assert.True(t, f.backend.Has(got.Image.PublicID))
		assert.Equal(t, []string{orig.Image.PublicID}, f.releaser.ids)
	})

	t.Run("upload failure leaves the document unchanged", func(t *testing.T) {
		f := newFixture(t)
		orig, err := f.svc.Create(ctx, postDraft{Slug: "a", Title: "a", Image: "img"})
		require.NoError(t, err)

		f.backend.SetFailures(true, false)
		_, err = f.svc.Update(ctx, orig.ID, postPatch{Title: strPtr("changed"), Image: strPtr("new")})
		var uerr *asset.UploadError
		require.ErrorAs(t, err, &uerr)

		got, err := docstore.FindByID(ctx, f.c, orig.ID)
		require.NoError(t, err)
		assert.Equal(t, "a", got.Title)
		assert.Equal(t, orig.Image, got.Image)
		assert.Empty(t, f.releaser.ids)
	})

	t.Run("save failure discards the new asset", func(t *testing.T) {
		f := newFixture(t)
		orig, err := f.svc.Create(ctx, postDraft{Slug: "a", Title: "a", Image: "img"})
		require.NoError(t, err)

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		svc := NewService[post](postKind, failingCollection{f.c}, asset.NewAdapter(f.backend, "", logger), f.releaser, logger)

		_, err = svc.Update(ctx, orig.ID, postPatch{Image: strPtr("new")})
		require.Error(t, err)
		assert.Equal(t, 1, f.backend.Len())
		assert.True(t, f.backend.Has(orig.Image.PublicID))
		assert.Empty(t, f.releaser.ids)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes asset and document", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.svc.Create(ctx, postDraft{Slug: "a", Title: "a", Image: "img"})
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, p.ID))
		assert.Zero(t, count(t, f.c))
		assert.Zero(t, f.backend.Len())
	})

	t.Run("asset delete failure keeps the document", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.svc.Create(ctx, postDraft{Slug: "a", Title: "a", Image: "img"})
		require.NoError(t, err)

		f.backend.SetFailures(false, true)
		err = f.svc.Delete(ctx, p.ID)
		var derr *asset.DeleteError
		require.ErrorAs(t, err, &derr)
		assert.EqualValues(t, 1, count(t, f.c))
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)

		err := f.svc.Delete(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGetBy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.svc.Create(ctx, postDraft{Slug: "a", Title: "a", Image: "img"})
	require.NoError(t, err)

	got, err := f.svc.GetBy(ctx, "slug", "a")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	got, err = f.svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Slug)

	_, err = f.svc.GetBy(ctx, "slug", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.GetByID(ctx, "")
	var verr common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"id"}, verr.Fields())

	// writes flush the cache
	_, err = f.svc.Update(ctx, p.ID, postPatch{Title: strPtr("changed")})
	require.NoError(t, err)
	got, err = f.svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Title)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, slug := range []string{"first", "second", "third"} {
		_, err := f.svc.Create(ctx, postDraft{Slug: slug, Title: slug, Image: "img"})
		require.NoError(t, err)
	}

	tests := []struct {
		name        string
		page, limit int
		wantPage    int
		wantPages   int
		wantSlugs   []string
	}{
		{name: "second of three", page: 2, limit: 1, wantPage: 2, wantPages: 3, wantSlugs: []string{"second"}},
		{name: "defaults", page: 0, limit: 0, wantPage: 1, wantPages: 1, wantSlugs: []string{"third", "second", "first"}},
		{name: "partial last page", page: 2, limit: 2, wantPage: 2, wantPages: 2, wantSlugs: []string{"first"}},
		{name: "past the end", page: 4, limit: 1, wantPage: 4, wantPages: 3, wantSlugs: nil},
		{name: "skip beyond int64", page: math.MaxInt64/2 + 2, limit: 2, wantPage: math.MaxInt64/2 + 2, wantPages: 2, wantSlugs: nil},
		{name: "largest page", page: math.MaxInt64, limit: MaxLimit, wantPage: math.MaxInt64, wantPages: 1, wantSlugs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := f.svc.List(ctx, tt.page, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, p.CurrentPage)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.EqualValues(t, 3, p.Total)

			var slugs []string
			for _, item := range p.Items {
				slugs = append(slugs, item.Slug)
			}
			assert.Equal(t, tt.wantSlugs, slugs)
		})
	}
}

func TestListDoesNotCacheAcrossWrites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	gated := &gatedCollection{Collection: f.c, entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService[post](postKind, gated, asset.NewAdapter(f.backend, "", logger), f.releaser, logger)

	done := make(chan Page[post])
	go func() {
		p, err := svc.List(ctx, 1, 10)
		assert.NoError(t, err)
		done <- p
	}()

	select {
	case <-gated.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("list never reached the store")
	}

	_, err := svc.Create(ctx, postDraft{Slug: "late", Title: "late", Image: "img"})
	require.NoError(t, err)

	close(gated.release)
	stale := <-done
	assert.Empty(t, stale.Items)

	p, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "late", p.Items[0].Slug)
	assert.EqualValues(t, 1, p.Total)

	got, err := svc.GetBy(ctx, "slug", "late")
	require.NoError(t, err)
	assert.Equal(t, "late", got.Title)
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{3, 1, 3},
		{5, 0, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.total, tt.limit))
	}
}
