// Package entity holds the create, update, delete and read flow shared by every document kind.
// A write touches two systems, the document collection and the asset store, and the order of
// the calls below keeps them consistent without a transaction.
package entity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sushihentaime/nexus/internal/asset"
	"github.com/sushihentaime/nexus/internal/common"
	"github.com/sushihentaime/nexus/internal/docstore"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Error carries the message shown to clients for ErrNotFound and ErrConflict.
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind describes one document kind.
type Kind[T any] struct {
	// Name keys the cache and labels log lines, e.g. "blog".
	Name string
	// Label starts client messages, e.g. "Blog".
	Label string

	// UniqueField is the document field that must be unique, or "" for none.
	UniqueField     string
	UniqueKey       func(*T) string
	ConflictMessage string

	// Image returns the asset reference owned by the document, or is nil when the kind owns none.
	Image func(*T) *asset.Image
}

// Draft is a create request.
type Draft[T any] interface {
	// Required lists the fields that must be present and non-blank.
	Required() map[string]any
	// Build produces the document to insert. Keys must already be normalized.
	Build() (T, error)
	// ImagePayload is the image to upload, or "".
	ImagePayload() string
}

// Patch is a partial update request.
type Patch[T any] interface {
	// Apply returns the updated document. It must not modify old.
	Apply(old T) (T, error)
	ImagePayload() string
}

// Page is one page of a listing.
type Page[T any] struct {
	Items       []T
	CurrentPage int
	TotalPages  int
	Total       int64
}

type Service[T any, P docstore.Doc[T]] struct {
	kind     Kind[T]
	c        docstore.Collection[T]
	assets   asset.Store
	releaser asset.Releaser
	cache    *common.Cache
	logger   *slog.Logger

	// gen is bumped on every write. Cache keys carry it, so a read that raced a write
	// stores its result under a generation no later read asks for.
	gen atomic.Uint64
}

func NewService[T any, P docstore.Doc[T]](kind Kind[T], c docstore.Collection[T], assets asset.Store, releaser asset.Releaser, logger *slog.Logger) *Service[T, P] {
	return &Service[T, P]{
		kind:     kind,
		c:        c,
		assets:   assets,
		releaser: releaser,
		cache:    common.NewCache(5*time.Minute, 10*time.Minute),
		logger:   logger.With(slog.String("kind", kind.Name)),
	}
}

// invalidate drops every cached read of this kind.
func (s *Service[T, P]) invalidate() {
	s.gen.Add(1)
	s.cache.Flush()
}

func (s *Service[T, P]) cacheScope() string {
	return s.kind.Name + "@" + strconv.FormatUint(s.gen.Load(), 10)
}

func (s *Service[T, P]) notFound() error {
	return &Error{Err: ErrNotFound, Message: s.kind.Label + " not found"}
}

func (s *Service[T, P]) conflict() error {
	msg := s.kind.ConflictMessage
	if msg == "" {
		msg = fmt.Sprintf("%s with this %s already exists", s.kind.Label, s.kind.UniqueField)
	}
	return &Error{Err: ErrConflict, Message: msg}
}

func (s *Service[T, P]) translate(err error) error {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return s.notFound()
	case errors.Is(err, docstore.ErrDuplicate):
		return s.conflict()
	default:
		return err
	}
}

// Create validates d, rejects duplicate keys, uploads the image and inserts the document.
func (s *Service[T, P]) Create(ctx context.Context, d Draft[T]) (T, error) {
	var zero T

	v := common.NewValidator()
	v.Require(d.Required())
	if !v.Valid() {
		return zero, v.ValidationError()
	}

	doc, err := d.Build()
	if err != nil {
		return zero, err
	}

	if err := s.checkUnique(ctx, &doc, ""); err != nil {
		return zero, err
	}

	assetID, err := s.upload(ctx, &doc, d.ImagePayload())
	if err != nil {
		return zero, err
	}

	created, err := s.c.Create(ctx, doc)
	if err != nil {
		s.discard(ctx, assetID)
		return zero, s.translate(err)
	}

	s.invalidate()
	s.logger.Info("document created", slog.String("id", P(&created).Metadata().ID))

	return created, nil
}

// Update applies p to the document with the given id and saves it. A replaced image is
// released only once the save has succeeded.
func (s *Service[T, P]) Update(ctx context.Context, id string, p Patch[T]) (T, error) {
	var zero T

	v := common.NewValidator()
	v.Require(map[string]any{"id": id})
	if !v.Valid() {
		return zero, v.ValidationError()
	}

	old, err := docstore.FindByID(ctx, s.c, id)
	if err != nil {
		return zero, s.translate(err)
	}

	updated, err := p.Apply(old)
	if err != nil {
		return zero, err
	}

	if s.kind.UniqueField != "" && s.kind.UniqueKey(&updated) != s.kind.UniqueKey(&old) {
		if err := s.checkUnique(ctx, &updated, id); err != nil {
			return zero, err
		}
	}

	var previous asset.Image
	if s.kind.Image != nil {
		previous = *s.kind.Image(&old)
	}

	assetID, err := s.upload(ctx, &updated, p.ImagePayload())
	if err != nil {
		return zero, err
	}

	saved, err := s.c.Save(ctx, updated)
	if err != nil {
		s.discard(ctx, assetID)
		return zero, s.translate(err)
	}

	s.invalidate()

	if assetID != "" && previous.PublicID != "" && previous.PublicID != assetID {
		s.release(ctx, previous.PublicID)
	}

	return saved, nil
}

// Delete removes the document's asset and then the document. When the asset cannot be
// removed the document is kept.
func (s *Service[T, P]) Delete(ctx context.Context, id string) error {
	v := common.NewValidator()
	v.Require(map[string]any{"id": id})
	if !v.Valid() {
		return v.ValidationError()
	}

	doc, err := docstore.FindByID(ctx, s.c, id)
	if err != nil {
		return s.translate(err)
	}

	if s.kind.Image != nil {
		if img := s.kind.Image(&doc); img.PublicID != "" {
			if err := s.assets.Delete(ctx, img.PublicID); err != nil {
				return err
			}
		}
	}

	if err := s.c.DeleteOne(ctx, docstore.ByID(id)); err != nil {
		return s.translate(err)
	}

	s.invalidate()
	s.logger.Info("document deleted", slog.String("id", id))

	return nil
}

// GetBy returns the document whose field equals value.
func (s *Service[T, P]) GetBy(ctx context.Context, field, value string) (T, error) {
	var zero T

	name := field
	if field == docstore.IDField {
		name = "id"
	}

	v := common.NewValidator()
	v.Require(map[string]any{name: value})
	if !v.Valid() {
		return zero, v.ValidationError()
	}

	key := common.CacheKeyDocument(s.cacheScope(), field, value)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(T), nil
	}

	doc, err := s.c.FindOne(ctx, docstore.By(field, value))
	if err != nil {
		return zero, s.translate(err)
	}

	s.cache.Set(key, doc)

	return doc, nil
}

func (s *Service[T, P]) GetByID(ctx context.Context, id string) (T, error) {
	return s.GetBy(ctx, docstore.IDField, id)
}

// List returns the given page of documents, newest first. page is bounded below at 1 and
// limit falls back to DefaultLimit when not positive.
func (s *Service[T, P]) List(ctx context.Context, page, limit int) (Page[T], error) {
	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = DefaultLimit
	}

	key := common.CacheKeyPage(s.cacheScope(), page, limit)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(Page[T]), nil
	}

	total, err := s.c.Count(ctx, docstore.All())
	if err != nil {
		return Page[T]{}, err
	}

	var items []T
	// A skip past math.MaxInt64 cannot hold any document.
	if int64(page-1) <= math.MaxInt64/int64(limit) {
		items, err = s.c.Find(ctx, docstore.All(), docstore.Page{
			Skip:  int64(page-1) * int64(limit),
			Limit: int64(limit),
		})
		if err != nil {
			return Page[T]{}, err
		}
	}

	p := Page[T]{
		Items:       items,
		CurrentPage: page,
		TotalPages:  TotalPages(total, limit),
		Total:       total,
	}
	s.cache.Set(key, p)

	return p, nil
}

// TotalPages is ceil(total / limit).
func TotalPages(total int64, limit int) int {
	if limit < 1 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func (s *Service[T, P]) checkUnique(ctx context.Context, doc *T, exceptID string) error {
	if s.kind.UniqueField == "" {
		return nil
	}

	f := docstore.By(s.kind.UniqueField, s.kind.UniqueKey(doc))
	if exceptID != "" {
		f = f.Except(exceptID)
	}

	_, err := s.c.FindOne(ctx, f)
	switch {
	case err == nil:
		return s.conflict()
	case errors.Is(err, docstore.ErrNotFound):
		return nil
	default:
		return err
	}
}

// upload stores payload under a fresh identifier and points the document's image at it.
// It returns the new identifier, or "" when there was nothing to upload.
func (s *Service[T, P]) upload(ctx context.Context, doc *T, payload string) (string, error) {
	if payload == "" || s.kind.Image == nil {
		return "", nil
	}

	id, err := asset.NewID()
	if err != nil {
		return "", err
	}

	url, err := s.assets.Upload(ctx, payload, id)
	if err != nil {
		return "", err
	}

	*s.kind.Image(doc) = asset.Image{URL: url, PublicID: id}

	return id, nil
}

// discard removes an asset uploaded for a write that then failed.
func (s *Service[T, P]) discard(ctx context.Context, id string) {
	if id == "" {
		return
	}

	if err := s.assets.Delete(context.WithoutCancel(ctx), id); err != nil {
		s.logger.Error("could not remove orphaned asset", slog.String("public_id", id), slog.String("error", err.Error()))
	}
}

func (s *Service[T, P]) release(ctx context.Context, id string) {
	if err := s.releaser.Release(context.WithoutCancel(ctx), id); err != nil {
		s.logger.Error("could not release replaced asset", slog.String("public_id", id), slog.String("error", err.Error()))
	}
}
