// Package docstore persists documents of one kind per collection. Documents are plain structs
// with bson tags that embed Meta; every backend encodes them through bson so field names are the
// same in MongoDB, in the PostgreSQL JSONB column and in the memory store.
package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

// IDField is the document field holding the identifier.
const IDField = "_id"

// Meta is the identity and timestamp pair maintained by the store.
type Meta struct {
	ID        string    `bson:"_id" json:"id"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (m *Meta) Metadata() *Meta {
	return m
}

// Doc is satisfied by a pointer to any struct embedding Meta.
type Doc[T any] interface {
	*T
	Metadata() *Meta
}

// Filter selects documents whose string field equals Value. An empty Field matches every
// document. ExcludeID drops the document with that id from the match.
type Filter struct {
	Field     string
	Value     string
	ExcludeID string
}

func All() Filter {
	return Filter{}
}

func ByID(id string) Filter {
	return Filter{Field: IDField, Value: id}
}

func By(field, value string) Filter {
	return Filter{Field: field, Value: value}
}

func (f Filter) Except(id string) Filter {
	f.ExcludeID = id
	return f
}

// Page bounds a Find. Results are always sorted by creation time, newest first.
type Page struct {
	Skip  int64
	Limit int64
}

// Collection is the repository of one document kind.
type Collection[T any] interface {
	Find(ctx context.Context, filter Filter, page Page) ([]T, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	FindOne(ctx context.Context, filter Filter) (T, error)
	Create(ctx context.Context, doc T) (T, error)
	Save(ctx context.Context, doc T) (T, error)
	DeleteOne(ctx context.Context, filter Filter) error
}

// FindByID is FindOne by identifier.
func FindByID[T any](ctx context.Context, c Collection[T], id string) (T, error) {
	return c.FindOne(ctx, ByID(id))
}

var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// stamp assigns a fresh id and both timestamps to a document about to be inserted.
func stamp[T any, P Doc[T]](doc *T) {
	m := P(doc).Metadata()
	t := now()
	m.ID = uuid.NewString()
	m.CreatedAt = t
	m.UpdatedAt = t
}

// touch bumps the update timestamp of a document about to be saved.
func touch[T any, P Doc[T]](doc *T) {
	P(doc).Metadata().UpdatedAt = now()
}
