package docstore

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// memoryCollection is an in-process Collection used by tests and local development.
// Documents are matched on their bson encoding, so filters behave as they do in MongoDB.
type memoryCollection[T any, P Doc[T]] struct {
	mu     sync.RWMutex
	docs   []T
	unique []string
}

func NewMemoryCollection[T any, P Doc[T]](unique ...string) Collection[T] {
	return &memoryCollection[T, P]{unique: unique}
}

func field(doc any, name string) (string, bool) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return "", false
	}

	return bson.Raw(raw).Lookup(name).StringValueOK()
}

func (c *memoryCollection[T, P]) matches(doc *T, f Filter) bool {
	if f.ExcludeID != "" && P(doc).Metadata().ID == f.ExcludeID {
		return false
	}

	switch f.Field {
	case "":
		return true
	case IDField:
		return P(doc).Metadata().ID == f.Value
	}

	v, ok := field(*doc, f.Field)
	return ok && v == f.Value
}

// sorted returns the matching documents newest first; equal timestamps keep the most
// recently inserted document first.
func (c *memoryCollection[T, P]) sorted(f Filter) []T {
	var out []T
	for i := len(c.docs) - 1; i >= 0; i-- {
		if c.matches(&c.docs[i], f) {
			out = append(out, c.docs[i])
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return P(&out[i]).Metadata().CreatedAt.After(P(&out[j]).Metadata().CreatedAt)
	})

	return out
}

func (c *memoryCollection[T, P]) Find(ctx context.Context, filter Filter, page Page) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	docs := c.sorted(filter)

	start := min(max(page.Skip, 0), int64(len(docs)))
	end := int64(len(docs))
	if page.Limit > 0 && page.Limit < end-start {
		end = start + page.Limit
	}

	return append([]T{}, docs[start:end]...), nil
}

func (c *memoryCollection[T, P]) Count(ctx context.Context, filter Filter) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int64
	for i := range c.docs {
		if c.matches(&c.docs[i], filter) {
			n++
		}
	}

	return n, nil
}

func (c *memoryCollection[T, P]) FindOne(ctx context.Context, filter Filter) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	docs := c.sorted(filter)
	if len(docs) == 0 {
		var zero T
		return zero, ErrNotFound
	}

	return docs[0], nil
}

// violates reports whether doc collides on a unique field with another stored document.
func (c *memoryCollection[T, P]) violates(doc *T) bool {
	id := P(doc).Metadata().ID

	for _, name := range c.unique {
		v, ok := field(*doc, name)
		if !ok {
			continue
		}

		for i := range c.docs {
			if c.matches(&c.docs[i], Filter{Field: name, Value: v, ExcludeID: id}) {
				return true
			}
		}
	}

	return false
}

func (c *memoryCollection[T, P]) Create(ctx context.Context, doc T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stamp[T, P](&doc)

	if c.violates(&doc) {
		var zero T
		return zero, ErrDuplicate
	}

	c.docs = append(c.docs, doc)

	return doc, nil
}

func (c *memoryCollection[T, P]) Save(ctx context.Context, doc T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	id := P(&doc).Metadata().ID

	for i := range c.docs {
		if P(&c.docs[i]).Metadata().ID != id {
			continue
		}

		touch[T, P](&doc)
		if c.violates(&doc) {
			return zero, ErrDuplicate
		}

		c.docs[i] = doc
		return doc, nil
	}

	return zero, ErrNotFound
}

func (c *memoryCollection[T, P]) DeleteOne(ctx context.Context, filter Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	docs := c.sorted(filter)
	if len(docs) == 0 {
		return ErrNotFound
	}

	id := P(&docs[0]).Metadata().ID
	for i := range c.docs {
		if P(&c.docs[i]).Metadata().ID == id {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			break
		}
	}

	return nil
}
