// Package asset uploads entity images to an external media host and removes them again.
package asset

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// Image is the reference an entity keeps to the asset it owns.
type Image struct {
	URL      string `bson:"imageURL" json:"imageURL"`
	PublicID string `bson:"public_id" json:"public_id"`
}

// Store is what the entity services use to place and remove image assets.
type Store interface {
	Upload(ctx context.Context, payload, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

// Backend is a concrete media host. Remove must succeed for keys that do not exist.
type Backend interface {
	Put(ctx context.Context, key string, payload string) (string, error)
	Remove(ctx context.Context, key string) error
}

var ErrUnsupportedPayload = errors.New("unsupported image payload")

// UploadError reports a failed upload of the asset with the given identifier.
type UploadError struct {
	ID  string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("image upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// DeleteError reports a failed removal of the asset with the given identifier.
type DeleteError struct {
	ID  string
	Err error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("image delete failed: %v", e.Err)
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}

// NewID returns a fresh opaque asset identifier: 10 random bytes, hex encoded.
func NewID() (string, error) {
	b := make([]byte, 10)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
