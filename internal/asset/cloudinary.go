package asset

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryBackend hosts assets on Cloudinary. The key is used as the public id, and the
// payload is passed through untouched: Cloudinary accepts data URIs and remote URLs alike.
type CloudinaryBackend struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryBackend(cloudName, apiKey, apiSecret string) (*CloudinaryBackend, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, errors.New("cloudinary credentials are required")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to configure cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinaryBackend{cld: cld}, nil
}

func (b *CloudinaryBackend) Put(ctx context.Context, key string, payload string) (string, error) {
	res, err := b.cld.Upload.Upload(ctx, payload, uploader.UploadParams{
		PublicID:  key,
		Overwrite: api.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to cloudinary: %w", err)
	}

	if res.Error.Message != "" {
		return "", fmt.Errorf("failed to upload to cloudinary: %s", res.Error.Message)
	}

	return res.SecureURL, nil
}

func (b *CloudinaryBackend) Remove(ctx context.Context, key string) error {
	res, err := b.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:   key,
		Invalidate: api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from cloudinary: %w", err)
	}

	if res.Error.Message != "" {
		return fmt.Errorf("failed to delete from cloudinary: %s", res.Error.Message)
	}

	// "not found" means the asset is already gone.
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("failed to delete from cloudinary: %s", res.Result)
	}

	return nil
}
