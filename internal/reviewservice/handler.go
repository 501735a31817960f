package reviewservice

import (
	"context"
	"log/slog"

	"github.com/sushihentaime/nexus/internal/asset"
	"github.com/sushihentaime/nexus/internal/docstore"
	"github.com/sushihentaime/nexus/internal/entity"
)

var Kind = entity.Kind[Review]{
	Name:  "review",
	Label: "Review",
	Image: func(r *Review) *asset.Image { return &r.Image },
}

func NewReviewService(c docstore.Collection[Review], assets asset.Store, releaser asset.Releaser, logger *slog.Logger) *ReviewService {
	return &ReviewService{s: entity.NewService[Review](Kind, c, assets, releaser, logger)}
}

func (r CreateReviewRequest) Required() map[string]any {
	return map[string]any{
		"image":     r.Image,
		"alt":       r.Alt,
		"fullName":  r.FullName,
		"statement": r.Statement,
	}
}

func (r CreateReviewRequest) Build() (Review, error) {
	return Review{
		Alt:       r.Alt,
		FullName:  r.FullName,
		Statement: r.Statement,
	}, nil
}

func (r CreateReviewRequest) ImagePayload() string {
	return r.Image
}

func (r UpdateReviewRequest) Apply(old Review) (Review, error) {
	rv := old
	if r.Alt != nil {
		rv.Alt = *r.Alt
	}
	if r.FullName != nil {
		rv.FullName = *r.FullName
	}
	if r.Statement != nil {
		rv.Statement = *r.Statement
	}
	return rv, nil
}

func (r UpdateReviewRequest) ImagePayload() string {
	if r.Image == nil {
		return ""
	}
	return *r.Image
}

func (s *ReviewService) CreateReview(ctx context.Context, req *CreateReviewRequest) (Review, error) {
	return s.s.Create(ctx, *req)
}

func (s *ReviewService) UpdateReview(ctx context.Context, req *UpdateReviewRequest) (Review, error) {
	return s.s.Update(ctx, req.ID, *req)
}

// DeleteReview removes the review's image first and then the review.
func (s *ReviewService) DeleteReview(ctx context.Context, id string) error {
	return s.s.Delete(ctx, id)
}

func (s *ReviewService) GetReview(ctx context.Context, id string) (Review, error) {
	return s.s.GetByID(ctx, id)
}

func (s *ReviewService) GetReviews(ctx context.Context, page, limit int) (entity.Page[Review], error) {
	return s.s.List(ctx, page, limit)
}
