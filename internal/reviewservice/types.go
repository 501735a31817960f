package reviewservice

import (
	"github.com/sushihentaime/nexus/internal/asset"
	"github.com/sushihentaime/nexus/internal/docstore"
	"github.com/sushihentaime/nexus/internal/entity"
)

const CollectionName = "reviews"

// Review is a testimonial shown on the site.
type Review struct {
	docstore.Meta `bson:",inline"`
	Image         asset.Image `bson:"image" json:"image"`
	Alt           string      `bson:"alt" json:"alt"`
	FullName      string      `bson:"fullName" json:"fullName"`
	Statement     string      `bson:"statement" json:"statement"`
}

type ReviewService struct {
	s *entity.Service[Review, *Review]
}

type CreateReviewRequest struct {
	Image     string `json:"image"`
	Alt       string `json:"alt"`
	FullName  string `json:"fullName"`
	Statement string `json:"statement"`
}

type UpdateReviewRequest struct {
	ID        string  `json:"id"`
	Image     *string `json:"image"`
	Alt       *string `json:"alt"`
	FullName  *string `json:"fullName"`
	Statement *string `json:"statement"`
}
