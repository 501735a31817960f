package blogservice

import (
	"github.com/sushihentaime/nexus/internal/asset"
	"github.com/sushihentaime/nexus/internal/docstore"
	"github.com/sushihentaime/nexus/internal/entity"
)

const (
	CollectionName = "blogs"
	SlugField      = "slug"
)

type Blog struct {
	docstore.Meta   `bson:",inline"`
	Image           asset.Image `bson:"image" json:"image"`
	Alt             string      `bson:"alt" json:"alt"`
	MetaTitle       string      `bson:"metaTitle" json:"metaTitle"`
	MetaDescription string      `bson:"metaDescription" json:"metaDescription"`
	Slug            string      `bson:"slug" json:"slug"`
	Title           string      `bson:"title" json:"title"`
	SubHeading      string      `bson:"subHeading" json:"subHeading"`
	// Content is stored in Markdown format.
	Content string `bson:"content" json:"content"`
}

type BlogService struct {
	s *entity.Service[Blog, *Blog]
}

type CreateBlogRequest struct {
	Image           string `json:"image"`
	Alt             string `json:"alt"`
	MetaTitle       string `json:"metaTitle"`
	MetaDescription string `json:"metaDescription"`
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	SubHeading      string `json:"subHeading"`
	Content         string `json:"content"`
}

// UpdateBlogRequest changes only the fields that are present.
type UpdateBlogRequest struct {
	ID              string  `json:"id"`
	Image           *string `json:"image"`
	Alt             *string `json:"alt"`
	MetaTitle       *string `json:"metaTitle"`
	MetaDescription *string `json:"metaDescription"`
	Slug            *string `json:"slug"`
	Title           *string `json:"title"`
	SubHeading      *string `json:"subHeading"`
	Content         *string `json:"content"`
}
