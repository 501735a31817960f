package blogservice

import (
	"github.com/sushihentaime/nexus/internal/common"
)

func (r CreateBlogRequest) Required() map[string]any {
	return map[string]any{
		"image":           r.Image,
		"alt":             r.Alt,
		"metaTitle":       r.MetaTitle,
		"metaDescription": r.MetaDescription,
		"slug":            r.Slug,
		"title":           r.Title,
		"subHeading":      r.SubHeading,
		"content":         r.Content,
	}
}

func validateSlug(v *common.Validator, slug string) {
	v.Check(slug != "", "slug", "must not be blank")
	v.Check(len(slug) <= 200, "slug", "must not be more than 200 characters long")
}
