package postservice

import (
	"strings"

	"github.com/sushihentaime/inkpost/internal/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const contentsField = "contents"

// listableFields are the projection fields a list may ask for.
var listableFields = map[string]bool{
	"_id":        true,
	"postNumber": true,
	"title":      true,
	"author":     true,
	"thumbnail":  true,
	"images":     true,
	"createdAt":  true,
	"updatedAt":  true,
	"isDeleted":  true,
	"deletedAt":  true,
}

func validateTitle(v *common.Validator, title string) {
	v.Check(strings.TrimSpace(title) != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 1, 300), "title", "must be between 1 and 300 characters long")
}

func validateImages(v *common.Validator, images []common.Image) {
	for _, img := range images {
		v.Check(img.Key != "" && img.Src != "", "images", "must reference uploaded images")
	}
}

func validateAuthor(v *common.Validator, author primitive.ObjectID) {
	v.Check(!author.IsZero(), "author", "must be provided")
}

// projection turns the requested fields into a projection document. Requests for
// the body field, or for fields posts do not have, are rejected.
func projection(v *common.Validator, fields []string) bson.M {
	if len(fields) == 0 {
		return bson.M{contentsField: 0}
	}

	p := bson.M{}
	for _, f := range fields {
		switch {
		case f == contentsField:
			v.AddError("fields", "must not include contents")
		case !listableFields[f]:
			v.AddError("fields", "unknown field "+f)
		default:
			p[f] = 1
		}
	}

	return p
}
