package commentservice

import (
	"strings"

	"github.com/sushihentaime/inkpost/internal/common"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxContentsLength = 10000

func validateContents(v *common.Validator, contents string) {
	v.Check(strings.TrimSpace(contents) != "", "contents", "must be provided")
	v.Check(len(contents) <= maxContentsLength, "contents", "must not be more than 10000 bytes long")
}

func validateID(v *common.Validator, id primitive.ObjectID, name string) {
	v.Check(!id.IsZero(), name, "must be provided")
}
