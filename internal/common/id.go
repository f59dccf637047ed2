package common

import "go.mongodb.org/mongo-driver/bson/primitive"

// ParseID converts the hex form of an identifier. The field name is used in the
// returned ValidationError.
func ParseID(field, s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		v := NewValidator()
		v.AddError(field, "must be a valid id")
		return primitive.NilObjectID, v.ValidationError()
	}

	return id, nil
}
