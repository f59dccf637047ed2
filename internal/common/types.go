package common

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Base holds the fields every stored entity carries.
type Base struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt *time.Time         `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	IsDeleted bool               `bson:"isDeleted" json:"-"`
	DeletedAt *time.Time         `bson:"deletedAt,omitempty" json:"-"`
}

// UserRef references a user by id. Username is resolved at read time and never stored.
type UserRef struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Username string             `bson:"-" json:"username,omitempty"`
}

// Image describes an uploaded image. All fields are empty until an upload completes.
type Image struct {
	Key      string `bson:"key" json:"key"`
	Src      string `bson:"src" json:"src"`
	Filename string `bson:"filename" json:"filename"`
	Mimetype string `bson:"mimetype" json:"mimetype"`
	Size     int64  `bson:"size" json:"size"`
}

func EmptyImage() Image {
	return Image{}
}

// File is an already decoded upload.
type File struct {
	Filename    string `validate:"required"`
	ContentType string `validate:"required"`
	Size        int64  `validate:"gte=0"`
	Data        []byte
}
