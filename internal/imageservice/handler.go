package imageservice

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sushihentaime/inkpost/internal/blobstore"
	"github.com/sushihentaime/inkpost/internal/common"
)

// ImageService stores images that are not tied to a post, such as pictures embedded in a body.
type ImageService struct {
	blobs blobstore.Store
}

func NewImageService(blobs blobstore.Store) *ImageService {
	return &ImageService{blobs: blobs}
}

// Upload stores f under {prefix}/{random id}.{ext} and describes the stored image.
func (s *ImageService) Upload(ctx context.Context, f *common.File, prefix string) (*common.Image, error) {
	v := common.NewValidator()
	v.CheckImage(f)
	v.Check(strings.Trim(prefix, "/") != "", "prefix", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	key := blobstore.ImageKey(prefix, uuid.NewString(), f.Filename)
	src, err := s.blobs.Put(ctx, key, f.Data, f.ContentType)
	if err != nil {
		var ue *common.UpstreamError
		if !errors.As(err, &ue) {
			err = common.NewUpstreamError("put "+key, err)
		}
		return nil, err
	}

	return &common.Image{
		Key:      key,
		Src:      src,
		Filename: f.Filename,
		Mimetype: f.ContentType,
		Size:     int64(len(f.Data)),
	}, nil
}
