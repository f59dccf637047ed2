package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/sushihentaime/inkpost/internal/common"
)

const rawResource = "raw"

// Cloudinary is a Store that keeps every payload as a raw resource inside folder,
// so keys keep their extension as part of the public id.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
	client *http.Client
}

func NewCloudinary(url, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("cloudinary.NewFromURL: %w", err)
	}

	return &Cloudinary{
		cld:    cld,
		folder: strings.Trim(folder, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *Cloudinary) publicID(key string) string {
	if s.folder == "" {
		return key
	}
	return s.folder + "/" + key
}

func (s *Cloudinary) deliveryURL(key string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/%s/upload/%s", s.cld.Config.Cloud.CloudName, rawResource, s.publicID(key))
}

func (s *Cloudinary) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	params := uploader.UploadParams{
		PublicID:     s.publicID(key),
		ResourceType: rawResource,
		Overwrite:    api.Bool(true),
		Invalidate:   api.Bool(true),
	}

	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(body), params)
	if err != nil {
		return "", common.NewUpstreamError("cloudinary upload "+key, err)
	}
	if res.Error.Message != "" {
		return "", common.NewUpstreamError("cloudinary upload "+key, errors.New(res.Error.Message))
	}

	return res.SecureURL, nil
}

func (s *Cloudinary) Get(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.deliveryURL(key), nil)
	if err != nil {
		return nil, err
	}

	res, err := s.client.Do(req)
	if err != nil {
		return nil, common.NewUpstreamError("cloudinary get "+key, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, ErrObjectNotFound
	case res.StatusCode != http.StatusOK:
		return nil, common.NewUpstreamError("cloudinary get "+key, fmt.Errorf("unexpected status %d", res.StatusCode))
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, common.NewUpstreamError("cloudinary read "+key, err)
	}

	return body, nil
}

func (s *Cloudinary) Delete(ctx context.Context, key string) error {
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     s.publicID(key),
		ResourceType: rawResource,
		Invalidate:   api.Bool(true),
	})
	if err != nil {
		return common.NewUpstreamError("cloudinary destroy "+key, err)
	}
	if res.Error.Message != "" {
		return common.NewUpstreamError("cloudinary destroy "+key, errors.New(res.Error.Message))
	}

	return nil
}
