package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/sushihentaime/inkpost/internal/common"
)

type OSSConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	SecurityToken string
}

// OSS is a Store backed by a single Aliyun OSS bucket.
type OSS struct {
	bucket     *oss.Bucket
	bucketName string
	endpoint   string
	publicBase string
}

// NewOSS opens bucketName. When publicBase is empty the bucket's own domain is used for URLs.
func NewOSS(cfg OSSConfig, bucketName, publicBase string) (*OSS, error) {
	var opts []oss.ClientOption
	if cfg.SecurityToken != "" {
		opts = append(opts, oss.SecurityToken(cfg.SecurityToken))
	}

	client, err := oss.New(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	bkt, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	return &OSS{
		bucket:     bkt,
		bucketName: bucketName,
		endpoint:   cfg.Endpoint,
		publicBase: publicBase,
	}, nil
}

func (s *OSS) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ObjectACL(oss.ACLPublicRead),
	}
	if err := s.bucket.PutObject(key, bytes.NewReader(body), opts...); err != nil {
		return "", common.NewUpstreamError("oss put "+key, err)
	}

	return s.publicURL(key), nil
}

func (s *OSS) Get(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.bucket.GetObject(key, oss.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, common.NewUpstreamError("oss get "+key, err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, common.NewUpstreamError("oss read "+key, err)
	}

	return body, nil
}

func (s *OSS) Delete(ctx context.Context, key string) error {
	if err := s.bucket.DeleteObject(key, oss.WithContext(ctx)); err != nil {
		return common.NewUpstreamError("oss delete "+key, err)
	}
	return nil
}

func (s *OSS) publicURL(key string) string {
	if s.publicBase != "" {
		return joinURL(s.publicBase, key)
	}

	end := strings.TrimPrefix(s.endpoint, "https://")
	end = strings.TrimPrefix(end, "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.bucketName, end, key)
}

func isNotFound(err error) bool {
	var se oss.ServiceError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusNotFound || se.Code == "NoSuchKey"
	}
	return false
}
