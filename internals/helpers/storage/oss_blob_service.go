// internals/helpers/storage/oss_blob_service.go
package storage

import (
	"context"
	"fmt"
	"log"
	"mime"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"policyhub_backend/internals/configs"
)

/* =======================================================================
   Aliyun OSS backend
======================================================================= */

type OSSBlobService struct {
	Client     *oss.Client
	Bucket     *oss.Bucket
	Endpoint   string
	BucketName string
	Prefix     string // optional: "policies"
}

func NewOSSBlobServiceFromEnv(prefix string) (*OSSBlobService, error) {
	endpoint := configs.GetEnv("ALI_OSS_ENDPOINT")
	ak := configs.GetEnv("ALI_OSS_ACCESS_KEY")
	sk := configs.GetEnv("ALI_OSS_SECRET_KEY")
	bucketName := configs.GetEnv("ALI_OSS_BUCKET")
	if endpoint == "" || ak == "" || sk == "" || bucketName == "" {
		return nil, fmt.Errorf("missing env: ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET")
	}

	client, err := oss.New(endpoint, ak, sk)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	bkt, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	// light bucket verification
	if loc, err := client.GetBucketLocation(bucketName); err != nil {
		if se, ok := err.(oss.ServiceError); ok && se.StatusCode == 403 && se.Code == "AccessDenied" {
			log.Printf("[OSS] warn: skip location check due to AccessDenied (bucket=%s). Continuing.", bucketName)
		} else {
			return nil, fmt.Errorf("verify bucket: %w", err)
		}
	} else {
		log.Printf("[OSS] bucket %s location: %s", bucketName, loc)
	}

	return &OSSBlobService{
		Client:     client,
		Bucket:     bkt,
		Endpoint:   endpoint,
		BucketName: bucketName,
		Prefix:     strings.Trim(prefix, "/"),
	}, nil
}

func (s *OSSBlobService) UploadDocument(ctx context.Context, dir string, fh *multipart.FileHeader) (string, string, error) {
	if fh == nil {
		return "", "", fmt.Errorf("nil file header")
	}
	key := buildObjectKey(dir, fh.Filename)
	if s.Prefix != "" {
		key = s.Prefix + "/" + key
	}

	src, err := fh.Open()
	if err != nil {
		return "", "", fmt.Errorf("open file: %w", err)
	}
	defer src.Close()

	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename)))
	if ct == "" {
		ct = "application/octet-stream"
	}

	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(ct),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	}
	if err := s.Bucket.PutObject(key, src, opts...); err != nil {
		return "", "", err
	}
	return s.PublicURL(key), key, nil
}

func (s *OSSBlobService) DeleteByPublicURL(ctx context.Context, publicURL string) error {
	key, err := s.keyFromPublicURL(publicURL)
	if err != nil {
		return err
	}
	return s.Bucket.DeleteObject(key, oss.WithContext(ctx))
}

func (s *OSSBlobService) PublicURL(key string) string {
	host := strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.BucketName, host, key)
}

func (s *OSSBlobService) keyFromPublicURL(publicURL string) (string, error) {
	u, err := url.Parse(publicURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", fmt.Errorf("empty object key in url: %s", publicURL)
	}
	return key, nil
}
