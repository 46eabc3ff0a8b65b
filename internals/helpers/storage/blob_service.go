// internals/helpers/storage/blob_service.go
package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"policyhub_backend/internals/configs"
)

// max upload guard for policy documents
var maxUploadSize = int64(20 * 1024 * 1024)

// BlobService stores and removes document blobs. The engine only keeps the
// public URL and display name; superseded blobs are external cleanup.
type BlobService interface {
	// UploadDocument stores the file under dir and returns (publicURL, objectKey).
	UploadDocument(ctx context.Context, dir string, fh *multipart.FileHeader) (string, string, error)
	// DeleteByPublicURL removes a stored blob. Best effort.
	DeleteByPublicURL(ctx context.Context, publicURL string) error
}

// NewBlobServiceFromEnv picks the backend: "oss" for Aliyun OSS, anything else
// falls back to local disk under UPLOAD_DIR.
func NewBlobServiceFromEnv() (BlobService, error) {
	if strings.EqualFold(configs.StorageBackend, "oss") {
		return NewOSSBlobServiceFromEnv("policies")
	}
	return NewLocalBlobService(configs.UploadDir)
}

/* =========================================================
   Upload validation
   ========================================================= */

var allowedDocumentExts = map[string]struct{}{
	".pdf":  {},
	".docx": {},
}

// ValidateDocumentExt rejects anything that is not a policy document format.
func ValidateDocumentExt(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedDocumentExts[ext]; !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Only PDF and DOCX files are allowed")
	}
	return nil
}

// GetDocumentFile reads the multipart document field and applies the size and
// extension guards.
func GetDocumentFile(c *fiber.Ctx, fieldNames ...string) (*multipart.FileHeader, error) {
	if len(fieldNames) == 0 {
		fieldNames = []string{"file"}
	}
	for _, field := range fieldNames {
		fh, err := c.FormFile(field)
		if err != nil || fh == nil {
			continue
		}
		if fh.Size > maxUploadSize {
			return nil, fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("File too large (max %d bytes)", maxUploadSize))
		}
		if err := ValidateDocumentExt(fh.Filename); err != nil {
			return nil, err
		}
		return fh, nil
	}
	return nil, fiber.NewError(fiber.StatusBadRequest, "Document file is required")
}

/* =========================================================
   Local disk backend (serves /uploads via static route)
   ========================================================= */

type LocalBlobService struct {
	BaseDir string
}

func NewLocalBlobService(baseDir string) (*LocalBlobService, error) {
	if strings.TrimSpace(baseDir) == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalBlobService{BaseDir: baseDir}, nil
}

func (s *LocalBlobService) UploadDocument(ctx context.Context, dir string, fh *multipart.FileHeader) (string, string, error) {
	if fh == nil {
		return "", "", fmt.Errorf("nil file header")
	}
	key := buildObjectKey(dir, fh.Filename)

	diskPath := filepath.Join(s.BaseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(diskPath), 0o755); err != nil {
		return "", "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", "", fmt.Errorf("open file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(diskPath)
	if err != nil {
		return "", "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", "", err
	}
	return "/uploads/" + key, key, nil
}

func (s *LocalBlobService) DeleteByPublicURL(ctx context.Context, publicURL string) error {
	key, ok := s.Resolve(publicURL)
	if !ok {
		return fmt.Errorf("not a local upload url: %s", publicURL)
	}
	return os.Remove(key)
}

// Resolve maps a /uploads URL back to its on-disk path.
func (s *LocalBlobService) Resolve(publicURL string) (string, bool) {
	const prefix = "/uploads/"
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	rel := filepath.FromSlash(strings.TrimPrefix(publicURL, prefix))
	// keep traversal out of the base dir
	if strings.Contains(rel, "..") {
		return "", false
	}
	return filepath.Join(s.BaseDir, rel), true
}

func buildObjectKey(dir, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	name := uuid.New().String() + ext
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

/* =========================================================
   ServeDocument: download path shared by private & public routes
   ========================================================= */

// ServeDocument streams a local blob or redirects to a remote one.
func ServeDocument(c *fiber.Ctx, blob BlobService, fileURL, fileName string) error {
	if local, ok := blob.(*LocalBlobService); ok {
		path, ok := local.Resolve(fileURL)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "File not found")
		}
		if _, err := os.Stat(path); err != nil {
			return fiber.NewError(fiber.StatusNotFound, "File not found")
		}
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
		return c.SendFile(path)
	}
	return c.Redirect(fileURL, fiber.StatusFound)
}

/* =========================================================
   Mock (tests)
   ========================================================= */

type MockBlobService struct {
	Uploads []string
	Deleted []string
}

func (m *MockBlobService) UploadDocument(ctx context.Context, dir string, fh *multipart.FileHeader) (string, string, error) {
	key := buildObjectKey(dir, fh.Filename)
	m.Uploads = append(m.Uploads, key)
	return "/uploads/" + key, key, nil
}

func (m *MockBlobService) DeleteByPublicURL(ctx context.Context, publicURL string) error {
	m.Deleted = append(m.Deleted, publicURL)
	return nil
}
