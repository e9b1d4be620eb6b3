package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"

	"github.com/arkode/submithub-api/pkg/blobstore"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	RootPath  string
}

// Service implements blobstore.Store on top of Cloudinary. Containers map to
// asset folders, blob handles to public IDs.
type Service struct {
	client *cloudinary.Cloudinary
	root   string
	logger zerolog.Logger
}

var _ blobstore.Store = (*Service)(nil)

// New constructs a Cloudinary-backed blob store.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		root:   strings.Trim(cfg.RootPath, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// FindOrCreateContainer resolves a folder under parent, creating it on first
// use. Folder creation is idempotent on the Cloudinary side, so the lookup and
// the create collapse into one call.
func (s *Service) FindOrCreateContainer(ctx context.Context, parent, name string) (blobstore.Container, error) {
	folder := s.folderPath(parent, name)

	if _, err := s.client.Admin.CreateFolder(ctx, admin.CreateFolderParams{Folder: folder}); err != nil {
		return blobstore.Container{}, fmt.Errorf("failed to create folder %q: %w", folder, err)
	}

	s.logger.Debug().Str("folder", folder).Msg("container resolved")

	return blobstore.Container{Handle: folder, Name: name}, nil
}

// CreateBlob uploads an inline payload into the container folder.
func (s *Service) CreateBlob(ctx context.Context, container, name, mimeType string, reader io.Reader) (blobstore.Blob, error) {
	publicID := buildPublicID(name)

	result, err := s.client.Upload.Upload(ctx, reader, uploader.UploadParams{
		Folder:       container,
		PublicID:     publicID,
		ResourceType: "auto",
	})
	if err != nil {
		return blobstore.Blob{}, fmt.Errorf("failed to upload asset: %w", err)
	}

	s.logger.Info().Str("public_id", result.PublicID).Str("mime_type", mimeType).Msg("blob stored")

	return blobstore.Blob{
		Handle:     result.PublicID,
		Name:       name,
		URL:        result.SecureURL,
		SizeBytes:  int64(result.Bytes),
		ModifiedAt: result.CreatedAt,
	}, nil
}

// SetShareable resolves the canonical delivery URL for the blob. Cloudinary
// delivery URLs are link-shareable; the explicit call re-syncs the asset and
// returns its secure URL.
func (s *Service) SetShareable(ctx context.Context, handle string) (string, error) {
	result, err := s.client.Upload.Explicit(ctx, uploader.ExplicitParams{
		PublicID: handle,
		Type:     "upload",
	})
	if err != nil {
		return "", fmt.Errorf("failed to mark asset shareable: %w", err)
	}

	return result.SecureURL, nil
}

// ListBlobs lists the assets whose public IDs live under the container folder.
func (s *Service) ListBlobs(ctx context.Context, container string) ([]blobstore.Blob, error) {
	prefix := strings.Trim(container, "/") + "/"

	result, err := s.client.Admin.Assets(ctx, admin.AssetsParams{
		Prefix:     prefix,
		MaxResults: 500,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets under %q: %w", container, err)
	}

	blobs := make([]blobstore.Blob, 0, len(result.Assets))
	for _, asset := range result.Assets {
		blobs = append(blobs, blobstore.Blob{
			Handle:     asset.PublicID,
			Name:       path.Base(asset.PublicID),
			URL:        asset.SecureURL,
			SizeBytes:  int64(asset.Bytes),
			ModifiedAt: asset.CreatedAt,
		})
	}

	return blobs, nil
}

// StatBlob resolves a single asset by its public ID.
func (s *Service) StatBlob(ctx context.Context, handle string) (blobstore.Blob, error) {
	result, err := s.client.Admin.Asset(ctx, admin.AssetParams{PublicID: handle})
	if err != nil {
		return blobstore.Blob{}, fmt.Errorf("failed to resolve asset %q: %w", handle, err)
	}
	if result.PublicID == "" {
		return blobstore.Blob{}, blobstore.ErrBlobNotFound
	}

	return blobstore.Blob{
		Handle:     result.PublicID,
		Name:       path.Base(result.PublicID),
		URL:        result.SecureURL,
		SizeBytes:  int64(result.Bytes),
		ModifiedAt: result.CreatedAt,
	}, nil
}

func (s *Service) folderPath(parent, name string) string {
	segments := make([]string, 0, 3)
	if s.root != "" {
		segments = append(segments, s.root)
	}
	if trimmed := strings.Trim(parent, "/"); trimmed != "" {
		segments = append(segments, trimmed)
	}
	if trimmed := strings.Trim(name, "/"); trimmed != "" {
		segments = append(segments, trimmed)
	}
	return strings.Join(segments, "/")
}

func buildPublicID(name string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("upload-%d", time.Now().Unix())
	}

	return base
}
