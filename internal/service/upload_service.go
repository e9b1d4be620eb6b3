package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/arkode/submithub-api/internal/dto"
	"github.com/arkode/submithub-api/internal/models"
	"github.com/arkode/submithub-api/internal/observability"
	"github.com/arkode/submithub-api/internal/repository"
	"github.com/arkode/submithub-api/pkg/blobstore"
	"github.com/arkode/submithub-api/pkg/resumable"
)

var (
	// ErrUploadIncomplete indicates neither finalize nor the recovery search
	// could produce the uploaded blob. The client must re-upload.
	ErrUploadIncomplete = errors.New("upload could not be confirmed")
	// ErrSessionNotFound indicates the referenced upload session does not exist.
	ErrSessionNotFound = errors.New("upload session not found")
	// ErrSessionClosed indicates the session was already finalized or failed.
	ErrSessionClosed = errors.New("upload session is no longer open")
	// ErrUploadTooLarge indicates an inline payload exceeded the threshold.
	ErrUploadTooLarge = errors.New("file exceeds inline upload limit")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
)

// SessionStarter opens resumable upload sessions against the blob backend.
type SessionStarter interface {
	Start(ctx context.Context, endpoint string, meta resumable.FileMeta) (string, error)
	QueryStatus(ctx context.Context, sessionURI string, totalBytes int64) (resumable.Status, error)
}

// UploadService manages both inline uploads and out-of-band resumable upload
// sessions, including the recovery path when finalization fails.
type UploadService interface {
	InlineUpload(ctx context.Context, assignmentUID, submitterEmail string, file *multipart.FileHeader) (dto.UploadResultResponse, error)
	Initiate(ctx context.Context, payload dto.UploadInitiateRequest) (dto.UploadInitiateResponse, error)
	Finalize(ctx context.Context, sessionUID string) (dto.UploadResultResponse, error)
}

type uploadService struct {
	sessions      repository.UploadSessionRepository
	assignments   repository.AssignmentRepository
	store         blobstore.Store
	transport     SessionStarter
	cache         *redis.Client
	cacheTTL      time.Duration
	uploadURL     string
	inlineMax     int64
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// UploadConfig carries the orchestrator's tunables.
type UploadConfig struct {
	// UploadEndpoint is where session-open requests are POSTed.
	UploadEndpoint string
	// InlineMaxBytes is the threshold above which files must go resumable.
	InlineMaxBytes int64
	// FolderCacheTTL bounds how long resolved destination folders are cached.
	FolderCacheTTL time.Duration
}

// NewUploadService constructs the upload orchestrator.
func NewUploadService(sessions repository.UploadSessionRepository, assignments repository.AssignmentRepository, store blobstore.Store, transport SessionStarter, cache *redis.Client, cfg UploadConfig, logger zerolog.Logger) UploadService {
	if cfg.InlineMaxBytes <= 0 {
		cfg.InlineMaxBytes = 10 * 1024 * 1024
	}
	if cfg.FolderCacheTTL <= 0 {
		cfg.FolderCacheTTL = 10 * time.Minute
	}
	return &uploadService{
		sessions:    sessions,
		assignments: assignments,
		store:       store,
		transport:   transport,
		cache:       cache,
		cacheTTL:    cfg.FolderCacheTTL,
		uploadURL:   cfg.UploadEndpoint,
		inlineMax:   cfg.InlineMaxBytes,
		logger:      logger.With().Str("component", "upload_service").Logger(),
		tracer:      otel.Tracer("github.com/arkode/submithub-api/internal/service/upload"),
		now:         time.Now,
	}
}

func (s *uploadService) InlineUpload(ctx context.Context, assignmentUID, submitterEmail string, file *multipart.FileHeader) (dto.UploadResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "upload.inline")
	defer span.End()

	if file == nil {
		err := errors.New("file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.UploadResultResponse{}, err
	}
	if file.Size > s.inlineMax {
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.UploadResultResponse{}, ErrUploadTooLarge
	}

	folder, err := s.destinationFolder(ctx, assignmentUID, submitterEmail)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "folder resolution failed")
		return dto.UploadResultResponse{}, err
	}

	handle, err := file.Open()
	if err != nil {
		return dto.UploadResultResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.inlineMax+1)); err != nil {
		return dto.UploadResultResponse{}, err
	}
	if int64(buf.Len()) > s.inlineMax {
		return dto.UploadResultResponse{}, ErrUploadTooLarge
	}

	mime := mimetype.Detect(buf.Bytes())
	if !isAllowedUploadType(mime.String()) {
		span.RecordError(ErrUploadTypeNotAllowed)
		span.SetStatus(codes.Error, "type not allowed")
		return dto.UploadResultResponse{}, fmt.Errorf("%w: %s", ErrUploadTypeNotAllowed, mime.String())
	}

	blob, err := s.store.CreateBlob(ctx, folder, file.Filename, mime.String(), bytes.NewReader(buf.Bytes()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.UploadResultResponse{}, fmt.Errorf("failed to store file: %w", err)
	}

	url, err := s.store.SetShareable(ctx, blob.Handle)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "share failed")
		return dto.UploadResultResponse{}, fmt.Errorf("failed to mark file shareable: %w", err)
	}

	span.SetAttributes(attribute.String("upload.blob_handle", blob.Handle))
	span.SetStatus(codes.Ok, "stored")

	return dto.UploadResultResponse{
		BlobHandle: blob.Handle,
		URL:        url,
		FileName:   file.Filename,
		SizeBytes:  int64(buf.Len()),
		Status:     models.UploadStatusComplete,
	}, nil
}

func (s *uploadService) Initiate(ctx context.Context, payload dto.UploadInitiateRequest) (dto.UploadInitiateResponse, error) {
	ctx, span := s.tracer.Start(ctx, "upload.initiate")
	defer span.End()

	folder, err := s.destinationFolder(ctx, payload.AssignmentUID, payload.SubmitterEmail)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "folder resolution failed")
		return dto.UploadInitiateResponse{}, err
	}

	sessionURI, err := s.transport.Start(ctx, s.uploadURL, resumable.FileMeta{
		Name:      payload.FileName,
		SizeBytes: payload.SizeBytes,
		MimeType:  payload.MimeType,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session open failed")
		return dto.UploadInitiateResponse{}, fmt.Errorf("failed to open upload session: %w", err)
	}

	session := models.UploadSession{
		UID:            uuid.NewString(),
		AssignmentUID:  payload.AssignmentUID,
		SubmitterEmail: strings.ToLower(strings.TrimSpace(payload.SubmitterEmail)),
		FileName:       payload.FileName,
		SizeBytes:      payload.SizeBytes,
		MimeType:       payload.MimeType,
		FolderHandle:   folder,
		SessionURI:     sessionURI,
		Status:         models.UploadStatusPending,
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.UploadInitiateResponse{}, err
	}

	span.SetAttributes(attribute.String("upload.session_uid", session.UID))
	s.logger.Info().Str("session_uid", session.UID).Str("file", payload.FileName).Msg("upload session opened")

	return dto.UploadInitiateResponse{SessionUID: session.UID, SessionURI: sessionURI}, nil
}

func (s *uploadService) Finalize(ctx context.Context, sessionUID string) (dto.UploadResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "upload.finalize")
	defer span.End()

	start := s.now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	session, err := s.sessions.GetByUID(ctx, sessionUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UploadResultResponse{}, ErrSessionNotFound
		}
		return dto.UploadResultResponse{}, err
	}
	if !session.Open() {
		return dto.UploadResultResponse{}, ErrSessionClosed
	}

	status, statusErr := s.transport.QueryStatus(ctx, session.SessionURI, session.SizeBytes)
	if statusErr == nil && status.Complete {
		return s.confirm(ctx, session, models.UploadStatusComplete)
	}
	if statusErr == nil && !status.Complete {
		// The session is genuinely still receiving chunks; nothing to recover.
		return dto.UploadResultResponse{}, fmt.Errorf("%w: %d of %d bytes received", ErrUploadIncomplete, status.ReceivedBytes, session.SizeBytes)
	}

	// The status call itself failed. The upload may still have landed server
	// side, so reconcile against the destination container before escalating.
	s.logger.Warn().Err(statusErr).Str("session_uid", session.UID).Msg("finalize status check failed, attempting recovery")
	return s.recover(ctx, session)
}

// confirm locates the uploaded blob in the destination container, marks it
// shareable and closes the session.
func (s *uploadService) confirm(ctx context.Context, session models.UploadSession, finalStatus string) (dto.UploadResultResponse, error) {
	blob, found, err := s.searchContainer(ctx, session)
	if err != nil {
		return dto.UploadResultResponse{}, err
	}
	if !found {
		return s.fail(ctx, session)
	}

	url, err := s.store.SetShareable(ctx, blob.Handle)
	if err != nil {
		return dto.UploadResultResponse{}, fmt.Errorf("failed to mark blob shareable: %w", err)
	}

	session.Status = finalStatus
	session.BlobHandle = blob.Handle
	session.BlobURL = url
	if err := s.sessions.Update(ctx, &session); err != nil {
		return dto.UploadResultResponse{}, err
	}

	s.logger.Info().Str("session_uid", session.UID).Str("status", finalStatus).Msg("upload finalized")

	return dto.UploadResultResponse{
		BlobHandle: blob.Handle,
		URL:        url,
		FileName:   session.FileName,
		SizeBytes:  blob.SizeBytes,
		Status:     finalStatus,
	}, nil
}

// recover searches the destination container for a blob matching the expected
// filename and treats the most recently modified match as authoritative. A
// client-perceived failure frequently masks a server-side success; recovery
// reconciles the two without forcing a re-upload. Finding nothing is a hard
// failure.
func (s *uploadService) recover(ctx context.Context, session models.UploadSession) (dto.UploadResultResponse, error) {
	_, found, err := s.searchContainer(ctx, session)
	if err != nil {
		observability.UploadRecoveries().WithLabelValues("error").Inc()
		return dto.UploadResultResponse{}, err
	}
	if !found {
		observability.UploadRecoveries().WithLabelValues("not_found").Inc()
		return s.fail(ctx, session)
	}

	observability.UploadRecoveries().WithLabelValues("recovered").Inc()
	return s.confirm(ctx, session, models.UploadStatusRecovered)
}

// searchContainer looks for the session's file among the container's blobs.
// Exact name match wins; otherwise a prefix match on the extension-stripped
// base name is accepted, newest modification first.
func (s *uploadService) searchContainer(ctx context.Context, session models.UploadSession) (blobstore.Blob, bool, error) {
	blobs, err := s.store.ListBlobs(ctx, session.FolderHandle)
	if err != nil {
		return blobstore.Blob{}, false, fmt.Errorf("failed to list destination container: %w", err)
	}

	base := strings.TrimSuffix(session.FileName, filepath.Ext(session.FileName))

	var best blobstore.Blob
	var found bool
	for _, blob := range blobs {
		blobBase := strings.TrimSuffix(blob.Name, filepath.Ext(blob.Name))
		exact := blob.Name == session.FileName || blobBase == base
		prefixed := strings.HasPrefix(blobBase, base)
		if !exact && !prefixed {
			continue
		}
		if !found || blob.ModifiedAt.After(best.ModifiedAt) {
			best = blob
			found = true
		}
	}

	return best, found, nil
}

func (s *uploadService) fail(ctx context.Context, session models.UploadSession) (dto.UploadResultResponse, error) {
	session.Status = models.UploadStatusFailed
	if err := s.sessions.Update(ctx, &session); err != nil {
		s.logger.Error().Err(err).Str("session_uid", session.UID).Msg("failed to mark session failed")
	}
	return dto.UploadResultResponse{}, fmt.Errorf("%w: %s", ErrUploadIncomplete, session.FileName)
}

// destinationFolder resolves (and caches) the per-submitter container under
// the assignment's upload folder, creating it on first use.
func (s *uploadService) destinationFolder(ctx context.Context, assignmentUID, submitterEmail string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(submitterEmail))
	cacheKey := fmt.Sprintf("upl:folder:%s:%s", assignmentUID, email)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			return cached, nil
		} else if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("folder cache read failed")
		}
	}

	assignment, err := s.assignments.GetByUID(ctx, assignmentUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrAssignmentNotFound
		}
		return "", err
	}

	container, err := s.store.FindOrCreateContainer(ctx, assignment.UploadFolderHandle, folderNameForEmail(email))
	if err != nil {
		return "", fmt.Errorf("failed to resolve destination container: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, container.Handle, s.cacheTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("folder cache write failed")
		}
	}

	return container.Handle, nil
}

func folderNameForEmail(email string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '-'
	}, email)
}

func isAllowedUploadType(mime string) bool {
	lower := strings.ToLower(strings.TrimSpace(mime))
	if strings.HasPrefix(lower, "image/") || strings.HasPrefix(lower, "text/") {
		return true
	}
	switch lower {
	case "application/pdf", "application/zip", "application/x-zip-compressed",
		"application/msword", "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return true
	default:
		return false
	}
}
