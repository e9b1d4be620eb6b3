package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/arkode/submithub-api/internal/dto"
	"github.com/arkode/submithub-api/internal/models"
	"github.com/arkode/submithub-api/internal/observability"
	"github.com/arkode/submithub-api/internal/repository"
)

// IndexService keeps the global master index in step with the submission log.
// Sync is best-effort: callers on the submit path log and discard its error,
// so an index outage can never fail a user-visible submission.
type IndexService interface {
	Sync(ctx context.Context, event models.SubmissionEvent, assignment models.Assignment) error
	ListByAssignee(ctx context.Context, assigneeKey string) ([]dto.IndexEntryResponse, error)
	ListByAssignment(ctx context.Context, assignmentUID string) ([]dto.IndexEntryResponse, error)
}

// indexPayload is the denormalized snapshot stored on each index row for
// read-optimized global queries.
type indexPayload struct {
	GroupName string                 `json:"group_name,omitempty"`
	Members   []string               `json:"members,omitempty"`
	Files     []models.FileRef       `json:"files"`
	Links     []models.LinkRef       `json:"links"`
	Answers   map[string]interface{} `json:"answers"`
}

type indexService struct {
	entries  repository.MasterIndexRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewIndexService constructs the master index synchronizer.
func NewIndexService(entries repository.MasterIndexRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) IndexService {
	return &indexService{
		entries:  entries,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "index_service").Logger(),
		now:      time.Now,
	}
}

func (s *indexService) Sync(ctx context.Context, event models.SubmissionEvent, assignment models.Assignment) error {
	assigneeKey := AssigneeKey(event)
	rowKey := models.IndexRowKey(assigneeKey, assignment.UID)

	entry, found, err := s.lookup(ctx, rowKey)
	if err != nil {
		observability.IndexSync().WithLabelValues("failed").Inc()
		return err
	}

	payload, err := json.Marshal(indexPayload{
		GroupName: event.GroupName,
		Members:   event.MemberEmails(),
		Files:     event.FileList(),
		Links:     event.LinkList(),
		Answers:   event.Answers,
	})
	if err != nil {
		observability.IndexSync().WithLabelValues("failed").Inc()
		return err
	}

	now := s.now()

	if found {
		entry.EditCount++
		entry.SubmitCount++
		entry.LastEditedAt = now
		entry.LastEditedBy = event.SubmitterEmail
		entry.SubmissionUID = event.SubmissionUID
		entry.AssignmentTitle = assignment.Title
		entry.Cohort = assignment.Cohort
		entry.Term = assignment.Term
		entry.Subject = assignment.Subject
		entry.Payload = datatypes.JSON(payload)

		if err := s.entries.Update(ctx, &entry); err != nil {
			observability.IndexSync().WithLabelValues("failed").Inc()
			return err
		}

		s.cacheSet(ctx, rowKey, entry.ID)
		observability.IndexSync().WithLabelValues("updated").Inc()
		return nil
	}

	entry = models.MasterIndexEntry{
		RowKey:           rowKey,
		AssignmentUID:    assignment.UID,
		AssigneeKey:      assigneeKey,
		SubmissionUID:    event.SubmissionUID,
		SubmitCount:      1,
		EditCount:        0,
		FirstSubmittedAt: now,
		LastEditedAt:     now,
		LastEditedBy:     event.SubmitterEmail,
		AssignmentTitle:  assignment.Title,
		Cohort:           assignment.Cohort,
		Term:             assignment.Term,
		Subject:          assignment.Subject,
		Payload:          datatypes.JSON(payload),
	}

	if err := s.entries.Create(ctx, &entry); err != nil {
		observability.IndexSync().WithLabelValues("failed").Inc()
		return err
	}

	s.cacheSet(ctx, rowKey, entry.ID)
	observability.IndexSync().WithLabelValues("inserted").Inc()
	return nil
}

func (s *indexService) ListByAssignee(ctx context.Context, assigneeKey string) ([]dto.IndexEntryResponse, error) {
	entries, err := s.entries.ListByAssignee(ctx, assigneeKey)
	if err != nil {
		return nil, err
	}
	return dto.NewIndexEntryResponseSlice(entries), nil
}

func (s *indexService) ListByAssignment(ctx context.Context, assignmentUID string) ([]dto.IndexEntryResponse, error) {
	entries, err := s.entries.ListByAssignment(ctx, assignmentUID)
	if err != nil {
		return nil, err
	}
	return dto.NewIndexEntryResponseSlice(entries), nil
}

// lookup resolves a row key to its entry, consulting the short-TTL cache
// first. The cache is purely an optimization: any miss or cache error falls
// back to the keyed store lookup, never to a failure.
func (s *indexService) lookup(ctx context.Context, rowKey string) (models.MasterIndexEntry, bool, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKeyForRow(rowKey)).Result()
		if err == nil {
			if id, parseErr := strconv.ParseUint(cached, 10, 64); parseErr == nil {
				entry, getErr := s.entries.GetByID(ctx, uint(id))
				if getErr == nil && entry.RowKey == rowKey {
					return entry, true, nil
				}
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("index cache read failed")
		}
	}

	entry, err := s.entries.GetByRowKey(ctx, rowKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.MasterIndexEntry{}, false, nil
		}
		return models.MasterIndexEntry{}, false, err
	}

	return entry, true, nil
}

func (s *indexService) cacheSet(ctx context.Context, rowKey string, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKeyForRow(rowKey), strconv.FormatUint(uint64(id), 10), s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("index cache write failed")
	}
}

func cacheKeyForRow(rowKey string) string {
	return fmt.Sprintf("idx:row:%s", rowKey)
}

// AssigneeKey derives the identity an index row is keyed on: the group name
// for group submissions, otherwise the submitter email.
func AssigneeKey(event models.SubmissionEvent) string {
	if event.GroupName != "" {
		return event.GroupName
	}
	return event.SubmitterEmail
}
