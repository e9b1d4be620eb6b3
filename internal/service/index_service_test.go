package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/arkode/submithub-api/internal/models"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	server := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: server.Addr()})
}

func TestSyncInsertsThenUpdatesSameRow(t *testing.T) {
	entries := newMemoryIndexRepo()
	svc := NewIndexService(entries, testRedis(t), time.Minute, testLogger())

	assignment := models.Assignment{UID: "a1", Title: "Lab 1", Cohort: "2026", Term: "S1", Subject: "Go"}
	event := models.SubmissionEvent{
		AssignmentUID:  "a1",
		SubmissionUID:  "a1_jane@example.com_1000",
		Kind:           models.EventKindFirst,
		SubmitterEmail: "jane@example.com",
	}

	require.NoError(t, svc.Sync(context.Background(), event, assignment))

	rowKey := models.IndexRowKey("jane@example.com", "a1")
	entry, err := entries.GetByRowKey(context.Background(), rowKey)
	require.NoError(t, err)
	require.Equal(t, 1, entry.SubmitCount)
	require.Equal(t, 0, entry.EditCount)
	require.Equal(t, "Lab 1", entry.AssignmentTitle)

	// Three resubmissions mutate that same row; no duplicates appear.
	event.Kind = models.EventKindResubmit
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Sync(context.Background(), event, assignment))
	}

	entry, err = entries.GetByRowKey(context.Background(), rowKey)
	require.NoError(t, err)
	require.Equal(t, 4, entry.SubmitCount)
	require.Equal(t, 3, entry.EditCount)
	require.Len(t, entries.entries, 1)
}

func TestSyncKeysGroupRowsByGroupName(t *testing.T) {
	entries := newMemoryIndexRepo()
	svc := NewIndexService(entries, nil, 0, testLogger())

	assignment := models.Assignment{UID: "a1", Title: "Lab 1"}
	first := models.SubmissionEvent{
		AssignmentUID:  "a1",
		SubmissionUID:  "a1_lead@example.com_1000",
		SubmitterEmail: "lead@example.com",
		GroupName:      "Team Rocket",
	}
	require.NoError(t, svc.Sync(context.Background(), first, assignment))

	// A different member resubmitting under the same group hits the same row.
	second := first
	second.SubmitterEmail = "member@example.com"
	second.Kind = models.EventKindResubmit
	require.NoError(t, svc.Sync(context.Background(), second, assignment))

	require.Len(t, entries.entries, 1)
	entry, err := entries.GetByRowKey(context.Background(), models.IndexRowKey("Team Rocket", "a1"))
	require.NoError(t, err)
	require.Equal(t, 2, entry.SubmitCount)
	require.Equal(t, 1, entry.EditCount)
	require.Equal(t, "member@example.com", entry.LastEditedBy)
}

func TestSyncRowKeyIsCaseInsensitive(t *testing.T) {
	entries := newMemoryIndexRepo()
	svc := NewIndexService(entries, nil, 0, testLogger())

	assignment := models.Assignment{UID: "a1"}
	first := models.SubmissionEvent{AssignmentUID: "a1", SubmissionUID: "s1", SubmitterEmail: "jane@example.com"}
	require.NoError(t, svc.Sync(context.Background(), first, assignment))

	second := first
	second.SubmitterEmail = "Jane@Example.com"
	second.Kind = models.EventKindResubmit
	require.NoError(t, svc.Sync(context.Background(), second, assignment))

	require.Len(t, entries.entries, 1)
}

func TestSyncSnapshotsLatestPayload(t *testing.T) {
	entries := newMemoryIndexRepo()
	svc := NewIndexService(entries, nil, 0, testLogger())

	assignment := models.Assignment{UID: "a1"}
	first := models.SubmissionEvent{
		AssignmentUID:  "a1",
		SubmissionUID:  "s1",
		SubmitterEmail: "jane@example.com",
		Files:          datatypes.JSON(mustJSON([]models.FileRef{{Name: "v1.pdf", URL: "https://cdn.example.com/v1.pdf"}})),
	}
	require.NoError(t, svc.Sync(context.Background(), first, assignment))

	second := first
	second.Kind = models.EventKindResubmit
	second.Files = datatypes.JSON(mustJSON([]models.FileRef{{Name: "v2.pdf", URL: "https://cdn.example.com/v2.pdf"}}))
	require.NoError(t, svc.Sync(context.Background(), second, assignment))

	entry, err := entries.GetByRowKey(context.Background(), models.IndexRowKey("jane@example.com", "a1"))
	require.NoError(t, err)
	require.Contains(t, string(entry.Payload), "v2.pdf")
	require.NotContains(t, string(entry.Payload), "v1.pdf")
}

func TestSyncCacheSurvivesStaleEntry(t *testing.T) {
	entries := newMemoryIndexRepo()
	cache := testRedis(t)
	svc := NewIndexService(entries, cache, time.Minute, testLogger())

	assignment := models.Assignment{UID: "a1"}
	event := models.SubmissionEvent{AssignmentUID: "a1", SubmissionUID: "s1", SubmitterEmail: "jane@example.com"}
	require.NoError(t, svc.Sync(context.Background(), event, assignment))

	// Poison the cache with an identifier that resolves to nothing. Lookup
	// must fall back to the keyed store and the sync must still converge.
	rowKey := models.IndexRowKey("jane@example.com", "a1")
	require.NoError(t, cache.Set(context.Background(), "idx:row:"+rowKey, "9999", time.Minute).Err())

	event.Kind = models.EventKindResubmit
	require.NoError(t, svc.Sync(context.Background(), event, assignment))

	entry, err := entries.GetByRowKey(context.Background(), rowKey)
	require.NoError(t, err)
	require.Equal(t, 2, entry.SubmitCount)
	require.Len(t, entries.entries, 1)
}

func TestListByAssignee(t *testing.T) {
	entries := newMemoryIndexRepo()
	svc := NewIndexService(entries, nil, 0, testLogger())

	for _, uid := range []string{"a1", "a2"} {
		event := models.SubmissionEvent{AssignmentUID: uid, SubmissionUID: uid + "_s", SubmitterEmail: "jane@example.com"}
		require.NoError(t, svc.Sync(context.Background(), event, models.Assignment{UID: uid}))
	}
	other := models.SubmissionEvent{AssignmentUID: "a1", SubmissionUID: "other", SubmitterEmail: "john@example.com"}
	require.NoError(t, svc.Sync(context.Background(), other, models.Assignment{UID: "a1"}))

	rows, err := svc.ListByAssignee(context.Background(), "jane@example.com")

	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestAssigneeKeyPrefersGroupName(t *testing.T) {
	grouped := models.SubmissionEvent{SubmitterEmail: "lead@example.com", GroupName: "Team Rocket"}
	solo := models.SubmissionEvent{SubmitterEmail: "jane@example.com"}

	require.Equal(t, "Team Rocket", AssigneeKey(grouped))
	require.Equal(t, "jane@example.com", AssigneeKey(solo))
}
