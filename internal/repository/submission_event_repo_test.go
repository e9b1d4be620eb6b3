package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/arkode/submithub-api/internal/models"
)

func setupTestDB(t *testing.T, tables ...interface{}) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(tables...))
	return db
}

func TestSubmissionEventRepositoryAppendAssignsID(t *testing.T) {
	db := setupTestDB(t, &models.SubmissionEvent{})
	repo := NewSubmissionEventRepository(db)

	event := models.SubmissionEvent{
		AssignmentUID:  "a1",
		SubmissionUID:  "a1_jane@example.com_1000",
		Kind:           models.EventKindFirst,
		SubmitterEmail: "jane@example.com",
	}

	require.NoError(t, repo.Append(context.Background(), &event))
	require.NotZero(t, event.ID)

	count, err := repo.CountByAssignment(context.Background(), "a1")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestSubmissionEventRepositoryListNewestFirst(t *testing.T) {
	db := setupTestDB(t, &models.SubmissionEvent{})
	repo := NewSubmissionEventRepository(db)

	for i := 0; i < 3; i++ {
		event := models.SubmissionEvent{
			AssignmentUID:  "a1",
			SubmissionUID:  fmt.Sprintf("s%d", i),
			Kind:           models.EventKindFirst,
			SubmitterEmail: fmt.Sprintf("student%d@example.com", i),
		}
		require.NoError(t, repo.Append(context.Background(), &event))
	}

	events, err := repo.ListByAssignment(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, "s2", events[0].SubmissionUID)
	require.Equal(t, "s0", events[2].SubmissionUID)
}

func TestSubmissionEventRepositoryListByAssignmentScopes(t *testing.T) {
	db := setupTestDB(t, &models.SubmissionEvent{})
	repo := NewSubmissionEventRepository(db)

	own := models.SubmissionEvent{AssignmentUID: "a1", SubmissionUID: "s1", Kind: models.EventKindFirst, SubmitterEmail: "a@example.com"}
	other := models.SubmissionEvent{AssignmentUID: "a2", SubmissionUID: "s2", Kind: models.EventKindFirst, SubmitterEmail: "b@example.com"}
	require.NoError(t, repo.Append(context.Background(), &own))
	require.NoError(t, repo.Append(context.Background(), &other))

	events, err := repo.ListByAssignment(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "s1", events[0].SubmissionUID)
}

func TestSubmissionEventRepositoryListBySubmissionUID(t *testing.T) {
	db := setupTestDB(t, &models.SubmissionEvent{})
	repo := NewSubmissionEventRepository(db)

	first := models.SubmissionEvent{AssignmentUID: "a1", SubmissionUID: "shared", Kind: models.EventKindFirst, SubmitterEmail: "a@example.com"}
	second := models.SubmissionEvent{AssignmentUID: "a1", SubmissionUID: "shared", Kind: models.EventKindResubmit, SubmitterEmail: "a@example.com"}
	require.NoError(t, repo.Append(context.Background(), &first))
	require.NoError(t, repo.Append(context.Background(), &second))

	events, err := repo.ListBySubmissionUID(context.Background(), "shared")
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Oldest first: the full history of one identifier in submission order.
	require.Equal(t, models.EventKindFirst, events[0].Kind)
	require.Equal(t, models.EventKindResubmit, events[1].Kind)
}

func TestSubmissionEventRepositoryRoundTripsJSONFields(t *testing.T) {
	db := setupTestDB(t, &models.SubmissionEvent{})
	repo := NewSubmissionEventRepository(db)

	event := models.SubmissionEvent{
		AssignmentUID:     "a1",
		SubmissionUID:     "s1",
		Kind:              models.EventKindFirst,
		SubmitterEmail:    "lead@example.com",
		GroupName:         "Team Rocket",
		GroupMemberEmails: []byte(`["lead@example.com","member@example.com"]`),
		Files:             []byte(`[{"name":"report.pdf","url":"https://cdn.example.com/report.pdf"}]`),
		Answers:           map[string]interface{}{"Repository link?": "https://example.com/repo"},
	}
	require.NoError(t, repo.Append(context.Background(), &event))

	events, err := repo.ListByAssignment(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, events, 1)

	stored := events[0]
	require.Equal(t, []string{"lead@example.com", "member@example.com"}, stored.MemberEmails())
	require.Equal(t, "report.pdf", stored.FileList()[0].Name)
	require.Equal(t, "https://example.com/repo", stored.Answers["Repository link?"])
	require.True(t, stored.MatchesSubmitter("member@example.com", ""))
}
