package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/arkode/submithub-api/internal/models"
)

func seedIndexEntry(t *testing.T, repo MasterIndexRepository, assigneeKey, assignmentUID string) models.MasterIndexEntry {
	t.Helper()
	entry := models.MasterIndexEntry{
		RowKey:           models.IndexRowKey(assigneeKey, assignmentUID),
		AssignmentUID:    assignmentUID,
		AssigneeKey:      assigneeKey,
		SubmissionUID:    assignmentUID + "_" + assigneeKey,
		SubmitCount:      1,
		FirstSubmittedAt: time.Now(),
		LastEditedAt:     time.Now(),
		LastEditedBy:     assigneeKey,
	}
	require.NoError(t, repo.Create(context.Background(), &entry))
	return entry
}

func TestMasterIndexRepositoryGetByRowKey(t *testing.T) {
	db := setupTestDB(t, &models.MasterIndexEntry{})
	repo := NewMasterIndexRepository(db)

	created := seedIndexEntry(t, repo, "jane@example.com", "a1")

	entry, err := repo.GetByRowKey(context.Background(), created.RowKey)
	require.NoError(t, err)
	require.Equal(t, created.ID, entry.ID)

	_, err = repo.GetByRowKey(context.Background(), "nobody::a1")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMasterIndexRepositoryUniqueRowKey(t *testing.T) {
	db := setupTestDB(t, &models.MasterIndexEntry{})
	repo := NewMasterIndexRepository(db)

	seedIndexEntry(t, repo, "jane@example.com", "a1")

	duplicate := models.MasterIndexEntry{
		RowKey:        models.IndexRowKey("jane@example.com", "a1"),
		AssignmentUID: "a1",
		AssigneeKey:   "jane@example.com",
		SubmissionUID: "other",
	}
	require.Error(t, repo.Create(context.Background(), &duplicate))
}

func TestMasterIndexRepositoryUpdateMutatesInPlace(t *testing.T) {
	db := setupTestDB(t, &models.MasterIndexEntry{})
	repo := NewMasterIndexRepository(db)

	entry := seedIndexEntry(t, repo, "jane@example.com", "a1")

	entry.SubmitCount = 2
	entry.EditCount = 1
	entry.LastEditedBy = "jane@example.com"
	require.NoError(t, repo.Update(context.Background(), &entry))

	stored, err := repo.GetByRowKey(context.Background(), entry.RowKey)
	require.NoError(t, err)
	require.Equal(t, 2, stored.SubmitCount)
	require.Equal(t, 1, stored.EditCount)

	var count int64
	require.NoError(t, db.Model(&models.MasterIndexEntry{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestMasterIndexRepositoryListScopes(t *testing.T) {
	db := setupTestDB(t, &models.MasterIndexEntry{})
	repo := NewMasterIndexRepository(db)

	seedIndexEntry(t, repo, "jane@example.com", "a1")
	seedIndexEntry(t, repo, "jane@example.com", "a2")
	seedIndexEntry(t, repo, "john@example.com", "a1")

	byAssignee, err := repo.ListByAssignee(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.Len(t, byAssignee, 2)

	byAssignment, err := repo.ListByAssignment(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, byAssignment, 2)
}
