package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/arkode/submithub-api/internal/dto"
	"github.com/arkode/submithub-api/internal/models"
)

type assignmentFixture struct {
	svc         AssignmentService
	assignments *memoryAssignmentRepo
	logs        *memoryLogRepo
	store       *stubBlobStore
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()
	assignments := newMemoryAssignmentRepo()
	logs := newMemoryLogRepo()
	store := newStubBlobStore()
	svc := NewAssignmentService(assignments, logs, store, validator.New(validator.WithRequiredStructEnabled()), testLogger())
	return &assignmentFixture{svc: svc, assignments: assignments, logs: logs, store: store}
}

func createRequest() dto.AssignmentCreateRequest {
	return dto.AssignmentCreateRequest{
		Title:     "Distributed Systems Lab",
		Cohort:    "2026",
		Term:      "S1",
		Subject:   "Distributed Systems",
		Published: true,
		Questions: []dto.QuestionPayload{
			{Text: "Repository link?", Mandatory: true},
			{Text: "Known limitations?"},
		},
	}
}

func TestAssignmentCreateProvisionsHandles(t *testing.T) {
	f := newAssignmentFixture(t)

	response, err := f.svc.Create(context.Background(), createRequest())

	require.NoError(t, err)
	require.NotEmpty(t, response.UID)
	require.Equal(t, models.AssignmentStatusActive, response.Status)

	stored, err := f.assignments.GetByUID(context.Background(), response.UID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.UploadFolderHandle)
	require.NotEmpty(t, stored.InstructorFolderHandle)
	require.NotEmpty(t, stored.SubmissionLogHandle)
	require.Len(t, f.logs.logs, 1)
}

func TestAssignmentCreateSeedsLogWithBaseColumns(t *testing.T) {
	f := newAssignmentFixture(t)

	response, err := f.svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	log, err := f.logs.GetOrCreate(context.Background(), response.UID)
	require.NoError(t, err)
	require.Equal(t, models.BaseColumns(), log.ColumnList())
}

func TestAssignmentUpdatePreservesHandles(t *testing.T) {
	f := newAssignmentFixture(t)

	created, err := f.svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	before, err := f.assignments.GetByUID(context.Background(), created.UID)
	require.NoError(t, err)

	title := "Renamed Lab"
	published := false
	_, err = f.svc.Update(context.Background(), created.UID, dto.AssignmentUpdateRequest{
		Title:     &title,
		Published: &published,
	})
	require.NoError(t, err)

	after, err := f.assignments.GetByUID(context.Background(), created.UID)
	require.NoError(t, err)
	require.Equal(t, "Renamed Lab", after.Title)
	require.False(t, after.Published)
	require.Equal(t, before.SubmissionLogHandle, after.SubmissionLogHandle)
	require.Equal(t, before.UploadFolderHandle, after.UploadFolderHandle)
	require.Equal(t, before.InstructorFolderHandle, after.InstructorFolderHandle)
}

func TestAssignmentPeerRatingRequiresGroupMode(t *testing.T) {
	f := newAssignmentFixture(t)

	request := createRequest()
	request.GroupMode = false
	request.PeerRatingEnabled = true

	response, err := f.svc.Create(context.Background(), request)

	require.NoError(t, err)
	require.False(t, response.PeerRatingEnabled)
}

func TestAssignmentArchiveIsSoftDelete(t *testing.T) {
	f := newAssignmentFixture(t)

	created, err := f.svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	require.NoError(t, f.svc.Archive(context.Background(), created.UID))

	// The record survives; it just stops accepting submissions.
	stored, err := f.assignments.GetByUID(context.Background(), created.UID)
	require.NoError(t, err)
	require.True(t, stored.IsArchived())
	require.False(t, stored.AcceptsSubmissions())
	require.NotEmpty(t, stored.SubmissionLogHandle)
}

func TestAssignmentUpdateUnknownUID(t *testing.T) {
	f := newAssignmentFixture(t)

	title := "Renamed"
	_, err := f.svc.Update(context.Background(), "ghost", dto.AssignmentUpdateRequest{Title: &title})

	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestAssignmentCreateRejectsTooManyQuestions(t *testing.T) {
	f := newAssignmentFixture(t)

	request := createRequest()
	request.Questions = nil
	for i := 0; i <= models.MaxQuestions; i++ {
		request.Questions = append(request.Questions, dto.QuestionPayload{Text: "Question"})
	}

	_, err := f.svc.Create(context.Background(), request)

	require.Error(t, err)
}
