package dto

import (
	"time"

	"github.com/arkode/submithub-api/internal/models"
)

// IndexEntryResponse is the API shape of one master index row.
type IndexEntryResponse struct {
	RowKey           string    `json:"row_key"`
	AssignmentUID    string    `json:"assignment_uid"`
	AssignmentTitle  string    `json:"assignment_title"`
	AssigneeKey      string    `json:"assignee_key"`
	SubmissionUID    string    `json:"submission_uid"`
	SubmitCount      int       `json:"submit_count"`
	EditCount        int       `json:"edit_count"`
	FirstSubmittedAt time.Time `json:"first_submitted_at"`
	LastEditedAt     time.Time `json:"last_edited_at"`
	LastEditedBy     string    `json:"last_edited_by"`
	Cohort           string    `json:"cohort"`
	Term             string    `json:"term"`
	Subject          string    `json:"subject"`
}

// NewIndexEntryResponse maps a master index entry to its API shape.
func NewIndexEntryResponse(entry models.MasterIndexEntry) IndexEntryResponse {
	return IndexEntryResponse{
		RowKey:           entry.RowKey,
		AssignmentUID:    entry.AssignmentUID,
		AssignmentTitle:  entry.AssignmentTitle,
		AssigneeKey:      entry.AssigneeKey,
		SubmissionUID:    entry.SubmissionUID,
		SubmitCount:      entry.SubmitCount,
		EditCount:        entry.EditCount,
		FirstSubmittedAt: entry.FirstSubmittedAt,
		LastEditedAt:     entry.LastEditedAt,
		LastEditedBy:     entry.LastEditedBy,
		Cohort:           entry.Cohort,
		Term:             entry.Term,
		Subject:          entry.Subject,
	}
}

// NewIndexEntryResponseSlice maps a slice of entries to API shapes.
func NewIndexEntryResponseSlice(entries []models.MasterIndexEntry) []IndexEntryResponse {
	responses := make([]IndexEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, NewIndexEntryResponse(entry))
	}
	return responses
}
