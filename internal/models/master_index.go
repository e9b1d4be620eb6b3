package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// MasterIndexEntry is the single canonical row per (assignee-or-group,
// assignment) pair in the global cross-assignment index. Entries are upserted,
// never append-duplicated: the first submission inserts, every later
// resubmission mutates the same row. EditCount strictly increases with each
// resubmission, so EditCount == submissions - 1 at all times.
type MasterIndexEntry struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	RowKey           string         `gorm:"size:512;uniqueIndex;not null" json:"row_key"`
	AssignmentUID    string         `gorm:"size:64;index;not null" json:"assignment_uid"`
	AssigneeKey      string         `gorm:"size:255;index;not null" json:"assignee_key"`
	SubmissionUID    string         `gorm:"size:255;not null" json:"submission_uid"`
	SubmitCount      int            `json:"submit_count"`
	EditCount        int            `json:"edit_count"`
	FirstSubmittedAt time.Time      `json:"first_submitted_at"`
	LastEditedAt     time.Time      `json:"last_edited_at"`
	LastEditedBy     string         `gorm:"size:255" json:"last_edited_by"`
	AssignmentTitle  string         `gorm:"size:255" json:"assignment_title"`
	Cohort           string         `gorm:"size:64" json:"cohort"`
	Term             string         `gorm:"size:64" json:"term"`
	Subject          string         `gorm:"size:128" json:"subject"`
	Payload          datatypes.JSON `json:"payload"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// IndexRowKey derives the deterministic composite row key. The same assignee
// and assignment always map to the same key, which is what makes the upsert
// idempotent without a table scan.
func IndexRowKey(assigneeKey, assignmentUID string) string {
	return fmt.Sprintf("%s::%s", strings.ToLower(strings.TrimSpace(assigneeKey)), assignmentUID)
}
