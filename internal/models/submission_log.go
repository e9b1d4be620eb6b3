package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Header column names shared by every submission log. AnchorColumn is the fixed
// column the schema engine inserts the submission identifier after.
const (
	ColumnTimestamp         = "Timestamp"
	ColumnResubmission      = "Resubmission"
	ColumnSubmissionID      = "Submission ID"
	ColumnSubmitterEmail    = "Email"
	ColumnSubmitterName     = "Name"
	ColumnGroupName         = "Group Name"
	ColumnGroupMemberEmails = "Group Member Emails"
	ColumnGroupMembers      = "Group Members"

	AnchorColumn = ColumnTimestamp
)

// LogColumn is one header cell of a submission log. Generation records which
// schema-evolution pass introduced the column; base columns carry generation 0.
type LogColumn struct {
	Name       string `json:"name"`
	Generation int    `json:"generation"`
}

// SubmissionLog is the per-assignment header record of the append-only
// submission ledger. Existing columns are never removed or reordered; the
// schema engine only ever inserts or appends.
type SubmissionLog struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AssignmentUID string         `gorm:"size:64;uniqueIndex;not null" json:"assignment_uid"`
	Columns       datatypes.JSON `json:"columns"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ColumnList decodes the ordered header columns.
func (l SubmissionLog) ColumnList() []LogColumn {
	if len(l.Columns) == 0 {
		return nil
	}
	var columns []LogColumn
	if err := json.Unmarshal(l.Columns, &columns); err != nil {
		return nil
	}
	return columns
}

// BaseColumns returns the header every fresh submission log starts with.
func BaseColumns() []LogColumn {
	names := []string{ColumnTimestamp, ColumnResubmission, ColumnSubmitterEmail, ColumnSubmitterName}
	columns := make([]LogColumn, 0, len(names))
	for _, name := range names {
		columns = append(columns, LogColumn{Name: name})
	}
	return columns
}

// EncodeColumns marshals a header for storage.
func EncodeColumns(columns []LogColumn) (datatypes.JSON, error) {
	payload, err := json.Marshal(columns)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(payload), nil
}
