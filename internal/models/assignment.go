package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Limits imposed on assignment definitions and submission payloads.
const (
	MaxQuestions = 20
	MaxFileSlots = 10
	MaxLinkSlots = 5
)

const (
	// AssignmentStatusActive marks an assignment open for submissions.
	AssignmentStatusActive = "active"
	// AssignmentStatusArchived marks a soft-deleted assignment. Rows are never physically removed.
	AssignmentStatusArchived = "archived"
)

// Question is one (text, mandatory) pair of an assignment definition.
type Question struct {
	Text      string `json:"text"`
	Mandatory bool   `json:"mandatory"`
}

// Assignment represents one coursework assignment definition.
//
// The three external handles (submission log, upload folder, instructor folder)
// are set exactly once at creation and are never reassigned by later updates.
type Assignment struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	UID                    string         `gorm:"size:64;uniqueIndex;not null" json:"uid"`
	Title                  string         `gorm:"size:255;not null" json:"title"`
	Cohort                 string         `gorm:"size:64;index" json:"cohort"`
	Term                   string         `gorm:"size:64" json:"term"`
	Subject                string         `gorm:"size:128" json:"subject"`
	Published              bool           `json:"published"`
	Status                 string         `gorm:"size:32;not null" json:"status"`
	GroupMode              bool           `json:"group_mode"`
	PeerRatingEnabled      bool           `json:"peer_rating_enabled"`
	MaxGroupSize           int            `json:"max_group_size"`
	Questions              datatypes.JSON `json:"questions"`
	SubmissionLogHandle    string         `gorm:"size:255" json:"submission_log_handle"`
	UploadFolderHandle     string         `gorm:"size:255" json:"upload_folder_handle"`
	InstructorFolderHandle string         `gorm:"size:255" json:"instructor_folder_handle"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// QuestionList decodes the assignment's question definitions.
func (a Assignment) QuestionList() []Question {
	if len(a.Questions) == 0 {
		return nil
	}
	var questions []Question
	if err := json.Unmarshal(a.Questions, &questions); err != nil {
		return nil
	}
	if len(questions) > MaxQuestions {
		questions = questions[:MaxQuestions]
	}
	return questions
}

// IsArchived reports whether the assignment has been soft-deleted.
func (a Assignment) IsArchived() bool {
	return a.Status == AssignmentStatusArchived
}

// AcceptsSubmissions reports whether students may currently submit.
func (a Assignment) AcceptsSubmissions() bool {
	return a.Published && a.Status == AssignmentStatusActive
}
