package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// EventKind tags a submission event as the first submission or a resubmission.
// Modelled as a tagged state rather than a bare flag so an event is always one
// or the other, never an ambiguous default.
type EventKind string

const (
	// EventKindFirst marks the first submission by a submitter or group.
	EventKindFirst EventKind = "first_submission"
	// EventKindResubmit marks every subsequent submission sharing the identifier.
	EventKindResubmit EventKind = "resubmission"
)

// FileRef is one (file name, shareable link) pair attached to a submission.
type FileRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// LinkRef is one (display name, external link) pair attached to a submission.
type LinkRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SubmissionEvent is one row of the append-only submission log. Events are
// immutable once written; a resubmission appends a new event and never touches
// prior ones. History for a submitter or group is derived by filtering events.
type SubmissionEvent struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	AssignmentUID     string            `gorm:"size:64;index;not null" json:"assignment_uid"`
	SubmissionUID     string            `gorm:"size:255;index;not null" json:"submission_uid"`
	Kind              EventKind         `gorm:"size:32;not null" json:"kind"`
	SubmittedAt       time.Time         `gorm:"not null" json:"submitted_at"`
	SubmitterEmail    string            `gorm:"size:255;index;not null" json:"submitter_email"`
	SubmitterName     string            `gorm:"size:255" json:"submitter_name"`
	GroupName         string            `gorm:"size:255" json:"group_name"`
	GroupMemberEmails datatypes.JSON    `json:"group_member_emails"`
	GroupMembers      string            `gorm:"type:text" json:"group_members"`
	Files             datatypes.JSON    `json:"files"`
	Links             datatypes.JSON    `json:"links"`
	Answers           datatypes.JSONMap `json:"answers"`
	CreatedAt         time.Time         `json:"created_at"`
}

// IsResubmission reports whether the event reuses a prior submission identifier.
func (e SubmissionEvent) IsResubmission() bool {
	return e.Kind == EventKindResubmit
}

// MemberEmails decodes the group member email slice.
func (e SubmissionEvent) MemberEmails() []string {
	if len(e.GroupMemberEmails) == 0 {
		return nil
	}
	var emails []string
	if err := json.Unmarshal(e.GroupMemberEmails, &emails); err != nil {
		return nil
	}
	return emails
}

// FileList decodes the attached file references.
func (e SubmissionEvent) FileList() []FileRef {
	if len(e.Files) == 0 {
		return nil
	}
	var files []FileRef
	if err := json.Unmarshal(e.Files, &files); err != nil {
		return nil
	}
	return files
}

// LinkList decodes the attached link references.
func (e SubmissionEvent) LinkList() []LinkRef {
	if len(e.Links) == 0 {
		return nil
	}
	var links []LinkRef
	if err := json.Unmarshal(e.Links, &links); err != nil {
		return nil
	}
	return links
}

// MatchesSubmitter reports whether the event belongs to the given submitter,
// either directly or through group membership. The legacy comma-joined member
// field is matched by email or display name to cover rows written before
// member emails were stored separately.
func (e SubmissionEvent) MatchesSubmitter(email, name string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	if strings.ToLower(strings.TrimSpace(e.SubmitterEmail)) == email {
		return true
	}
	for _, member := range e.MemberEmails() {
		if strings.ToLower(strings.TrimSpace(member)) == email {
			return true
		}
	}
	if e.GroupMembers != "" {
		for _, member := range strings.Split(e.GroupMembers, ",") {
			member = strings.ToLower(strings.TrimSpace(member))
			if member == "" {
				continue
			}
			if member == email {
				return true
			}
			if name != "" && member == strings.ToLower(strings.TrimSpace(name)) {
				return true
			}
		}
	}
	return false
}
