package dto

import (
	"time"

	"github.com/arkode/submithub-api/internal/models"
)

// SubmitFileRef references one already-uploaded file in a submit request.
// BlobHandle is the handle returned by the inline or resumable upload path.
type SubmitFileRef struct {
	Name       string `json:"name" validate:"required"`
	BlobHandle string `json:"blob_handle" validate:"required"`
	URL        string `json:"url"`
}

// SubmitLinkRef is one (display name, link) pair attached to a submission.
type SubmitLinkRef struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required,url"`
}

// SubmitRequest is the payload of a submit or resubmit action.
type SubmitRequest struct {
	AssignmentUID     string            `json:"assignment_uid" validate:"required"`
	SubmitterEmail    string            `json:"submitter_email" validate:"required,email"`
	GroupName         string            `json:"group_name"`
	GroupMemberEmails []string          `json:"group_member_emails" validate:"max=20,dive,email"`
	Files             []SubmitFileRef   `json:"files" validate:"max=10,dive"`
	Links             []SubmitLinkRef   `json:"links" validate:"max=5,dive"`
	Answers           map[string]string `json:"answers"`
}

// SubmissionResponse is the API shape of one submission event.
type SubmissionResponse struct {
	SubmissionUID  string            `json:"submission_uid"`
	AssignmentUID  string            `json:"assignment_uid"`
	Resubmission   bool              `json:"resubmission"`
	SubmittedAt    time.Time         `json:"submitted_at"`
	SubmitterEmail string            `json:"submitter_email"`
	SubmitterName  string            `json:"submitter_name"`
	GroupName      string            `json:"group_name,omitempty"`
	GroupMembers   []string          `json:"group_members,omitempty"`
	Files          []models.FileRef  `json:"files"`
	Links          []models.LinkRef  `json:"links"`
	Answers        map[string]string `json:"answers"`
}

// NewSubmissionResponse maps a submission event to its API shape. The tagged
// event kind is flattened back to the boolean resubmission field readers of
// the wire format expect.
func NewSubmissionResponse(event models.SubmissionEvent) SubmissionResponse {
	answers := make(map[string]string, len(event.Answers))
	for key, value := range event.Answers {
		if text, ok := value.(string); ok {
			answers[key] = text
		}
	}

	return SubmissionResponse{
		SubmissionUID:  event.SubmissionUID,
		AssignmentUID:  event.AssignmentUID,
		Resubmission:   event.IsResubmission(),
		SubmittedAt:    event.SubmittedAt,
		SubmitterEmail: event.SubmitterEmail,
		SubmitterName:  event.SubmitterName,
		GroupName:      event.GroupName,
		GroupMembers:   event.MemberEmails(),
		Files:          event.FileList(),
		Links:          event.LinkList(),
		Answers:        answers,
	}
}

// NewSubmissionResponseSlice maps a slice of events to API shapes.
func NewSubmissionResponseSlice(events []models.SubmissionEvent) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, NewSubmissionResponse(event))
	}
	return responses
}
