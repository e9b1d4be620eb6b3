package models

import "time"

const (
	// UploadStatusPending means the session is open and the client is still
	// pushing chunks out of band.
	UploadStatusPending = "pending"
	// UploadStatusComplete means finalize confirmed the upload directly.
	UploadStatusComplete = "complete"
	// UploadStatusRecovered means finalize could not confirm the upload but the
	// recovery search found the blob in the destination container.
	UploadStatusRecovered = "recovered"
	// UploadStatusFailed means neither finalize nor recovery produced a blob.
	UploadStatusFailed = "failed"
)

// UploadSession tracks one resumable large-file upload from initiate to
// finalize (or recovery).
type UploadSession struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UID            string    `gorm:"size:64;uniqueIndex;not null" json:"uid"`
	AssignmentUID  string    `gorm:"size:64;index;not null" json:"assignment_uid"`
	SubmitterEmail string    `gorm:"size:255;not null" json:"submitter_email"`
	FileName       string    `gorm:"size:255;not null" json:"file_name"`
	SizeBytes      int64     `json:"size_bytes"`
	MimeType       string    `gorm:"size:128" json:"mime_type"`
	FolderHandle   string    `gorm:"size:255" json:"folder_handle"`
	SessionURI     string    `gorm:"size:1024" json:"session_uri"`
	Status         string    `gorm:"size:32;not null" json:"status"`
	BlobHandle     string    `gorm:"size:512" json:"blob_handle"`
	BlobURL        string    `gorm:"size:1024" json:"blob_url"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Open reports whether the session can still be finalized.
func (s UploadSession) Open() bool {
	return s.Status == UploadStatusPending
}
