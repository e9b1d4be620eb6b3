package dto

// UploadInitiateRequest opens a resumable upload session for one large file.
type UploadInitiateRequest struct {
	AssignmentUID  string `json:"assignment_uid" validate:"required"`
	SubmitterEmail string `json:"submitter_email" validate:"required,email"`
	FileName       string `json:"file_name" validate:"required"`
	SizeBytes      int64  `json:"size_bytes" validate:"required,gt=0"`
	MimeType       string `json:"mime_type" validate:"required"`
}

// UploadInitiateResponse returns the session the client should PUT chunks to.
type UploadInitiateResponse struct {
	SessionUID string `json:"session_uid"`
	SessionURI string `json:"session_uri"`
}

// UploadResultResponse is the outcome of a finalize or inline upload.
type UploadResultResponse struct {
	BlobHandle string `json:"blob_handle"`
	URL        string `json:"url"`
	FileName   string `json:"file_name"`
	SizeBytes  int64  `json:"size_bytes"`
	Status     string `json:"status"`
}
