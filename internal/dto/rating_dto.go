package dto

// RatingSlotPayload is one rated group member in a rating submission.
type RatingSlotPayload struct {
	RateeName string  `json:"ratee_name" validate:"required"`
	Score     float64 `json:"score" validate:"required,gt=0,lte=10"`
	Remark    string  `json:"remark"`
}

// RatingSubmitRequest is the payload for submitting peer ratings.
type RatingSubmitRequest struct {
	AssignmentUID string              `json:"assignment_uid" validate:"required"`
	SubmissionUID string              `json:"submission_uid" validate:"required"`
	RaterEmail    string              `json:"rater_email" validate:"required,email"`
	RaterName     string              `json:"rater_name"`
	Slots         []RatingSlotPayload `json:"slots" validate:"required,min=1,max=20,dive"`
}

// RatingAggregateResponse is the anonymized aggregate for one ratee. Remarks
// carry no rater attribution.
type RatingAggregateResponse struct {
	RateeName    string   `json:"ratee_name"`
	AverageScore float64  `json:"average_score"`
	RatingCount  int      `json:"rating_count"`
	Remarks      []string `json:"remarks"`
}
