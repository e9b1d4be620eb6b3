package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// RatingSlot is one rated group member inside a rater's row.
type RatingSlot struct {
	RateeName string  `json:"ratee_name"`
	Score     float64 `json:"score"`
	Remark    string  `json:"remark"`
}

// Valid reports whether the slot carries a usable numeric rating.
func (s RatingSlot) Valid() bool {
	return s.Score > 0 && s.Score <= MaxRatingScore
}

// MaxRatingScore bounds the numeric rating scale.
const MaxRatingScore = 10

// PeerRating is one write-once row of the per-assignment peer rating ledger.
// Once a rater has a row for a submission identifier the pair is locked and
// further rating submissions are rejected.
type PeerRating struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AssignmentUID string         `gorm:"size:64;index;not null" json:"assignment_uid"`
	SubmissionUID string         `gorm:"size:255;index;not null" json:"submission_uid"`
	RaterEmail    string         `gorm:"size:255;not null" json:"rater_email"`
	RaterName     string         `gorm:"size:255" json:"rater_name"`
	Slots         datatypes.JSON `json:"slots"`
	CreatedAt     time.Time      `json:"created_at"`
}

// SlotList decodes the rated member slots.
func (r PeerRating) SlotList() []RatingSlot {
	if len(r.Slots) == 0 {
		return nil
	}
	var slots []RatingSlot
	if err := json.Unmarshal(r.Slots, &slots); err != nil {
		return nil
	}
	return slots
}
