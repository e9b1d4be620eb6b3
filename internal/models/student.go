package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Student is one roster entry. The submission path reads the roster to
// authorize submitters and translate member emails to display names; it never
// writes to it.
type Student struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Cohort    string         `gorm:"size:64;index" json:"cohort"`
	Subjects  datatypes.JSON `json:"subjects"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SubjectList decodes the subjects the student is enrolled in.
func (s Student) SubjectList() []string {
	if len(s.Subjects) == 0 {
		return nil
	}
	var subjects []string
	if err := json.Unmarshal(s.Subjects, &subjects); err != nil {
		return nil
	}
	return subjects
}

// EnrolledIn reports whether the student may submit for the given subject.
// An empty subject on the assignment side means no subject restriction.
func (s Student) EnrolledIn(subject string) bool {
	if subject == "" {
		return true
	}
	for _, enrolled := range s.SubjectList() {
		if enrolled == subject {
			return true
		}
	}
	return false
}
