package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/arkode/submithub-api/internal/models"
)

// submissionEventMessage is the wire shape published after a submission lands.
type submissionEventMessage struct {
	AssignmentUID  string    `json:"assignment_uid"`
	SubmissionUID  string    `json:"submission_uid"`
	Kind           string    `json:"kind"`
	SubmitterEmail string    `json:"submitter_email"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// NATSEventSink publishes submission events to a NATS subject so downstream
// consumers (notifications, analytics) can react. Publication is best-effort:
// a broken connection is logged and never affects the submission result.
type NATSEventSink struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSEventSink constructs the sink. A nil connection yields a sink that
// silently drops events, which keeps wiring simple in environments without a
// broker.
func NewNATSEventSink(conn *nats.Conn, subject string, logger zerolog.Logger) *NATSEventSink {
	if subject == "" {
		subject = "submithub.submissions"
	}
	return &NATSEventSink{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_sink").Logger(),
	}
}

// SubmissionAccepted implements EventSink.
func (s *NATSEventSink) SubmissionAccepted(_ context.Context, event models.SubmissionEvent) {
	if s.conn == nil {
		return
	}

	payload, err := json.Marshal(submissionEventMessage{
		AssignmentUID:  event.AssignmentUID,
		SubmissionUID:  event.SubmissionUID,
		Kind:           string(event.Kind),
		SubmitterEmail: event.SubmitterEmail,
		SubmittedAt:    event.SubmittedAt,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode submission event")
		return
	}

	if err := s.conn.Publish(s.subject, payload); err != nil {
		s.logger.Warn().Err(err).Str("subject", s.subject).Msg("failed to publish submission event")
	}
}
