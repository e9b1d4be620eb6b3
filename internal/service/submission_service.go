package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/arkode/submithub-api/internal/dto"
	"github.com/arkode/submithub-api/internal/models"
	"github.com/arkode/submithub-api/internal/observability"
	"github.com/arkode/submithub-api/internal/repository"
	"github.com/arkode/submithub-api/pkg/blobstore"
)

var (
	// ErrSubmitterNotEnrolled indicates the submitter could not be authorized
	// against the roster.
	ErrSubmitterNotEnrolled = errors.New("submitter is not enrolled for this assignment")
	// ErrAssignmentClosed indicates the assignment does not accept submissions.
	ErrAssignmentClosed = errors.New("assignment is not accepting submissions")
	// ErrMandatoryAnswerMissing indicates a mandatory question has no answer.
	ErrMandatoryAnswerMissing = errors.New("mandatory question not answered")
)

// FileVerificationError carries the files that failed the all-or-nothing
// upload verification gate. The whole submission aborts; no log row is written
// and no index mutation is attempted.
type FileVerificationError struct {
	Failed []string
}

func (e *FileVerificationError) Error() string {
	return fmt.Sprintf("file verification failed for: %s", strings.Join(e.Failed, ", "))
}

// EventSink receives best-effort notifications after a submission lands.
// Failures are logged and swallowed, mirroring the index sync contract.
type EventSink interface {
	SubmissionAccepted(ctx context.Context, event models.SubmissionEvent)
}

// SubmissionService turns a submit action into a consistent set of writes:
// always an append to the submission log, plus a best-effort master index
// upsert and event publication.
type SubmissionService interface {
	Submit(ctx context.Context, payload dto.SubmitRequest) (dto.SubmissionResponse, error)
	History(ctx context.Context, assignmentUID, submitterEmail string) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	assignments repository.AssignmentRepository
	events      repository.SubmissionEventRepository
	students    repository.StudentRepository
	schema      SchemaService
	identity    IdentityService
	index       IndexService
	store       blobstore.Store
	sink        EventSink
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs the submission pipeline.
func NewSubmissionService(
	assignments repository.AssignmentRepository,
	events repository.SubmissionEventRepository,
	students repository.StudentRepository,
	schema SchemaService,
	identity IdentityService,
	index IndexService,
	store blobstore.Store,
	sink EventSink,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		assignments: assignments,
		events:      events,
		students:    students,
		schema:      schema,
		identity:    identity,
		index:       index,
		store:       store,
		sink:        sink,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/arkode/submithub-api/internal/service/submission"),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, payload dto.SubmitRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		observability.SubmissionsRejected().WithLabelValues("validation").Inc()
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByUID(ctx, payload.AssignmentUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}
	if !assignment.AcceptsSubmissions() {
		observability.SubmissionsRejected().WithLabelValues("closed").Inc()
		return dto.SubmissionResponse{}, ErrAssignmentClosed
	}

	submitter, err := s.authorize(ctx, assignment, payload.SubmitterEmail)
	if err != nil {
		observability.SubmissionsRejected().WithLabelValues("roster").Inc()
		return dto.SubmissionResponse{}, err
	}

	if err := s.checkMandatoryAnswers(assignment, payload.Answers); err != nil {
		observability.SubmissionsRejected().WithLabelValues("validation").Inc()
		return dto.SubmissionResponse{}, err
	}

	// Schema evolution runs before every log write: the assignment definition
	// may have gained questions since the log was created.
	if _, err := s.schema.EnsureSchema(ctx, assignment); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submissionUID, prior, err := s.identity.Resolve(ctx, assignment, payload.SubmitterEmail, submitter.Name)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	// All-or-nothing gate: every file in the batch must verify before a
	// single byte hits the log.
	if err := s.verifyFiles(ctx, payload.Files); err != nil {
		observability.SubmissionsRejected().WithLabelValues("files").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "file verification failed")
		return dto.SubmissionResponse{}, err
	}

	event, err := s.buildEvent(ctx, assignment, payload, submitter, submissionUID, prior)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if err := s.events.Append(ctx, &event); err != nil {
		return dto.SubmissionResponse{}, err
	}

	observability.Submissions().WithLabelValues(string(event.Kind)).Inc()
	span.SetAttributes(
		attribute.String("submission.uid", event.SubmissionUID),
		attribute.Bool("submission.resubmission", event.IsResubmission()),
	)

	// The index sync is failure-isolated: it runs inline but its error is
	// logged and discarded, never surfaced to the submitter.
	if err := s.index.Sync(ctx, event, assignment); err != nil {
		s.logger.Warn().Err(err).
			Str("submission_uid", event.SubmissionUID).
			Msg("master index sync failed, submission unaffected")
	}

	if s.sink != nil {
		s.sink.SubmissionAccepted(ctx, event)
	}

	s.logger.Info().
		Str("assignment_uid", assignment.UID).
		Str("submission_uid", event.SubmissionUID).
		Str("kind", string(event.Kind)).
		Msg("submission appended")

	span.SetStatus(codes.Ok, "submitted")

	return dto.NewSubmissionResponse(event), nil
}

func (s *submissionService) History(ctx context.Context, assignmentUID, submitterEmail string) ([]dto.SubmissionResponse, error) {
	assignment, err := s.assignments.GetByUID(ctx, assignmentUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	// Reads also run the schema engine first, so a header that lags the
	// definition is healed before rows are interpreted.
	if _, err := s.schema.EnsureSchema(ctx, assignment); err != nil {
		return nil, err
	}

	events, err := s.events.ListByAssignment(ctx, assignment.UID)
	if err != nil {
		return nil, err
	}

	matched := make([]models.SubmissionEvent, 0, len(events))
	for _, event := range events {
		if event.MatchesSubmitter(submitterEmail, "") {
			matched = append(matched, event)
		}
	}

	return dto.NewSubmissionResponseSlice(matched), nil
}

func (s *submissionService) authorize(ctx context.Context, assignment models.Assignment, email string) (models.Student, error) {
	student, err := s.students.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrSubmitterNotEnrolled
		}
		return models.Student{}, err
	}

	if assignment.Cohort != "" && student.Cohort != assignment.Cohort {
		return models.Student{}, ErrSubmitterNotEnrolled
	}
	if !student.EnrolledIn(assignment.Subject) {
		return models.Student{}, ErrSubmitterNotEnrolled
	}

	return student, nil
}

func (s *submissionService) checkMandatoryAnswers(assignment models.Assignment, answers map[string]string) error {
	for _, question := range assignment.QuestionList() {
		if !question.Mandatory {
			continue
		}
		if strings.TrimSpace(answers[question.Text]) == "" {
			return fmt.Errorf("%w: %s", ErrMandatoryAnswerMissing, question.Text)
		}
	}
	return nil
}

// verifyFiles checks every file reference against the blob store. One failure
// fails the batch.
func (s *submissionService) verifyFiles(ctx context.Context, files []dto.SubmitFileRef) error {
	if len(files) == 0 {
		return nil
	}

	var failed []string
	for _, file := range files {
		if file.BlobHandle == "" {
			failed = append(failed, file.Name)
			continue
		}
		if _, err := s.store.StatBlob(ctx, file.BlobHandle); err != nil {
			failed = append(failed, file.Name)
		}
	}

	if len(failed) > 0 {
		return &FileVerificationError{Failed: failed}
	}
	return nil
}

func (s *submissionService) buildEvent(ctx context.Context, assignment models.Assignment, payload dto.SubmitRequest, submitter models.Student, submissionUID string, prior bool) (models.SubmissionEvent, error) {
	kind := models.EventKindFirst
	if prior {
		kind = models.EventKindResubmit
	}

	files := make([]models.FileRef, 0, len(payload.Files))
	for _, file := range payload.Files {
		files = append(files, models.FileRef{Name: file.Name, URL: file.URL})
	}
	links := make([]models.LinkRef, 0, len(payload.Links))
	for _, link := range payload.Links {
		links = append(links, models.LinkRef{Name: link.Name, URL: link.URL})
	}

	encodedFiles, err := json.Marshal(files)
	if err != nil {
		return models.SubmissionEvent{}, err
	}
	encodedLinks, err := json.Marshal(links)
	if err != nil {
		return models.SubmissionEvent{}, err
	}

	answers := make(datatypes.JSONMap, len(payload.Answers))
	for question, answer := range payload.Answers {
		answers[question] = answer
	}

	event := models.SubmissionEvent{
		AssignmentUID:  assignment.UID,
		SubmissionUID:  submissionUID,
		Kind:           kind,
		SubmittedAt:    s.now(),
		SubmitterEmail: strings.ToLower(strings.TrimSpace(payload.SubmitterEmail)),
		SubmitterName:  submitter.Name,
		Files:          datatypes.JSON(encodedFiles),
		Links:          datatypes.JSON(encodedLinks),
		Answers:        answers,
	}

	if assignment.GroupMode && len(payload.GroupMemberEmails) > 0 {
		event.GroupName = payload.GroupName
		memberNames, err := s.resolveMemberNames(ctx, payload.GroupMemberEmails)
		if err != nil {
			return models.SubmissionEvent{}, err
		}
		encodedMembers, err := json.Marshal(payload.GroupMemberEmails)
		if err != nil {
			return models.SubmissionEvent{}, err
		}
		event.GroupMemberEmails = datatypes.JSON(encodedMembers)
		event.GroupMembers = strings.Join(memberNames, ", ")
	}

	return event, nil
}

// resolveMemberNames translates member emails to roster display names; emails
// without a roster entry fall back to the email itself.
func (s *submissionService) resolveMemberNames(ctx context.Context, emails []string) ([]string, error) {
	students, err := s.students.ListByEmails(ctx, emails)
	if err != nil {
		return nil, err
	}

	byEmail := make(map[string]string, len(students))
	for _, student := range students {
		byEmail[strings.ToLower(student.Email)] = student.Name
	}

	names := make([]string, 0, len(emails))
	for _, email := range emails {
		key := strings.ToLower(strings.TrimSpace(email))
		if name, ok := byEmail[key]; ok && name != "" {
			names = append(names, name)
			continue
		}
		names = append(names, key)
	}

	return names, nil
}
