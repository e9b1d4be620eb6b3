package service

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/arkode/submithub-api/internal/models"
	"github.com/arkode/submithub-api/internal/repository"
	"github.com/arkode/submithub-api/pkg/blobstore"
	"github.com/arkode/submithub-api/pkg/resumable"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type memoryAssignmentRepo struct {
	assignments map[string]models.Assignment
	nextID      uint
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{assignments: make(map[string]models.Assignment), nextID: 1}
}

func (m *memoryAssignmentRepo) List(ctx context.Context, filter repository.AssignmentFilter) ([]models.Assignment, error) {
	results := make([]models.Assignment, 0, len(m.assignments))
	for _, assignment := range m.assignments {
		if filter.Cohort != "" && assignment.Cohort != filter.Cohort {
			continue
		}
		if filter.Status != "" && assignment.Status != filter.Status {
			continue
		}
		results = append(results, assignment)
	}
	return results, nil
}

func (m *memoryAssignmentRepo) GetByUID(ctx context.Context, uid string) (models.Assignment, error) {
	assignment, ok := m.assignments[uid]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (m *memoryAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	assignment.ID = m.nextID
	assignment.CreatedAt = time.Now()
	assignment.UpdatedAt = time.Now()
	m.assignments[assignment.UID] = *assignment
	m.nextID++
	return nil
}

func (m *memoryAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	if _, ok := m.assignments[assignment.UID]; !ok {
		return gorm.ErrRecordNotFound
	}
	assignment.UpdatedAt = time.Now()
	m.assignments[assignment.UID] = *assignment
	return nil
}

type memoryLogRepo struct {
	logs   map[string]models.SubmissionLog
	nextID uint
}

func newMemoryLogRepo() *memoryLogRepo {
	return &memoryLogRepo{logs: make(map[string]models.SubmissionLog), nextID: 1}
}

func (m *memoryLogRepo) GetOrCreate(ctx context.Context, assignmentUID string) (models.SubmissionLog, error) {
	if log, ok := m.logs[assignmentUID]; ok {
		return log, nil
	}
	columns, err := models.EncodeColumns(models.BaseColumns())
	if err != nil {
		return models.SubmissionLog{}, err
	}
	log := models.SubmissionLog{ID: m.nextID, AssignmentUID: assignmentUID, Columns: columns}
	m.logs[assignmentUID] = log
	m.nextID++
	return log, nil
}

func (m *memoryLogRepo) UpdateColumns(ctx context.Context, logID uint, columns []models.LogColumn) error {
	for uid, log := range m.logs {
		if log.ID == logID {
			encoded, err := models.EncodeColumns(columns)
			if err != nil {
				return err
			}
			log.Columns = encoded
			m.logs[uid] = log
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type memoryEventRepo struct {
	events []models.SubmissionEvent
	nextID uint
}

func newMemoryEventRepo() *memoryEventRepo {
	return &memoryEventRepo{nextID: 1}
}

func (m *memoryEventRepo) Append(ctx context.Context, event *models.SubmissionEvent) error {
	event.ID = m.nextID
	event.CreatedAt = time.Now()
	m.nextID++
	m.events = append(m.events, *event)
	return nil
}

func (m *memoryEventRepo) ListByAssignment(ctx context.Context, assignmentUID string) ([]models.SubmissionEvent, error) {
	var results []models.SubmissionEvent
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].AssignmentUID == assignmentUID {
			results = append(results, m.events[i])
		}
	}
	return results, nil
}

func (m *memoryEventRepo) ListBySubmissionUID(ctx context.Context, submissionUID string) ([]models.SubmissionEvent, error) {
	var results []models.SubmissionEvent
	for _, event := range m.events {
		if event.SubmissionUID == submissionUID {
			results = append(results, event)
		}
	}
	return results, nil
}

func (m *memoryEventRepo) CountByAssignment(ctx context.Context, assignmentUID string) (int64, error) {
	var count int64
	for _, event := range m.events {
		if event.AssignmentUID == assignmentUID {
			count++
		}
	}
	return count, nil
}

type memoryIndexRepo struct {
	entries map[string]models.MasterIndexEntry
	nextID  uint
}

func newMemoryIndexRepo() *memoryIndexRepo {
	return &memoryIndexRepo{entries: make(map[string]models.MasterIndexEntry), nextID: 1}
}

func (m *memoryIndexRepo) GetByRowKey(ctx context.Context, rowKey string) (models.MasterIndexEntry, error) {
	entry, ok := m.entries[rowKey]
	if !ok {
		return models.MasterIndexEntry{}, gorm.ErrRecordNotFound
	}
	return entry, nil
}

func (m *memoryIndexRepo) GetByID(ctx context.Context, id uint) (models.MasterIndexEntry, error) {
	for _, entry := range m.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return models.MasterIndexEntry{}, gorm.ErrRecordNotFound
}

func (m *memoryIndexRepo) Create(ctx context.Context, entry *models.MasterIndexEntry) error {
	entry.ID = m.nextID
	m.nextID++
	m.entries[entry.RowKey] = *entry
	return nil
}

func (m *memoryIndexRepo) Update(ctx context.Context, entry *models.MasterIndexEntry) error {
	if _, ok := m.entries[entry.RowKey]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.entries[entry.RowKey] = *entry
	return nil
}

func (m *memoryIndexRepo) ListByAssignee(ctx context.Context, assigneeKey string) ([]models.MasterIndexEntry, error) {
	var results []models.MasterIndexEntry
	for _, entry := range m.entries {
		if entry.AssigneeKey == assigneeKey {
			results = append(results, entry)
		}
	}
	return results, nil
}

func (m *memoryIndexRepo) ListByAssignment(ctx context.Context, assignmentUID string) ([]models.MasterIndexEntry, error) {
	var results []models.MasterIndexEntry
	for _, entry := range m.entries {
		if entry.AssignmentUID == assignmentUID {
			results = append(results, entry)
		}
	}
	return results, nil
}

type memoryRatingRepo struct {
	ratings []models.PeerRating
	nextID  uint
}

func newMemoryRatingRepo() *memoryRatingRepo {
	return &memoryRatingRepo{nextID: 1}
}

func (m *memoryRatingRepo) Create(ctx context.Context, rating *models.PeerRating) error {
	rating.ID = m.nextID
	rating.CreatedAt = time.Now()
	m.nextID++
	m.ratings = append(m.ratings, *rating)
	return nil
}

func (m *memoryRatingRepo) ListByAssignment(ctx context.Context, assignmentUID string) ([]models.PeerRating, error) {
	var results []models.PeerRating
	for _, rating := range m.ratings {
		if rating.AssignmentUID == assignmentUID {
			results = append(results, rating)
		}
	}
	return results, nil
}

type memoryStudentRepo struct {
	students map[string]models.Student
	nextID   uint
}

func newMemoryStudentRepo() *memoryStudentRepo {
	return &memoryStudentRepo{students: make(map[string]models.Student), nextID: 1}
}

func (m *memoryStudentRepo) GetByEmail(ctx context.Context, email string) (models.Student, error) {
	student, ok := m.students[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (m *memoryStudentRepo) ListByEmails(ctx context.Context, emails []string) ([]models.Student, error) {
	var results []models.Student
	for _, email := range emails {
		if student, ok := m.students[strings.ToLower(strings.TrimSpace(email))]; ok {
			results = append(results, student)
		}
	}
	return results, nil
}

func (m *memoryStudentRepo) Create(ctx context.Context, student *models.Student) error {
	student.ID = m.nextID
	m.nextID++
	m.students[strings.ToLower(student.Email)] = *student
	return nil
}

type memorySessionRepo struct {
	sessions map[string]models.UploadSession
	nextID   uint
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{sessions: make(map[string]models.UploadSession), nextID: 1}
}

func (m *memorySessionRepo) Create(ctx context.Context, session *models.UploadSession) error {
	session.ID = m.nextID
	m.nextID++
	m.sessions[session.UID] = *session
	return nil
}

func (m *memorySessionRepo) GetByUID(ctx context.Context, uid string) (models.UploadSession, error) {
	session, ok := m.sessions[uid]
	if !ok {
		return models.UploadSession{}, gorm.ErrRecordNotFound
	}
	return session, nil
}

func (m *memorySessionRepo) Update(ctx context.Context, session *models.UploadSession) error {
	if _, ok := m.sessions[session.UID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.sessions[session.UID] = *session
	return nil
}

// stubBlobStore is an in-memory blobstore.Store. Handles listed in
// missingHandles fail StatBlob, which is how tests simulate a file that never
// finished uploading.
type stubBlobStore struct {
	containers     map[string]blobstore.Container
	blobs          map[string][]blobstore.Blob
	missingHandles map[string]bool
	createCalls    int
	listErr        error
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{
		containers:     make(map[string]blobstore.Container),
		blobs:          make(map[string][]blobstore.Blob),
		missingHandles: make(map[string]bool),
	}
}

func (s *stubBlobStore) FindOrCreateContainer(ctx context.Context, parent, name string) (blobstore.Container, error) {
	key := parent + "/" + name
	if container, ok := s.containers[key]; ok {
		return container, nil
	}
	container := blobstore.Container{Handle: key, Name: name}
	s.containers[key] = container
	return container, nil
}

func (s *stubBlobStore) CreateBlob(ctx context.Context, container, name, mimeType string, reader io.Reader) (blobstore.Blob, error) {
	s.createCalls++
	payload, _ := io.ReadAll(reader)
	blob := blobstore.Blob{
		Handle:     container + "/" + name,
		Name:       name,
		URL:        "https://cdn.example.com/" + name,
		SizeBytes:  int64(len(payload)),
		ModifiedAt: time.Now(),
	}
	s.blobs[container] = append(s.blobs[container], blob)
	return blob, nil
}

func (s *stubBlobStore) SetShareable(ctx context.Context, handle string) (string, error) {
	return "https://cdn.example.com/shared/" + handle, nil
}

func (s *stubBlobStore) ListBlobs(ctx context.Context, container string) ([]blobstore.Blob, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.blobs[container], nil
}

func (s *stubBlobStore) StatBlob(ctx context.Context, handle string) (blobstore.Blob, error) {
	if s.missingHandles[handle] {
		return blobstore.Blob{}, blobstore.ErrBlobNotFound
	}
	return blobstore.Blob{Handle: handle}, nil
}

// stubTransport fakes the resumable upload wire protocol.
type stubTransport struct {
	sessionURI string
	startErr   error
	status     resumable.Status
	statusErr  error
}

func (s *stubTransport) Start(ctx context.Context, endpoint string, meta resumable.FileMeta) (string, error) {
	if s.startErr != nil {
		return "", s.startErr
	}
	if s.sessionURI == "" {
		return "https://uploads.example.com/session/test", nil
	}
	return s.sessionURI, nil
}

func (s *stubTransport) QueryStatus(ctx context.Context, sessionURI string, totalBytes int64) (resumable.Status, error) {
	if s.statusErr != nil {
		return resumable.Status{}, s.statusErr
	}
	return s.status, nil
}

// recordingSink captures best-effort event notifications.
type recordingSink struct {
	accepted []models.SubmissionEvent
}

func (r *recordingSink) SubmissionAccepted(_ context.Context, event models.SubmissionEvent) {
	r.accepted = append(r.accepted, event)
}

func mustJSON(v interface{}) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return payload
}
