package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/arkode/submithub-api/internal/models"
	"github.com/arkode/submithub-api/internal/observability"
	"github.com/arkode/submithub-api/internal/repository"
)

// SchemaService extends submission log headers as assignment definitions
// evolve. Columns are only ever inserted or appended, never removed or
// reordered, so historical rows keep their meaning across generations.
type SchemaService interface {
	// EnsureSchema loads the assignment's log header, evolves it to cover the
	// current definition and persists it if anything changed. It runs before
	// every log read and write.
	EnsureSchema(ctx context.Context, assignment models.Assignment) (models.SubmissionLog, error)
}

type schemaService struct {
	logs   repository.SubmissionLogRepository
	logger zerolog.Logger
}

// NewSchemaService constructs the schema evolution engine.
func NewSchemaService(logs repository.SubmissionLogRepository, logger zerolog.Logger) SchemaService {
	return &schemaService{
		logs:   logs,
		logger: logger.With().Str("component", "schema_service").Logger(),
	}
}

func (s *schemaService) EnsureSchema(ctx context.Context, assignment models.Assignment) (models.SubmissionLog, error) {
	log, err := s.logs.GetOrCreate(ctx, assignment.UID)
	if err != nil {
		return models.SubmissionLog{}, err
	}

	columns := log.ColumnList()
	evolved, changed := EvolveColumns(assignment, columns)
	if !changed {
		return log, nil
	}

	if err := s.logs.UpdateColumns(ctx, log.ID, evolved); err != nil {
		return models.SubmissionLog{}, err
	}

	encoded, err := models.EncodeColumns(evolved)
	if err != nil {
		return models.SubmissionLog{}, err
	}
	log.Columns = encoded

	observability.SchemaEvolutions().Inc()
	s.logger.Info().
		Str("assignment_uid", assignment.UID).
		Int("columns", len(evolved)).
		Msg("submission log header extended")

	return log, nil
}

// EvolveColumns computes the minimal evolution of a log header for the given
// assignment definition. Rules, in order: the submission identifier column is
// inserted right after the anchor column if absent; group-mode columns are
// inserted right after it, in fixed relative order, each only if absent; any
// question text not yet a header is appended at the end. Newly added columns
// carry the next generation stamp so operators can tell schema generations
// apart. Running the evolution twice with the same definition is a no-op the
// second time.
func EvolveColumns(assignment models.Assignment, columns []models.LogColumn) ([]models.LogColumn, bool) {
	result := make([]models.LogColumn, len(columns))
	copy(result, columns)

	generation := nextGeneration(result)
	changed := false

	if !hasColumn(result, models.ColumnSubmissionID) {
		result = insertAfter(result, models.AnchorColumn, models.LogColumn{
			Name:       models.ColumnSubmissionID,
			Generation: generation,
		})
		changed = true
	}

	if assignment.GroupMode {
		groupColumns := []string{models.ColumnGroupName, models.ColumnGroupMemberEmails, models.ColumnGroupMembers}
		anchor := models.ColumnSubmissionID
		for _, name := range groupColumns {
			if !hasColumn(result, name) {
				result = insertAfter(result, anchor, models.LogColumn{Name: name, Generation: generation})
				changed = true
			}
			anchor = name
		}
	}

	for _, question := range assignment.QuestionList() {
		if question.Text == "" || hasColumn(result, question.Text) {
			continue
		}
		result = append(result, models.LogColumn{Name: question.Text, Generation: generation})
		changed = true
	}

	return result, changed
}

func hasColumn(columns []models.LogColumn, name string) bool {
	for _, column := range columns {
		if column.Name == name {
			return true
		}
	}
	return false
}

func nextGeneration(columns []models.LogColumn) int {
	max := 0
	for _, column := range columns {
		if column.Generation > max {
			max = column.Generation
		}
	}
	return max + 1
}

// insertAfter places the column immediately after the named anchor. A missing
// anchor falls back to appending, which keeps the header usable even for logs
// created before the anchor existed.
func insertAfter(columns []models.LogColumn, anchor string, column models.LogColumn) []models.LogColumn {
	for i, existing := range columns {
		if existing.Name == anchor {
			result := make([]models.LogColumn, 0, len(columns)+1)
			result = append(result, columns[:i+1]...)
			result = append(result, column)
			result = append(result, columns[i+1:]...)
			return result
		}
	}
	return append(columns, column)
}
