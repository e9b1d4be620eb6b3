package contract_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/arkode/submithub-api/internal/dto"
	"github.com/arkode/submithub-api/internal/handler"
)

type stubSubmissionService struct {
	response dto.SubmissionResponse
}

func (s stubSubmissionService) Submit(context.Context, dto.SubmitRequest) (dto.SubmissionResponse, error) {
	return s.response, nil
}

func (s stubSubmissionService) History(context.Context, string, string) ([]dto.SubmissionResponse, error) {
	return []dto.SubmissionResponse{s.response}, nil
}

func TestSubmissionResponseContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "submission.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	now := time.Now().UTC()
	svc := stubSubmissionService{response: dto.SubmissionResponse{
		SubmissionUID:  "a1_jane@example.com_1700000000000",
		AssignmentUID:  "a1",
		Resubmission:   true,
		SubmittedAt:    now,
		SubmitterEmail: "jane@example.com",
		SubmitterName:  "Jane Doe",
		GroupName:      "Team Rocket",
		GroupMembers:   []string{"jane@example.com", "john@example.com"},
		Answers:        map[string]string{"Repository link?": "https://example.com/repo"},
	}}

	app := fiber.New()
	handler.NewSubmissionHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/submissions"))

	payload, err := json.Marshal(map[string]interface{}{
		"assignment_uid":  "a1",
		"submitter_email": "jane@example.com",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var decoded interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.NoError(t, schema.Validate(decoded))
}
