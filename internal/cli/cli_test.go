package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/verifica/internal/history"
	"github.com/ppiankov/verifica/internal/llm"
	"github.com/ppiankov/verifica/internal/model"
	"github.com/ppiankov/verifica/internal/render"
	"github.com/ppiankov/verifica/internal/verify"
)

type stubProvider struct {
	content string
}

func (p stubProvider) Name() string { return "stub" }

func (p stubProvider) Complete(context.Context, llm.Request) (*llm.Response, error) {
	return &llm.Response{Choices: []llm.Choice{{Content: p.content}}}, nil
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3", "1.5"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "", maskKey(""))
	assert.Equal(t, "****", maskKey("short"))
	assert.Equal(t, "pplx****cdef", maskKey("pplx-0123456789abcdef"))
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, writeDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Verifica Configuration File"))

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, "sonar", cfg.API.Model)
	assert.Equal(t, model.DefaultDomains, cfg.Sources.Domains)

	assert.Error(t, writeDefaultConfig(path), "existing file must not be overwritten")
}

func TestRunTracked(t *testing.T) {
	store := history.New(history.NewMemoryBackend(), zap.NewNop())
	defer store.Close()

	svc := verify.NewService(stubProvider{content: `{"rating":"FALSE","summary":"No","explanation":"e"}`},
		store, model.DefaultConfig().API, model.DefaultDomains, zap.NewNop())

	pending := 0
	out, err := runTracked(context.Background(), verify.NewRunner(svc), "claim", func() { pending++ })
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
	assert.Equal(t, verify.StateVerdict, out.State)
	assert.Equal(t, model.RatingFalse, out.Result.Rating)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReportOutcome(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := render.New(&stdout, nil)
	status := render.New(&stderr, nil)

	err := reportOutcome(r, status, verify.Outcome{
		State:  verify.StateValidationError,
		Result: model.VerificationResult{Explanation: "Query cannot be empty"},
		Err:    model.ErrEmptyClaim,
	}, false)
	assert.ErrorContains(t, err, "Query cannot be empty")
	assert.Empty(t, stdout.String())

	err = reportOutcome(r, status, verify.Outcome{
		State:  verify.StatePersistenceError,
		Result: model.VerificationResult{Claim: "c", Rating: model.RatingTrue, Summary: "Yes", Citations: []model.Citation{}},
		Err:    errors.New("disk full"),
	}, true)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), `"rating": "TRUE"`)
	assert.Contains(t, stderr.String(), "disk full")
}
