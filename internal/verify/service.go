package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/verifica/internal/llm"
	"github.com/ppiankov/verifica/internal/model"
)

// State is the phase of a verification flow
type State int

const (
	StatePending State = iota
	StateVerdict
	StateValidationError
	StatePersistenceError
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateVerdict:
		return "verdict"
	case StateValidationError:
		return "validation_error"
	case StatePersistenceError:
		return "persistence_error"
	default:
		return "unknown"
	}
}

// Outcome is what a verification flow reports to its caller.
// Result is always renderable; Err carries the validation or storage error.
type Outcome struct {
	RequestID string
	State     State
	Result    model.VerificationResult
	Err       error
}

// History is the storage the service needs
type History interface {
	Record(ctx context.Context, result model.VerificationResult) (model.VerificationResult, error)
	Get(ctx context.Context, id int64) (model.VerificationResult, error)
	List(ctx context.Context) ([]model.VerificationResult, error)
	Watch(ctx context.Context) (<-chan []model.VerificationResult, error)
	DeleteByID(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
}

// Service runs claims through request building, the provider, the
// normalizer and the history store
type Service struct {
	provider llm.Provider
	history  History
	api      model.APIConfig
	domains  []string
	logger   *zap.Logger
}

// NewService wires a service. domains is the trusted-source filter sent
// with every request.
func NewService(provider llm.Provider, history History, api model.APIConfig, domains []string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider: provider,
		history:  history,
		api:      api,
		domains:  append([]string(nil), domains...),
		logger:   logger,
	}
}

// Verify checks a claim without recording it. The returned error is non-nil
// only when ctx ended before a verdict was produced.
func (s *Service) Verify(ctx context.Context, claim string) (Outcome, error) {
	return s.run(ctx, claim, false)
}

// VerifyAndRecord checks a claim and stores the verdict, including
// UNABLE_TO_VERIFY verdicts synthesized from failures. The returned error is
// non-nil only when ctx ended first; nothing is written in that case.
func (s *Service) VerifyAndRecord(ctx context.Context, claim string) (Outcome, error) {
	return s.run(ctx, claim, true)
}

func (s *Service) run(ctx context.Context, claim string, record bool) (Outcome, error) {
	out := Outcome{RequestID: uuid.NewString()}
	logger := s.logger.With(zap.String("request_id", out.RequestID))

	text, err := model.ValidateClaim(claim)
	if err != nil {
		logger.Debug("claim rejected", zap.Error(err))
		out.State = StateValidationError
		out.Err = err
		out.Result = model.VerificationResult{
			Claim:       claim,
			Rating:      model.RatingUnableToVerify,
			Summary:     SummaryInvalidClaim,
			Explanation: validationMessage(err),
			Citations:   []model.Citation{},
		}
		return out, nil
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	req := llm.BuildRequest(text, s.api, s.domains)

	start := time.Now()
	resp, callErr := s.provider.Complete(ctx, req)
	elapsed := time.Since(start)

	// Abandoned by the caller: drop the reply and skip the write.
	if err := ctx.Err(); err != nil {
		logger.Debug("verification abandoned", zap.Error(err))
		return Outcome{}, err
	}

	out.Result = Normalize(text, resp, callErr)
	out.State = StateVerdict

	fields := []zap.Field{
		zap.String("provider", s.provider.Name()),
		zap.String("rating", out.Result.Rating.String()),
		zap.Duration("elapsed", elapsed),
		zap.Int("citations", len(out.Result.Citations)),
	}
	if resp != nil {
		fields = append(fields,
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens))
	}
	if callErr != nil {
		fields = append(fields, zap.Stringer("failure", Classify(callErr)), zap.Error(callErr))
		logger.Warn("verification failed", fields...)
	} else {
		logger.Info("verification complete", fields...)
	}

	if !record {
		return out, nil
	}

	stored, err := s.history.Record(ctx, out.Result)
	if err != nil {
		logger.Error("failed to record verdict", zap.Error(err))
		out.State = StatePersistenceError
		out.Err = err
		return out, nil
	}
	out.Result = stored

	return out, nil
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrEmptyClaim):
		return "Query cannot be empty"
	case errors.Is(err, model.ErrClaimTooLong):
		return fmt.Sprintf("Query cannot exceed %d characters", model.MaxClaimLength)
	default:
		return err.Error()
	}
}

// History returns all recorded verdicts, newest first
func (s *Service) History(ctx context.Context) ([]model.VerificationResult, error) {
	return s.history.List(ctx)
}

// Lookup returns one recorded verdict
func (s *Service) Lookup(ctx context.Context, id int64) (model.VerificationResult, error) {
	return s.history.Get(ctx, id)
}

// Watch streams history snapshots until ctx ends
func (s *Service) Watch(ctx context.Context) (<-chan []model.VerificationResult, error) {
	return s.history.Watch(ctx)
}

// Delete removes a recorded verdict
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.history.DeleteByID(ctx, id)
}

// Clear removes all recorded verdicts
func (s *Service) Clear(ctx context.Context) error {
	return s.history.Clear(ctx)
}
