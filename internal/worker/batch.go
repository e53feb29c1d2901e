package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/verifica/internal/verify"
)

// Verifier checks and records a single claim
type Verifier interface {
	VerifyAndRecord(ctx context.Context, claim string) (verify.Outcome, error)
}

// ClaimJob verifies one claim from a batch
type ClaimJob struct {
	Index    int
	Claim    string
	Verifier Verifier
}

// Execute runs the verification
func (j *ClaimJob) Execute(ctx context.Context) Result {
	out, err := j.Verifier.VerifyAndRecord(ctx, j.Claim)
	return &ClaimResult{
		Index:   j.Index,
		Claim:   j.Claim,
		Outcome: out,
		Error:   err,
	}
}

// ClaimResult is the outcome of one claim in a batch.
// Error is set only when the claim was abandoned before a verdict.
type ClaimResult struct {
	Index   int
	Claim   string
	Outcome verify.Outcome
	Error   error
}

// GetError returns the abandonment error, if any
func (r *ClaimResult) GetError() error {
	return r.Error
}

// OK reports whether the claim produced a recorded verdict
func (r *ClaimResult) OK() bool {
	return r.Error == nil && r.Outcome.State == verify.StateVerdict
}

// BatchProcessor verifies many claims concurrently
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(verifier Verifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// ProcessClaims verifies every claim and returns one result per claim in
// input order. If ctx ends while claims are still being queued the pool is
// shut down; claims not started carry ctx's error.
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []string) []*ClaimResult {
	if len(claims) == 0 {
		return []*ClaimResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	interrupted := false
	for i, claim := range claims {
		if !pool.Submit(&ClaimJob{Index: i, Claim: claim, Verifier: b.verifier}) {
			interrupted = true
			break
		}
	}

	var done []Result
	if interrupted {
		done = pool.Shutdown()
	} else {
		done = pool.Wait()
	}

	results := make([]*ClaimResult, len(claims))
	for _, r := range done {
		cr := r.(*ClaimResult)
		results[cr.Index] = cr
	}

	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results[i] = &ClaimResult{Index: i, Claim: claims[i], Error: err}
		}
	}

	return results
}

// ProcessFile reads claims from a file and verifies them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ClaimResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return b.ProcessClaims(ctx, claims), nil
}

// ReadClaimsFromFile reads one claim per line. Blank lines and lines
// starting with # are skipped. Repeated claims are kept.
func ReadClaimsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		claims = append(claims, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return claims, nil
}
