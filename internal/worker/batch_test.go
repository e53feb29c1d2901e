package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ppiankov/verifica/internal/model"
	"github.com/ppiankov/verifica/internal/verify"
)

// mockVerifier answers every claim with a TRUE verdict after a short delay.
// Claims listed in fail are reported as a persistence failure.
type mockVerifier struct {
	mu    sync.Mutex
	seen  []string
	fail  map[string]bool
	delay time.Duration
}

func (m *mockVerifier) VerifyAndRecord(ctx context.Context, claim string) (verify.Outcome, error) {
	m.mu.Lock()
	m.seen = append(m.seen, claim)
	m.mu.Unlock()

	select {
	case <-time.After(m.delay):
	case <-ctx.Done():
		return verify.Outcome{}, ctx.Err()
	}

	out := verify.Outcome{
		State:  verify.StateVerdict,
		Result: model.VerificationResult{Claim: claim, Rating: model.RatingTrue, Citations: []model.Citation{}},
	}
	if m.fail[claim] {
		out.State = verify.StatePersistenceError
		out.Err = errors.New("disk full")
	}
	return out, nil
}

func TestBatchProcessor_ProcessClaims(t *testing.T) {
	v := &mockVerifier{delay: 5 * time.Millisecond, fail: map[string]bool{"b": true}}
	processor := NewBatchProcessor(v, 3)

	claims := []string{"a", "b", "c", "d", "e", "a"}
	results := processor.ProcessClaims(context.Background(), claims)

	require.Len(t, results, len(claims))
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, claims[i], r.Claim)
		assert.NoError(t, r.Error)
	}
	assert.False(t, results[1].OK())
	assert.True(t, results[0].OK())
	assert.Len(t, v.seen, len(claims))
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockVerifier{}, 2)

	results := processor.ProcessClaims(context.Background(), nil)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&mockVerifier{delay: time.Second}, 2)
	results := processor.ProcessClaims(ctx, []string{"a", "b", "c"})

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.ErrorIs(t, r.Error, context.Canceled)
		assert.False(t, r.OK())
	}
}

func TestBatchProcessor_InterruptedWhileQueueing(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(20*time.Millisecond, cancel)
	defer timer.Stop()

	claims := make([]string, 10)
	for i := range claims {
		claims[i] = fmt.Sprintf("claim %d", i)
	}

	v := &mockVerifier{delay: 10 * time.Second}
	start := time.Now()
	results := NewBatchProcessor(v, 1).ProcessClaims(ctx, claims)

	assert.Less(t, time.Since(start), 5*time.Second)
	require.Len(t, results, len(claims))
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, claims[i], r.Claim)
		assert.ErrorIs(t, r.Error, context.Canceled)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	assert.Less(t, len(v.seen), len(claims))
}

func TestReadClaimsFromFile(t *testing.T) {
	content := `# claims to check
The moon landing happened in 1969

  Coffee stunts growth  
# duplicate below is kept
The moon landing happened in 1969
`
	path := filepath.Join(t.TempDir(), "claims.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	claims, err := ReadClaimsFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"The moon landing happened in 1969",
		"Coffee stunts growth",
		"The moon landing happened in 1969",
	}, claims)
}

func TestReadClaimsFromFile_Missing(t *testing.T) {
	_, err := ReadClaimsFromFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0644))

	processor := NewBatchProcessor(&mockVerifier{}, 1)
	results, err := processor.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "two", results[1].Claim)

	_, err = processor.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
