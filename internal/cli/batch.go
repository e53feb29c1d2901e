package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/verifica/internal/model"
	"github.com/ppiankov/verifica/internal/render"
	"github.com/ppiankov/verifica/internal/worker"
)

var (
	concurrency  int
	batchJSON    bool
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify many claims from a file in parallel",
	Long: `Batch verifies every claim in a file:
- One claim per line; blank lines and lines starting with # are skipped
- Claims are verified in parallel with a bounded number of workers
- Each verdict is recorded in history
- Results are printed in file order

Example:
  verifica batch claims.txt
  verifica batch claims.txt --concurrency 4 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print results as JSON")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for the batch")
}

// batchEntry is the JSON form of one batch result
type batchEntry struct {
	Line   int                       `json:"line"`
	Claim  string                    `json:"claim"`
	State  string                    `json:"state"`
	Result *model.VerificationResult `json:"result,omitempty"`
	Error  string                    `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.service()
	if err != nil {
		return err
	}

	workers := concurrency
	if workers <= 0 {
		workers = a.cfg.Batch.Concurrency
	}

	status := render.New(cmd.ErrOrStderr(), nil)
	if !batchJSON {
		_ = status.Muted(fmt.Sprintf("Verifying claims from %s with %d workers...", file, workers))
	}

	start := time.Now()
	results, err := worker.NewBatchProcessor(svc, workers).ProcessFile(ctx, file)
	if err != nil {
		return err
	}

	ok, failed := 0, 0
	entries := make([]batchEntry, 0, len(results))
	for _, res := range results {
		entry := batchEntry{Line: res.Index + 1, Claim: res.Claim}
		switch {
		case res.Error != nil:
			entry.State = "cancelled"
			entry.Error = res.Error.Error()
		default:
			entry.State = res.Outcome.State.String()
			result := res.Outcome.Result
			entry.Result = &result
			if res.Outcome.Err != nil {
				entry.Error = res.Outcome.Err.Error()
			}
		}
		if res.OK() {
			ok++
		} else {
			failed++
		}
		entries = append(entries, entry)
	}

	a.logger.Info("batch complete",
		zap.String("file", file),
		zap.Int("claims", len(results)),
		zap.Int("recorded", ok),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)))

	r := render.New(cmd.OutOrStdout(), a.trusted)
	if batchJSON {
		return r.JSON(entries)
	}

	for _, e := range entries {
		if err := r.BatchLine(e.Line, e.Claim, e.Result, e.Error); err != nil {
			return err
		}
	}
	_ = status.Muted(fmt.Sprintf("%d claims: %d recorded, %d not recorded", len(results), ok, failed))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}
	return nil
}
