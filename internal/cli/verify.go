package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verifica/internal/render"
	"github.com/ppiankov/verifica/internal/verify"
)

var (
	verifyJSON   bool
	verifyNoSave bool
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <claim...>",
	Short: "Fact-check a single claim",
	Long: `Verify sends the claim to the configured model, restricted to the
trusted sources, and prints the verdict with its citations.

The verdict is saved to history unless --no-save is given. Failures
(network errors, rate limits, bad API keys) are reported as an
UNABLE_TO_VERIFY verdict explaining what went wrong.

Example:
  verifica verify "Humans only use 10% of their brains"
  verifica verify --json Coffee stunts growth`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print the verdict as JSON")
	verifyCmd.Flags().BoolVar(&verifyNoSave, "no-save", false, "do not record the verdict in history")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.service()
	if err != nil {
		return err
	}

	claim := strings.Join(args, " ")
	r := render.New(cmd.OutOrStdout(), a.trusted)
	status := render.New(cmd.ErrOrStderr(), nil)

	var out verify.Outcome
	if verifyNoSave {
		if !verifyJSON {
			_ = status.Muted("Verifying...")
		}
		out, err = svc.Verify(ctx, claim)
		if err != nil {
			return fmt.Errorf("verification cancelled: %w", err)
		}
	} else {
		out, err = runTracked(ctx, verify.NewRunner(svc), claim, func() {
			if !verifyJSON {
				_ = status.Muted("Verifying...")
			}
		})
		if err != nil {
			return err
		}
	}

	return reportOutcome(r, status, out, verifyJSON)
}

// runTracked submits the claim and waits for its terminal outcome
func runTracked(ctx context.Context, runner *verify.Runner, claim string, onPending func()) (verify.Outcome, error) {
	updates, err := runner.Submit(ctx, claim)
	if err != nil {
		return verify.Outcome{}, err
	}
	defer runner.Wait()

	var (
		final verify.Outcome
		done  bool
	)
	for out := range updates {
		if out.State == verify.StatePending {
			onPending()
			continue
		}
		final, done = out, true
	}

	if !done {
		if err := ctx.Err(); err != nil {
			return verify.Outcome{}, fmt.Errorf("verification cancelled: %w", err)
		}
		return verify.Outcome{}, errors.New("verification cancelled")
	}
	return final, nil
}

func reportOutcome(r, status *render.Renderer, out verify.Outcome, asJSON bool) error {
	if out.State == verify.StateValidationError {
		return fmt.Errorf("invalid claim: %s", out.Result.Explanation)
	}

	if asJSON {
		if err := r.JSON(out.Result); err != nil {
			return err
		}
	} else if err := r.Verdict(out.Result); err != nil {
		return err
	}

	if out.State == verify.StatePersistenceError {
		_ = status.Error(fmt.Sprintf("Verdict was not saved to history: %v", out.Err))
	}
	return nil
}
