package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verifica/internal/history"
	"github.com/ppiankov/verifica/internal/render"
)

var (
	historyJSON  bool
	historyLimit int
	clearYes     bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and manage past verdicts",
	Long: `History lists, shows, watches and deletes recorded verdicts.
Records are listed newest first.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded verdicts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.historyService().History(ctx)
		if err != nil {
			return fmt.Errorf("list history: %w", err)
		}
		if historyLimit > 0 && len(results) > historyLimit {
			results = results[:historyLimit]
		}

		r := render.New(cmd.OutOrStdout(), a.trusted)
		if historyJSON {
			return r.JSON(results)
		}
		return r.History(results)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recorded verdict",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.historyService().Lookup(ctx, id)
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("no verdict with id %d", id)
		}
		if err != nil {
			return fmt.Errorf("show verdict: %w", err)
		}

		r := render.New(cmd.OutOrStdout(), a.trusted)
		if historyJSON {
			return r.JSON(result)
		}
		return r.Verdict(result)
	},
}

var historyWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the history whenever it changes (Ctrl-C to stop)",
	Long: `Watch prints the current history, then prints it again after every
change made by this process. With the memory driver only changes from
the same process are visible.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		updates, err := a.historyService().Watch(ctx)
		if err != nil {
			return fmt.Errorf("watch history: %w", err)
		}

		r := render.New(cmd.OutOrStdout(), a.trusted)
		for snapshot := range updates {
			if historyJSON {
				err = r.JSON(snapshot)
			} else {
				err = r.History(snapshot)
			}
			if err != nil {
				return err
			}
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recorded verdict",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.historyService().Delete(ctx, id); err != nil {
			return fmt.Errorf("delete verdict: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted verdict %d\n", id)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every recorded verdict",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return errors.New("refusing to clear history without --yes")
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.historyService().Clear(ctx); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ History cleared")
		return nil
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyWatchCmd, historyDeleteCmd, historyClearCmd)

	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "print as JSON")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 0, "show at most N verdicts (0 = all)")
	historyClearCmd.Flags().BoolVar(&clearYes, "yes", false, "confirm deleting all history")
}
