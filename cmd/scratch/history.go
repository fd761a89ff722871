package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-scratch/internal/betting"
	"github.com/vovakirdan/tui-scratch/internal/platform/tui"
	"github.com/vovakirdan/tui-scratch/internal/storage"
)

var (
	flagHistoryLimit int
	flagHistoryRun   string
	flagHistoryTUI   bool
	flagHistoryClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded rounds and auto runs",
	Long: `Display the most recent settled rounds, auto-bet runs and totals.

Examples:
  scratch history
  scratch history --limit 50
  scratch history --run 1f0c...   # Rounds played by one auto run
  scratch history --tui           # Interactive tables
  scratch history --clear`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "Number of rounds and runs to show")
	historyCmd.Flags().StringVar(&flagHistoryRun, "run", "", "Show the rounds of one auto run")
	historyCmd.Flags().BoolVar(&flagHistoryTUI, "tui", false, "Browse history in an interactive table")
	historyCmd.Flags().BoolVar(&flagHistoryClear, "clear", false, "Delete all recorded history")
}

func runHistory(_ *cobra.Command, _ []string) error {
	if flagHistoryLimit <= 0 {
		return errors.New("--limit must be positive")
	}
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("error opening history database: %w", err)
	}
	defer store.Close()

	switch {
	case flagHistoryClear:
		if err := store.ClearHistory(); err != nil {
			return fmt.Errorf("error clearing history: %w", err)
		}
		fmt.Println("History cleared.")
		return nil
	case flagHistoryTUI:
		w, h := 80, 24
		if tw, th, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			w, h = tw, th
		}
		return tui.RunHistory(store, w, h)
	case flagHistoryRun != "":
		rounds, err := store.RoundsForRun(flagHistoryRun)
		if err != nil {
			return fmt.Errorf("error retrieving rounds: %w", err)
		}
		fmt.Printf("Auto run %s\n\n", flagHistoryRun)
		printRounds(rounds)
		return nil
	}

	rounds, err := store.RecentRounds(flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("error retrieving rounds: %w", err)
	}
	runs, err := store.RecentAutoRuns(flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("error retrieving auto runs: %w", err)
	}

	fmt.Println("Recent rounds")
	fmt.Println()
	if len(rounds) == 0 {
		fmt.Println("No rounds recorded yet.")
		fmt.Println()
		fmt.Println("Play 'scratch play' or 'scratch simulate --record' to record rounds!")
		return nil
	}
	printRounds(rounds)

	fmt.Println()
	fmt.Println("Recent auto runs")
	fmt.Println()
	if len(runs) == 0 {
		fmt.Println("No auto runs recorded yet.")
	} else {
		fmt.Printf("  %-8s  %-6s  %-6s  %-9s  %-20s  %s\n", "Run", "Bets", "Played", "Completed", "Stop reason", "Started")
		fmt.Printf("  %-8s  %-6s  %-6s  %-9s  %-20s  %s\n", "---", "----", "------", "---------", "-----------", "-------")
		for _, r := range runs {
			bets := "inf"
			if r.RequestedBets > 0 {
				bets = fmt.Sprint(r.RequestedBets)
			}
			fmt.Printf("  %-8s  %-6s  %-6d  %-9t  %-20s  %s\n",
				shortID(r.ID), bets, r.RoundsPlayed, r.Completed, r.StopReason,
				r.StartedAt.Local().Format("2006-01-02 15:04"))
		}
	}

	stats, err := store.Stats()
	if err == nil {
		fmt.Println()
		fmt.Printf("Rounds: %d  Won: %d  Lost: %d  Win rate: %.1f%%  Auto runs: %d\n",
			stats.Rounds, stats.Wins, stats.Losses, stats.WinRate()*100, stats.AutoRuns)
	}
	return nil
}

func printRounds(rounds []betting.RoundRecord) {
	if len(rounds) == 0 {
		fmt.Println("No rounds recorded.")
		return
	}
	fmt.Printf("  %-8s  %-6s  %-4s  %-12s  %-10s  %-10s  %s\n", "Round", "Mode", "Res", "Key", "Bet", "Reason", "Date")
	fmt.Printf("  %-8s  %-6s  %-4s  %-12s  %-10s  %-10s  %s\n", "-----", "----", "---", "---", "---", "------", "----")
	for _, r := range rounds {
		result := string(r.Result)
		if result == "" {
			result = "-"
		}
		key := string(r.WinningKey)
		if key == "" {
			key = "-"
		}
		fmt.Printf("  %-8s  %-6s  %-4s  %-12s  %-10.4f  %-10s  %s\n",
			shortID(r.ID), r.Mode, result, key, r.Bet, r.Reason,
			r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
}

// shortID trims a UUID to its first block.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
