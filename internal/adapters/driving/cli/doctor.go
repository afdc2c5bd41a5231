package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// checkTimeout bounds each doctor probe.
const checkTimeout = 10 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check settings and reachability of configured services",
	Long: `Validates the settings and pings every configured dependency: the
embedding and LLM providers, the index store and the response cache.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	failed := 0

	if services.Settings != nil {
		if err := services.Settings.Validate(); err != nil {
			failed++
			fmt.Fprintf(out, "  [FAIL] settings: %v\n", err)
		} else {
			fmt.Fprintln(out, "  [ok]   settings")
		}
	}

	if services.Unavailable != nil {
		failed++
		fmt.Fprintf(out, "  [FAIL] pipeline: %v\n", services.Unavailable)
	}

	for _, check := range services.Checks {
		if err := runCheck(cmd.Context(), check); err != nil {
			failed++
			fmt.Fprintf(out, "  [FAIL] %s: %v\n", check.Name, err)
			continue
		}
		fmt.Fprintf(out, "  [ok]   %s\n", check.Name)
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Fprintln(out, "\nAll checks passed.")
	return nil
}

func runCheck(ctx context.Context, check HealthCheck) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return check.Check(ctx)
}
