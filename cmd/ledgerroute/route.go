package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/buildledger/ledgerroute/internal/cli"
)

func routeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route <company-id>",
		Short: "Run auto-routing for a company",
		Long: `Route every unrouted transaction for a company in one pass.

Active rules are evaluated in priority order; the first matching rule wins.
Transactions no rule matches get a confidence-scored project suggestion when
one clears the threshold, and stay unrouted otherwise.

Examples:
  ledgerroute route acme-construction
  ledgerroute route acme-construction --log-level debug`,
		Args: cobra.ExactArgs(1),
		RunE: runRoute,
	}
}

func runRoute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	companyID := args[0]

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Routing transactions"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	defer func() { _ = bar.Finish() }()

	summary, err := a.engine.RunAutoRouting(ctx, companyID)
	if err != nil {
		return fmt.Errorf("auto-routing failed: %w", err)
	}
	_ = bar.Finish()

	content := fmt.Sprintf(
		"Total:      %d\nRouted:     %d\nSuggested:  %d\nUnresolved: %d\nConflicts:  %d\nErrors:     %d",
		summary.Total, summary.Routed, summary.Suggested,
		summary.Unresolved, summary.Conflicts, summary.Errors)

	fmt.Println(cli.RenderBox("Auto-routing run "+summary.RunID, content))

	if summary.Unresolved > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf(
			"%d transaction(s) matched a rule but could not resolve a project; check the run log", summary.Unresolved)))
	}

	return nil
}
