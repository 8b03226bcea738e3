package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildledger/ledgerroute/internal/cli"
	"github.com/buildledger/ledgerroute/internal/model"
)

func assignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign <project-id> <transaction-id>...",
		Short: "Manually assign transactions to a project",
		Long: `Assign an explicit list of transactions to a project, bypassing the
rules. Transactions already routed are skipped; every id gets its own
outcome, so one bad id never blocks the rest.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runAssign,
	}
	return cmd
}

func runAssign(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	projectID := args[0]
	transactionIDs := args[1:]

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	results, err := a.engine.Assign(ctx, transactionIDs, projectID)
	if err != nil {
		return err
	}

	var assigned int
	for _, result := range results {
		switch result.Outcome {
		case model.AssignmentAssigned:
			assigned++
			fmt.Println(cli.FormatSuccess(result.TransactionID))
		case model.AssignmentSkipped:
			fmt.Println(cli.FormatWarning(result.TransactionID + "  already routed, skipped"))
		case model.AssignmentConflict:
			fmt.Println(cli.FormatWarning(result.TransactionID + "  changed concurrently, skipped"))
		case model.AssignmentNotFound:
			fmt.Println(cli.FormatError(result.TransactionID + "  not found"))
		}
	}

	fmt.Printf("\n%d of %d assigned to %s\n", assigned, len(results), projectID)
	return nil
}
