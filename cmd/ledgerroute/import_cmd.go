package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/buildledger/ledgerroute/internal/cli"
	"github.com/buildledger/ledgerroute/internal/feed"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <company-id> <file.ofx>...",
		Short: "Import OFX/QFX statements as unrouted transactions",
		Long: `Parse accounting statement exports and load their transactions as
unrouted records for the company. Re-importing the same statement is safe:
duplicates are detected by hash and skipped.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runImport,
	}
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	companyID := args[0]
	files := args[1:]

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	parser := feed.NewParser()
	bar := progressbar.Default(int64(len(files)), "Importing statements")

	var total int
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}

		transactions, err := parser.ParseFile(ctx, f, companyID)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		if err := a.db.SaveTransactions(ctx, transactions); err != nil {
			return fmt.Errorf("failed to save transactions from %s: %w", path, err)
		}

		total += len(transactions)
		_ = bar.Add(1)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transaction(s) from %d file(s)", total, len(files))))
	return nil
}
