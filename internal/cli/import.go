package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"bazi-backend/internal/config"
	"bazi-backend/internal/importer"
	"bazi-backend/internal/store"
)

const importExamples = `  # Dry run: compile the workbook and print the report
  rulectl import --file rules.xlsx

  # Persist the compiled rules and bump the rule version
  rulectl import --file rules.xlsx --apply

  # Import a yaml row list, report as JSON
  rulectl import --file rules.yaml --apply --json`

// ImportArgs carries the flags for the import subcommand.
type ImportArgs struct {
	*RootArgs

	File  string
	Apply bool
	JSON  bool
}

func NewImportArgs(rootArgs *RootArgs) *ImportArgs {
	return &ImportArgs{RootArgs: rootArgs}
}

func (ia *ImportArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&ia.File, "file", "f", "", "Rule workbook (.xlsx) or yaml row list")
	cmd.Flags().BoolVar(&ia.Apply, "apply", false, "Persist compiled rules (default is a dry run)")
	cmd.Flags().BoolVar(&ia.JSON, "json", false, "Print the report as JSON")

	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Errorf("failed marking flag as required: %w", err))
	}
	if err := cmd.MarkFlagFilename("file", "xlsx", "xlsm", "yaml", "yml"); err != nil {
		panic(fmt.Errorf("failed marking flag as filename: %w", err))
	}
}

func NewImportCmd(rootArgs *RootArgs) *cobra.Command {
	ia := NewImportArgs(rootArgs)

	cmd := &cobra.Command{
		Use:     "import",
		Short:   "Compile a rule sheet and optionally persist it",
		Example: importExamples,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, ia)
		},
	}

	ia.AddFlags(cmd)
	bindEnvVars(cmd)

	return cmd
}

func runImport(cmd *cobra.Command, ia *ImportArgs) error {
	ctx := cmd.Context()

	rows, err := importer.ReadRows(ia.File)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no rule rows in %s", ia.File)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// A dry run never touches the store, so it works without a database.
	var st importer.Store
	if ia.Apply {
		s, err := store.New(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer s.Close()
		if err := s.Bootstrap(ctx); err != nil {
			return err
		}
		st = s
	}

	im := importer.New(st, nil, cfg.Import.Workers, cfg.Import.ChunkSize, cfg.Import.DefaultPriority)
	report, err := im.Run(ctx, rows, !ia.Apply)
	if err != nil {
		return err
	}

	return writeReport(cmd, report, ia.JSON)
}

func writeReport(cmd *cobra.Command, report importer.Report, asJSON bool) error {
	out := cmd.OutOrStdout()

	if asJSON {
		b, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		fmt.Fprintln(out, string(b))
		return nil
	}

	mode := "dry run"
	if !report.DryRun {
		mode = "applied"
	}
	fmt.Fprintf(out, "batch %s (%s)\n", report.BatchID, mode)
	fmt.Fprintf(out, "rows: %d  compiled: %d  failed: %d  rate: %.2f%%\n",
		report.Total, report.Succeeded, report.Failed, report.SuccessRate)
	if report.RuleVersion > 0 {
		fmt.Fprintf(out, "rule version: %d\n", report.RuleVersion)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(out, "  row %d [%s]: %s\n", f.ID, f.Category, f.Reason)
	}

	return nil
}
