package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"bazi-backend/internal/compiler"
)

const compileExamples = `  # Compile one condition row and print the tree
  rulectl compile --category 十神 --field1 伤官 --quantity 3个以上

  # Two condition fields and a gender qualifier
  rulectl compile --category 旺衰 --field1 身强/从强 --field2 喜用神为火 --gender 男`

// CompileArgs carries the flags for the compile subcommand.
type CompileArgs struct {
	*RootArgs

	ID       int64
	Category string
	Field1   string
	Field2   string
	Quantity string
	Gender   string
}

func NewCompileArgs(rootArgs *RootArgs) *CompileArgs {
	return &CompileArgs{RootArgs: rootArgs}
}

func (ca *CompileArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&ca.ID, "id", 0, "Row id echoed in failure messages")
	cmd.Flags().StringVar(&ca.Category, "category", "", "Category tag or sheet name (shishen, 十神, ...)")
	cmd.Flags().StringVar(&ca.Field1, "field1", "", "First condition field")
	cmd.Flags().StringVar(&ca.Field2, "field2", "", "Second condition field")
	cmd.Flags().StringVar(&ca.Quantity, "quantity", "", "Quantity qualifier (3, 2-4, 3个以上, ...)")
	cmd.Flags().StringVar(&ca.Gender, "gender", "", "Gender qualifier (男 or 女)")

	if err := cmd.MarkFlagRequired("category"); err != nil {
		panic(fmt.Errorf("failed marking flag as required: %w", err))
	}
}

func NewCompileCmd(rootArgs *RootArgs) *cobra.Command {
	ca := NewCompileArgs(rootArgs)

	cmd := &cobra.Command{
		Use:     "compile",
		Short:   "Compile one rule row and print its condition tree",
		Example: compileExamples,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompile(cmd, ca)
		},
	}

	ca.AddFlags(cmd)
	bindEnvVars(cmd)

	return cmd
}

func runCompile(cmd *cobra.Command, ca *CompileArgs) error {
	row := compiler.Row{
		ID:       ca.ID,
		Category: ca.Category,
		Field1:   ca.Field1,
		Field2:   ca.Field2,
		Quantity: ca.Quantity,
		Gender:   ca.Gender,
	}

	res := compiler.Compile(row)
	if !res.OK {
		return fmt.Errorf("compile failed: %s", res.Reason)
	}

	b, err := json.MarshalIndent(res.Tree, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tree: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))

	return nil
}
