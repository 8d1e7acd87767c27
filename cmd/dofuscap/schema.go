package main

import (
	"fmt"
	"os"

	"github.com/evilsocket/islazy/tui"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"

	"github.com/vahor/dofuscap/internal/schema"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect a schema catalog",
	}
	cmd.AddCommand(newSchemaValidateCmd())
	return cmd
}

func newSchemaValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Load a schema catalog and report inheritance and type-expression problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			reg, err := schema.Load(args[0], log)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			defer reg.Close()

			problems := schema.Validate(reg)
			if len(problems) == 0 {
				fmt.Println(ansi.Color("schema OK", "green"))
				return nil
			}

			rows := make([][]string, len(problems))
			for i, p := range problems {
				rows[i] = []string{fmt.Sprintf("%d", i+1), p}
			}
			tui.Table(os.Stdout, []string{"#", "Problem"}, rows)

			return fmt.Errorf("%s", ansi.Color(fmt.Sprintf("%d problem(s) found", len(problems)), "red"))
		},
	}
}
