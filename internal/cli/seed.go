package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"lunchreports/internal/seed"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load items, teachers, students and orders from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.Load(args[0])
			if err != nil {
				return err
			}

			store, cleanup, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := seed.Apply(cmd.Context(), store, f); err != nil {
				return fmt.Errorf("seed %s: %w", args[0], err)
			}

			students := len(f.Students)
			for _, t := range f.Teachers {
				students += len(t.Students)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d items, %d teachers, %d students, %d orders\n",
				len(f.Items), len(f.Teachers), students, len(f.Orders))
			return nil
		},
	}
}
