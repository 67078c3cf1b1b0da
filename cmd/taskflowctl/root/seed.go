package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"taskflow/internal/seed"
	"taskflow/internal/ui"
)

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create default users, catalog and map where missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, cleanup, err := openEnv(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			if file == "" {
				file = e.cfg.SeedFile
			}
			data, err := seed.Load(file)
			if err != nil {
				return err
			}
			if err := seed.Apply(ctx, e.store, data, e.log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconDone+" seed applied"))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "seed YAML file (defaults to the built-in seed)")
	return cmd
}
