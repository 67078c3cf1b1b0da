package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"taskflow/internal/models"
	"taskflow/internal/ui"
)

func newDailyCmd() *cobra.Command {
	var regenerate bool
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Show today's tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, cleanup, err := openEnv(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			var set models.DailyTaskSet
			if regenerate {
				set, err = e.svc.RegenerateDailyTasks(ctx, operator)
			} else {
				set, err = e.svc.DailyTasks(ctx)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconCalendar, "Daily tasks for "+set.Date))
			if len(set.Tasks) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(catalog is empty)"))
			}
			for i, t := range set.Tasks {
				fmt.Fprintf(out, "%d. %s\n", i+1, t)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "replace today's tasks with a fresh sample")
	return cmd
}
