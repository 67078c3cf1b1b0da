package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"taskflow/internal/ui"
)

func newProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress <user>",
		Short: "Show a user's level, progress and map position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, cleanup, err := openEnv(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := e.store.GetUser(ctx, args[0])
			if err != nil {
				return err
			}
			snap, err := e.svc.Snapshot(ctx, user.Username)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconMap, user.Username))
			fmt.Fprintln(out, ui.LabelValue("Level", snap.Level))
			fmt.Fprintln(out, ui.LabelValue("Completed", snap.TotalCompleted))
			fmt.Fprintln(out, ui.LabelValue("Progress", fmt.Sprintf("%s %d%%", ui.ProgressBar(snap.ProgressPercentage, 20), snap.ProgressPercentage)))
			fmt.Fprintln(out, ui.LabelValue("Coins", user.Coins))
			fmt.Fprintln(out, ui.LabelValue("Position", fmt.Sprintf("(%g, %g)", snap.Position.X, snap.Position.Y)))
			if snap.NextRequired > 0 {
				fmt.Fprintln(out, ui.LabelValue("Next checkpoint", fmt.Sprintf("%s at %d", ui.IconLock, snap.NextRequired)))
			} else {
				fmt.Fprintln(out, ui.Good.Render(ui.IconFlag+" every checkpoint reached"))
			}
			for _, cp := range snap.Unlocked {
				name := cp.Name
				if name == "" {
					name = fmt.Sprintf("checkpoint %d", cp.Required)
				}
				fmt.Fprintf(out, "- %s %s\n", ui.IconFlag, name)
			}
			return nil
		},
	}
	return cmd
}
