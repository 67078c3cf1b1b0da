package root

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"taskflow/internal/models"
	"taskflow/internal/progress"
	"taskflow/internal/ui"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Inspect and add shared board tasks",
	}
	cmd.AddCommand(newBoardListCmd(), newBoardAddCmd())
	return cmd
}

func newBoardListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List board tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, cleanup, err := openEnv(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			tasks, err := e.svc.Board(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconBoard, "Board"))
			if len(tasks) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(no tasks)"))
			}
			for _, t := range tasks {
				fmt.Fprintf(out, "#%d %s [%s] %s", t.ID, t.Text, t.Difficulty, ui.BoardStatus(t.Status))
				if t.Claimant != "" {
					fmt.Fprint(out, " "+ui.Muted.Render("by "+t.Claimant))
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newBoardAddCmd() *cobra.Command {
	var difficulty string
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a free task to the board",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, cleanup, err := openEnv(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			text := strings.Join(args, " ")
			added, err := e.svc.AddBoardTasks(ctx, operator, []progress.NewBoardTask{{Text: text, Difficulty: difficulty}})
			if err != nil {
				return err
			}
			if len(added) == 0 {
				return fmt.Errorf("task text is empty")
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(fmt.Sprintf("%s added #%d %s", ui.IconDone, added[0].ID, added[0].Text)))
			return nil
		},
	}
	cmd.Flags().StringVar(&difficulty, "difficulty", models.DefaultDifficulty, "difficulty label")
	return cmd
}
