package root

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"taskflow/internal/ui"
)

const Version = "1.0.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "taskflowctl",
	Short:         "Operate a taskflow database from the terminal",
	Long:          "taskflowctl seeds the database and works with daily tasks, user progress and the shared board.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	_ = godotenv.Load()

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	rootCmd.AddCommand(
		newSeedCmd(),
		newDailyCmd(),
		newProgressCmd(),
		newBoardCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
