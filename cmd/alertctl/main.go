// Command alertctl drives the assistant's driver-state feed by hand, for bench
// testing without the in-cabin camera.
package main

import (
	"os"

	"nova-drive-be/internal/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	feedFile string
	natsURL  string
)

var rootCmd = &cobra.Command{
	Use:   "alertctl",
	Short: "Write driver alert snapshots for the assistant",
	Long: `alertctl writes driver alert snapshots to the assistant's feed.

By default the snapshot goes to the alert file watched by the assistant.
With --nats it is published on the bus instead.`,
	SilenceUsage: true,
}

func init() {
	cfg := config.Load()
	rootCmd.PersistentFlags().StringVarP(&feedFile, "file", "f", cfg.Alert.FilePath, "Alert feed file")
	rootCmd.PersistentFlags().StringVar(&natsURL, "nats", "", "Publish to this NATS server instead of the file")

	rootCmd.AddCommand(setCmd, safeCmd, showCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
