package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for brandsnap.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brandsnap",
		Short: "Extract the brand signature of a web page",
		Long: `brandsnap extracts the visual brand signature of a web page: the dominant
colors, the font families, the images, the visible text and the page metadata.

Pages are styled by a built-in CSS cascade by default. Use --browser to render
them in headless Chrome instead, which also scrolls the page so lazy content
loads. Onion services are reached through Tor automatically.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
