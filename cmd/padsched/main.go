package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	quiet      bool
	rootCmd    = &cobra.Command{
		Use:   "padsched",
		Short: "Pad scheduler - well and pad activity planning",
		Long: `padsched sequences drilling and completion tasks across wells grouped
into pads. It assigns rigs and crews subject to task prerequisites,
resource lifetimes, mobilization overhead, well status and blackout
windows, and writes a per-well schedule.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetPrefix("padsched: ")
			log.SetFlags(log.LstdFlags)
			if quiet {
				log.SetOutput(io.Discard)
			}
		},
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
