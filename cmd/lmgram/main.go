package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "lmgram",
		Short: "Telegram bot bridging chat users to a local LM Studio backend",
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the bot service",
			Run: func(cmd *cobra.Command, args []string) {
				runServe()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(version)
			},
		},
	)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
