package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "surveilr",
	Short: "surveilr walks filesystems, task lines, and mailboxes into an RSSD",
	Long:  `surveilr ingests resources from local filesystems, IMAP mailboxes, and task lines, persisting every walked item into an embedded SQL state database.`,
}

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(capexecCmd)
	rootCmd.AddCommand(notebooksCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
