package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsfolio/resource-surveillance-sub000/internal/capexec"
	"github.com/opsfolio/resource-surveillance-sub000/internal/notebook"
	"github.com/opsfolio/resource-surveillance-sub000/internal/rssd"
)

var notebooksCmd = &cobra.Command{
	Use:   "notebooks",
	Short: "Inspect and run code_notebook_cell rows",
}

var notebooksCellCmd = &cobra.Command{
	Use:   "cell",
	Short: "Operate on a single notebook cell",
}

var (
	cellDBFsPath string
	cellNotebook string
)

var notebooksCellExecCmd = &cobra.Command{
	Use:   "exec <cell-name>",
	Short: "Run a registered notebook cell by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cellName := args[0]

		conn, err := rssd.Open(ctx, cellDBFsPath)
		if err != nil {
			return fmt.Errorf("notebooks cell exec: open: %w", err)
		}
		defer conn.Close()

		tx, err := conn.DB.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("notebooks cell exec: begin: %w", err)
		}
		committed := false
		defer func() {
			if !committed {
				_ = tx.Rollback()
			}
		}()

		if err := rssd.Bootstrap(ctx, tx); err != nil {
			return fmt.Errorf("notebooks cell exec: bootstrap: %w", err)
		}

		cell, err := notebook.FindCell(ctx, tx, cellNotebook, cellName)
		if err != nil {
			return fmt.Errorf("notebooks cell exec: %w", err)
		}

		var shell notebook.ShellExecutor
		if cell.NotebookKernelID == notebook.PortableShellKernelID {
			p := capexec.NewPortableShellExecutive(context.Background())
			defer p.Close()
			shell = p
		}

		if err := notebook.Run(ctx, tx, cell.ID, cell, shell); err != nil {
			return fmt.Errorf("notebooks cell exec: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("notebooks cell exec: commit: %w", err)
		}
		committed = true

		fmt.Fprintf(os.Stdout, "cell %s/%s executed\n", cellNotebook, cellName)
		return nil
	},
}

func init() {
	notebooksCmd.PersistentFlags().StringVar(&cellDBFsPath, "db", "resource-surveillance.sqlite.db", "path to the RSSD state database")
	notebooksCmd.PersistentFlags().StringVar(&cellNotebook, "notebook", "surveilr-migrations", "notebook name the cell belongs to")

	notebooksCmd.AddCommand(notebooksCellCmd)
	notebooksCellCmd.AddCommand(notebooksCellExecCmd)
}
