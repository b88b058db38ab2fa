package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsfolio/resource-surveillance-sub000/internal/capexec"
)

var (
	capexecShell bool
)

var capexecCmd = &cobra.Command{
	Use:   "capexec [uri]",
	Short: "Run a single capturable executable and print its ShellResult JSON",
	Long:  "In native mode (default) [uri] is the executable to run and stdin is piped to it.\nIn --shell mode stdin is interpreted line-by-line as a portable task shell script and [uri] is ignored.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var stdin []byte
		if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
			stdin, _ = io.ReadAll(os.Stdin)
		}

		var exec capexec.Executive
		if capexecShell {
			p := capexec.NewPortableShellExecutive(context.Background())
			defer p.Close()
			exec = p
		} else {
			if len(args) != 1 {
				return fmt.Errorf("capexec: [uri] is required unless --shell is set")
			}
			exec = capexec.NewNativeExecutive(args[0])
		}

		result, err := exec.Execute(cmd.Context(), stdin)
		if err != nil {
			return fmt.Errorf("capexec: %w", err)
		}

		out, err := result.JSON()
		if err != nil {
			return fmt.Errorf("capexec: render result: %w", err)
		}
		fmt.Println(string(out))
		if result.ExitStatus != 0 {
			os.Exit(result.ExitStatus)
		}
		return nil
	},
}

func init() {
	capexecCmd.Flags().BoolVar(&capexecShell, "shell", false, "run stdin as portable task-shell lines instead of a native subprocess")
}
