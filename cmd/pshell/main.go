package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	powershell "github.com/tuupertunut/powershell-lib-go"
)

var (
	executable       string
	workingDirectory string
	verbose          bool
	commands         []string
)

var rootCmd = &cobra.Command{
	Use:   "pshell",
	Short: "Drive an interactive PowerShell session",
	Long: `pshell opens one PowerShell session and executes commands in it.
With -c flags it executes them in order and exits; otherwise it reads
commands line by line from standard input.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			powershell.VerboseLoggingEnable()
		}
		session, err := powershell.OpenWith(powershell.Parameters{
			Executable: executable,
			WorkingDir: workingDirectory,
		})
		if err != nil {
			return err
		}
		defer session.Close()

		if len(commands) > 0 {
			return runCommands(session, commands)
		}
		return runREPL(session)
	},
}

// runCommands executes the -c commands in order, stopping on the
// first error.
func runCommands(session *powershell.Session, commands []string) error {
	for _, command := range commands {
		out, err := session.Execute(command)
		if err != nil {
			return err
		}
		fmt.Print(out)
	}
	return nil
}

// runREPL reads commands from stdin until end of input. Command
// errors are printed and the session continues; framing and stream
// errors end the run.
func runREPL(session *powershell.Session) error {
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("PS> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		out, err := session.Execute(line)
		if err != nil {
			var execErr *powershell.ExecutionError
			if errors.As(err, &execErr) {
				fmt.Fprint(os.Stderr, execErr.ErrorText)
				continue
			}
			return err
		}
		fmt.Print(out)
	}
}

func main() {
	rootCmd.Flags().StringVar(
		&executable, "executable", "",
		"PowerShell executable name or path (default \"powershell\" on Windows, \"pwsh\" elsewhere)")
	rootCmd.Flags().StringVar(
		&workingDirectory, "dir", "", "working directory of the shell process")
	rootCmd.Flags().BoolVar(
		&verbose, "verbose", false, "enable detailed logging")
	rootCmd.Flags().StringArrayVarP(
		&commands, "command", "c", nil, "command to execute (repeatable); implies non-interactive mode")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
