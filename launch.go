package powershell

import (
	"fmt"
	"os/exec"
	"runtime"
)

const (
	defaultWinExecutable  = "powershell"
	defaultCoreExecutable = "pwsh"
)

// lineSeparator is the line terminator convention of the host
// platform, which is also the convention of the locally launched
// shell. The marker framing depends on it: the shell prints the
// marker followed by this separator.
var lineSeparator = func() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}()

func defaultExecutable() string {
	if runtime.GOOS == "windows" {
		return defaultWinExecutable
	}
	return defaultCoreExecutable
}

// newShellCommand builds the command that launches an interactive
// PowerShell reading commands from its standard input.
//
// -ExecutionPolicy Bypass disables prompts about unsigned scripts,
// because there is no way to answer a prompt over a pipe. -NoExit
// keeps the session open after the first command. "-Command -" makes
// the shell read commands from standard input.
//
// On Windows the shell is started through cmd so the console code
// page can be switched to UTF-8 (chcp 65001) first; otherwise the
// streams would be interpreted in the legacy code page.
func newShellCommand(executable, workingDir string) *exec.Cmd {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command(
			"cmd", "/c", "chcp", "65001", ">", "NUL", "&", executable,
			"-ExecutionPolicy", "Bypass", "-NoExit", "-Command", "-")
	} else {
		cmd = exec.Command(
			executable, "-ExecutionPolicy", "Bypass", "-NoExit", "-Command", "-")
	}
	cmd.Dir = workingDir
	return cmd
}

// launch starts the shell subprocess and returns it with its three
// stream ends attached.
func launch(p *Parameters) (s *subprocess, err error) {
	cmd := newShellCommand(p.Executable, p.WorkingDir)
	s = &subprocess{cmd: cmd}
	if s.stdin, err = cmd.StdinPipe(); err != nil {
		return nil, fmt.Errorf("getting stdin for %q; %w", p.Executable, err)
	}
	if s.stdout, err = cmd.StdoutPipe(); err != nil {
		return nil, fmt.Errorf("getting stdout for %q; %w", p.Executable, err)
	}
	if s.stderr, err = cmd.StderrPipe(); err != nil {
		return nil, fmt.Errorf("getting stderr for %q; %w", p.Executable, err)
	}
	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("trying to start %q; %w", p.Executable, err)
	}
	logger.Printf("launch; started %q pid %d", p.Executable, cmd.Process.Pid)
	return s, nil
}
