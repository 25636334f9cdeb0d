package powershell_test

import (
	"bufio"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	powershell "github.com/tuupertunut/powershell-lib-go"
)

const (
	testMarker = "end-of-command-TESTMARKER"

	// settleDelay gives a recorder comfortable time to absorb a burst
	// already handed to its pipe.
	settleDelay = 50 * time.Millisecond
)

// fakeShell scripts the subprocess side of the command protocol over
// pipes. For every line arriving on the session's stdin it calls
// respond with writers for the shell's stdout and stderr; a faithful
// respond ends by printing the marker line to stdout. When the
// session closes its stdin, the fake shell closes its output streams,
// like a real shell exiting on end of input.
type fakeShell struct {
	stdout *io.PipeWriter
	stderr *io.PipeWriter
}

func (f *fakeShell) run(stdin io.Reader, respond func(line string, f *fakeShell)) {
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		respond(scanner.Text(), f)
	}
	_ = f.stdout.Close()
	_ = f.stderr.Close()
}

func (f *fakeShell) printOut(s string) {
	_, _ = io.WriteString(f.stdout, s)
}

func (f *fakeShell) printErr(s string) {
	_, _ = io.WriteString(f.stderr, s)
}

// printMarker emits the end-of-command marker line.
func (f *fakeShell) printMarker() {
	f.printOut(testMarker + "\n")
}

// newFakeSession returns a session wired to a fake shell.
func newFakeSession(
	t *testing.T, respond func(line string, f *fakeShell),
) *powershell.Session {
	t.Helper()
	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()

	f := &fakeShell{stdout: stdoutW, stderr: stderrW}
	go f.run(stdinR, respond)

	session, err := powershell.NewSessionFromStreams(powershell.Parameters{
		Marker:        testMarker,
		LineSeparator: "\n",
	}, stdinW, stdoutR, stderrR)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}
