// Package powershell drives an interactive PowerShell subprocess.
// A Session sends command text to the shell and recovers exactly the
// output belonging to each command, distinguishing normal output from
// error output, even though the shell streams characters with no
// built-in framing.
//
// Each submitted command is wrapped so that the shell prints a private
// marker string when the command is done; the marker locates the
// command's output boundary in the stream. The library assumes the
// marker never occurs in genuine output.
package powershell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tuupertunut/powershell-lib-go/recorder"
)

// subprocess holds a launched shell with its three stream ends.
type subprocess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
}

// Session is an interactive PowerShell session. Create one with Open
// or OpenWith, issue commands with Execute, and always Close it to
// free the subprocess and its recorder goroutines.
//
// A Session does not support concurrent Execute calls; Close may be
// called from another goroutine, e.g. after an external timeout, in
// which case the in-flight Execute fails and the session is done.
type Session struct {
	params Parameters

	// proc is nil for sessions speaking over injected streams.
	proc *subprocess

	stdin  io.WriteCloser
	in     *bufio.Writer
	outRec *recorder.Recorder
	errRec *recorder.Recorder

	// out and errOut are the raw stream ends fed to the recorders,
	// closed on teardown when they are closable.
	out    io.Reader
	errOut io.Reader

	cancel context.CancelFunc
	eg     *errgroup.Group

	mu     sync.Mutex
	closed bool
}

// Open opens a new PowerShell session with the default executable:
// "powershell" from Windows PowerShell on Windows, "pwsh" from
// PowerShell Core elsewhere.
func Open() (*Session, error) {
	return OpenWith(Parameters{})
}

// OpenWith opens a new PowerShell session built from the given
// Parameters.
func OpenWith(p Parameters) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	proc, err := launch(&p)
	if err != nil {
		return nil, err
	}
	s := newSession(p, proc.stdin, proc.stdout, proc.stderr)
	s.proc = proc
	return s, nil
}

// NewSessionFromStreams returns a Session speaking the command
// protocol over the given streams instead of a freshly launched
// subprocess. Allows testing with injected pipes instead of a real
// shell.
func NewSessionFromStreams(
	p Parameters, stdin io.WriteCloser, stdout, stderr io.Reader,
) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return newSession(p, stdin, stdout, stderr), nil
}

func newSession(
	p Parameters, stdin io.WriteCloser, stdout, stderr io.Reader,
) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	eg, ctx := errgroup.WithContext(ctx)
	s := &Session{
		params: p,
		stdin:  stdin,
		in:     bufio.NewWriter(stdin),
		outRec: recorder.New(stdout),
		errRec: recorder.New(stderr),
		out:    stdout,
		errOut: stderr,
		cancel: cancel,
		eg:     eg,
	}
	eg.Go(func() error { return s.outRec.Run(ctx) })
	eg.Go(func() error { return s.errRec.Run(ctx) })
	return s
}

// Execute executes one or more PowerShell commands and returns their
// standard output. Multiple commands execute in order as one logical
// unit, so a multiline construct may be broken over several strings:
//
//	session.Execute(
//		"if ($cond) {",
//		"    Do-Stuff",
//		"}")
//
// Internally the commands are joined with a semicolon.
//
// If the commands wrote to the standard error stream, Execute returns
// an *ExecutionError carrying that text and discards the output. If
// the session was closed, it returns ErrClosed. If the output stream
// ended before the end-of-command marker appeared, meaning the shell
// itself died, it returns ErrEndedEarly.
func (s *Session) Execute(commands ...string) (string, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return "", ErrClosed
	}

	var chain strings.Builder
	for _, command := range commands {
		chain.WriteString(command)
		chain.WriteString(";")
	}

	// The chain is handed to Invoke-Expression as an escaped literal
	// instead of being injected as raw input. Raw partial input, say
	// a string with an unclosed quote, would leave the interactive
	// session unable to accept another command. The second statement
	// makes the shell print the marker unconditionally.
	wrapped := "Invoke-Expression " + EscapeString(chain.String()) +
		";" + EscapeString(s.params.Marker)

	logger.Printf("execute; issuing %q", abbrev(wrapped))
	if _, err := s.in.WriteString(wrapped + s.params.LineSeparator); err != nil {
		return "", fmt.Errorf("writing command to stdin; %w", err)
	}
	if err := s.in.Flush(); err != nil {
		return "", fmt.Errorf("flushing command to stdin; %w", err)
	}

	// The shell prints a line separator after the marker.
	delim := s.params.Marker + s.params.LineSeparator
	out, ok, err := s.outRec.ConsumeToDelimiter(delim)
	if err != nil {
		return "", fmt.Errorf("reading command output; %w", err)
	}
	if !ok {
		return "", ErrEndedEarly
	}
	output := strings.ReplaceAll(out, delim, "")
	logger.Printf("execute; output %q", abbrev(output))

	// Any error text belonging to this command has been produced by
	// the time the marker was printed, so draining stderr only now
	// classifies it with the right command. Waits for the current
	// burst to settle, since error text has no marker of its own.
	errText, err := s.errRec.ConsumeAllAfterCurrentInput()
	if err != nil {
		return "", fmt.Errorf("reading command error output; %w", err)
	}
	if errText != "" {
		logger.Printf("execute; command failed with %q", abbrev(errText))
		return "", &ExecutionError{ErrorText: errText}
	}
	return output, nil
}

// Close closes the session and frees all resources associated with
// it: the shell's input stream, both recorder goroutines, and the
// subprocess. Close is idempotent and best-effort; teardown errors
// are logged and swallowed, and the returned error is always nil.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	logger.Printf("close; tearing down session")
	if err := s.stdin.Close(); err != nil {
		logger.Printf("close; stdin close: %s", err)
	}
	s.cancel()
	if s.proc != nil {
		// Kill unblocks the recorders: Wait reaps the process and
		// closes the pipe ends they are reading.
		if err := s.proc.cmd.Process.Kill(); err != nil {
			logger.Printf("close; kill: %s", err)
		}
		if err := s.proc.cmd.Wait(); err != nil {
			logger.Printf("close; wait: %s", err)
		}
	} else {
		closeIfCloser(s.errOut)
		closeIfCloser(s.out)
	}
	if err := s.eg.Wait(); err != nil {
		logger.Printf("close; recorder exit: %s", err)
	}
	logger.Printf("close; done")
	return nil
}

func closeIfCloser(r io.Reader) {
	if c, ok := r.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Printf("close; stream close: %s", err)
		}
	}
}
