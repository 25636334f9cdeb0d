// Package recorder continuously drains a character stream into a
// buffer on a background goroutine, and lets one consumer at a time
// block until a chosen release condition holds: a delimiter appeared,
// a fixed amount of characters arrived, the current burst of input
// settled, or the stream ended.
package recorder

import (
	"bufio"
	"context"
	"io"
	"sync"
)

// Recorder records one character stream.
//
// Run feeds the buffer; it is the only appender. Consumption methods
// remove from the buffer's front. The buffer, the flags and the armed
// condition are all guarded by a single mutex; at most one consumption
// call may be in flight at a time (a second concurrent call on the
// same Recorder is a usage error, not a supported mode).
type Recorder struct {
	reader *bufio.Reader

	mu   sync.Mutex
	cond *sync.Cond

	// buf holds everything read but not yet consumed, in read order.
	buf []rune

	// eof is set once when the stream is exhausted, never reset.
	eof bool

	// err is the stored failure. Once set it poisons the Recorder:
	// every in-flight and future consumption observes it.
	err error

	// pending reports whether the reader believes more input is
	// immediately available without blocking. Best-effort liveness
	// heuristic only; it cannot see bytes still in the pipe that
	// haven't reached the reader's buffer.
	pending bool

	// armed is the release condition of the in-flight consumption
	// call, or nil.
	armed releaseCondition
}

// New returns a Recorder for r. Call Run on its own goroutine to
// start recording.
func New(r io.Reader) *Recorder {
	rec := &Recorder{reader: bufio.NewReader(r)}
	rec.cond = sync.NewCond(&rec.mu)
	return rec
}

// Run records the stream into the buffer until the stream ends, an
// I/O failure occurs, or ctx is cancelled. It is meant to be run on
// its own goroutine; the blocking reads happen here so that consumers
// never touch the stream directly.
//
// Run returns nil on a clean end of stream, otherwise the failure
// (which is also stored, so consumers see it too).
func (rec *Recorder) Run(ctx context.Context) error {
	for {
		ch, _, err := rec.reader.ReadRune()

		// A cancellation request wins over whatever the read
		// returned, so shutdown is prompt once the underlying
		// stream is closed out from under us.
		if cErr := ctx.Err(); cErr != nil {
			logger.Printf("run; cancelled: %s", cErr)
			rec.poison(cErr)
			return cErr
		}

		rec.mu.Lock()
		switch {
		case err == io.EOF:
			logger.Printf("run; end of stream after %d buffered runes", len(rec.buf))
			rec.eof = true
			rec.cond.Broadcast()
			rec.mu.Unlock()
			return nil
		case err != nil:
			logger.Printf("run; read failure: %s", err)
			rec.err = err
			rec.cond.Broadcast()
			rec.mu.Unlock()
			return err
		default:
			rec.buf = append(rec.buf, ch)
			rec.pending = rec.reader.Buffered() > 0
			if rec.armed != nil && rec.armed.satisfied(rec) {
				rec.cond.Broadcast()
			}
			rec.mu.Unlock()
		}
	}
}

// poison stores err as the Recorder's failure unless the stream
// already ended or failed, and wakes any waiter.
func (rec *Recorder) poison(err error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !rec.eof && rec.err == nil {
		rec.err = err
	}
	rec.cond.Broadcast()
}

// await arms c and waits until it is satisfied, the stream ends, or
// the Recorder is poisoned. Caller must hold the mutex.
func (rec *Recorder) await(c releaseCondition) {
	if !rec.shouldWait(c) {
		return
	}
	rec.armed = c
	for rec.shouldWait(c) {
		rec.cond.Wait()
	}
	rec.armed = nil
}

func (rec *Recorder) shouldWait(c releaseCondition) bool {
	return !c.satisfied(rec) && !rec.eof && rec.err == nil
}

// ConsumeAll consumes and returns the whole buffer immediately.
func (rec *Recorder) ConsumeAll() (string, error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.err != nil {
		return "", rec.err
	}
	return rec.takeAll(), nil
}

// ConsumeAllAfterCurrentInput consumes and returns the whole buffer
// once no more input is immediately available. Preferable to
// ConsumeAll for message-like input, since the whole current burst
// lands in the buffer before it is taken. If the stream ends first,
// whatever arrived is returned.
func (rec *Recorder) ConsumeAllAfterCurrentInput() (string, error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	logger.Printf("consume after current input; %d runes buffered", len(rec.buf))
	rec.await(currentInputSettled{})
	if rec.err != nil {
		return "", rec.err
	}
	return rec.takeAll(), nil
}

// ConsumeToDelimiter consumes and returns the buffer up to and
// including the first occurrence of delim, waiting for it to arrive
// if necessary. If the stream ends before the delimiter appears, it
// returns ok == false and nothing is consumed.
func (rec *Recorder) ConsumeToDelimiter(delim string) (s string, ok bool, err error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	logger.Printf("consume to delimiter %q; %d runes buffered", abbrev(delim), len(rec.buf))
	c := &delimiterSeen{delim: []rune(delim), matchEnd: -1}
	c.scan(rec.buf)
	rec.await(c)
	if rec.err != nil {
		return "", false, rec.err
	}
	if c.matchEnd < 0 {
		logger.Printf("consume to delimiter; stream ended before %q", abbrev(delim))
		return "", false, nil
	}
	s = string(rec.buf[:c.matchEnd])
	rec.buf = rec.buf[c.matchEnd:]
	return s, true, nil
}

// ConsumeAmount consumes and returns the next n runes, waiting for
// them to arrive if necessary. If the stream ends before n runes are
// buffered, it returns ok == false and nothing is consumed.
func (rec *Recorder) ConsumeAmount(n int) (s string, ok bool, err error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	logger.Printf("consume amount %d; %d runes buffered", n, len(rec.buf))
	rec.await(amountBuffered{n: n})
	if rec.err != nil {
		return "", false, rec.err
	}
	if len(rec.buf) < n {
		return "", false, nil
	}
	s = string(rec.buf[:n])
	rec.buf = rec.buf[n:]
	return s, true, nil
}

// takeAll clears and returns the buffer. Caller must hold the mutex.
func (rec *Recorder) takeAll() string {
	s := string(rec.buf)
	rec.buf = nil
	return s
}

// StreamEnded reports whether the stream has been exhausted.
func (rec *Recorder) StreamEnded() bool {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.eof
}

// Err returns the stored failure, if any.
func (rec *Recorder) Err() error {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.err
}

// Buffer returns the unconsumed buffer contents without consuming.
func (rec *Recorder) Buffer() (string, error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.err != nil {
		return "", rec.err
	}
	return string(rec.buf), nil
}

// BufferedLen returns the number of unconsumed runes.
func (rec *Recorder) BufferedLen() (int, error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.err != nil {
		return 0, rec.err
	}
	return len(rec.buf), nil
}
