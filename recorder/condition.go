package recorder

// releaseCondition is the predicate a consumption call is waiting on.
// Exactly one condition may be armed on a Recorder at a time; each
// variant carries its own payload, so a delimiter wait cannot observe
// an amount's count and vice versa.
//
// satisfied is always called with the Recorder's mutex held.
type releaseCondition interface {
	satisfied(rec *Recorder) bool
}

// currentInputSettled releases when the reader reports no more input
// immediately available, i.e. the current burst has been absorbed.
type currentInputSettled struct{}

func (currentInputSettled) satisfied(rec *Recorder) bool {
	return !rec.pending
}

// delimiterSeen releases when the buffer contains the delimiter.
// matchEnd is the buffer index just past the first occurrence, or -1.
//
// Once armed, the delimiter can only newly complete at the buffer's
// end, so satisfied checks the buffer tail against the delimiter tail.
// The full scan over a pre-populated buffer happens once, at arm time,
// via scan.
type delimiterSeen struct {
	delim    []rune
	matchEnd int
}

func (c *delimiterSeen) satisfied(rec *Recorder) bool {
	if c.matchEnd >= 0 {
		return true
	}
	if !endsWith(rec.buf, c.delim) {
		return false
	}
	c.matchEnd = len(rec.buf)
	return true
}

// scan looks for the first occurrence of the delimiter anywhere in buf,
// recording the index just past it in matchEnd.
func (c *delimiterSeen) scan(buf []rune) {
	if len(c.delim) == 0 {
		return
	}
	for i := 0; i+len(c.delim) <= len(buf); i++ {
		if runesEqual(buf[i:i+len(c.delim)], c.delim) {
			c.matchEnd = i + len(c.delim)
			return
		}
	}
}

// amountBuffered releases when at least n runes are buffered.
type amountBuffered struct {
	n int
}

func (c amountBuffered) satisfied(rec *Recorder) bool {
	return len(rec.buf) >= c.n
}

func endsWith(buf, tail []rune) bool {
	if len(buf) < len(tail) {
		return false
	}
	return runesEqual(buf[len(buf)-len(tail):], tail)
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
