package progress

import (
	"io"
	"sync/atomic"
)

// Func receives the cumulative bytes read and the expected total.
type Func func(sent, total int64)

// Reader counts bytes flowing through r and reports them after each read.
type Reader struct {
	r     io.Reader
	total int64
	sent  atomic.Int64
	fn    Func
}

func NewReader(r io.Reader, total int64, fn Func) *Reader {
	return &Reader{r: r, total: total, fn: fn}
}

func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		sent := pr.sent.Add(int64(n))
		if pr.fn != nil {
			pr.fn(sent, pr.total)
		}
	}
	return n, err
}

// Percent returns sent/total*100 clamped to [0, 100].
// ok is false when the total is unknown.
func Percent(sent, total int64) (pct float64, ok bool) {
	if total <= 0 {
		return 0, false
	}
	pct = float64(sent) / float64(total) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, true
}
