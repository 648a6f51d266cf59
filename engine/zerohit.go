package engine

import (
	"bufio"
	"io"
	"strconv"
	"sync"
)

// zeroHitLog serializes diagnostic lines for queries without accepted hits.
type zeroHitLog struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func newZeroHitLog(w io.Writer) *zeroHitLog {
	if w == nil {
		w = io.Discard
	}
	return &zeroHitLog{w: bufio.NewWriter(w)}
}

// record writes "key\tcandidates=N\tlength_ratio=N\teval=N\tqcov=N\tdbcov=N\n".
func (l *zeroHitLog) record(scratch []byte, key string, candidates int, r Rejections) ([]byte, error) {
	line := append(scratch[:0], key...)
	line = appendCount(line, "candidates", candidates)
	line = appendCount(line, ReasonLengthRatio, r.LengthRatio)
	line = appendCount(line, ReasonEval, r.Eval)
	line = appendCount(line, ReasonQCov, r.QCov)
	line = appendCount(line, ReasonDBCov, r.DBCov)
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.w.Write(line)
	return line, err
}

func appendCount(dst []byte, name string, n int) []byte {
	dst = append(dst, '\t')
	dst = append(dst, name...)
	dst = append(dst, '=')
	return strconv.AppendInt(dst, int64(n), 10)
}

func (l *zeroHitLog) flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Flush()
}
