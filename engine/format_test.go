package engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/seqsearch/aligner"
)

func TestAppendHit(t *testing.T) {
	r := &aligner.Result{
		DBKey: "T1",
		Score: 86,
		QCov:  0.90909,
		DBCov: 1,
		SeqID: 0.5,
		Eval:  1e-5,
	}

	got := appendHit([]byte("prev\n"), r)
	assert.Equal(t, "prev\nT1\t86\t0.909\t1.000\t0.500\t1.000e-05\n", string(got))
}

func TestZeroHitLog(t *testing.T) {
	var buf bytes.Buffer
	l := newZeroHitLog(&buf)

	_, err := l.record(nil, "q1", 3, Rejections{LengthRatio: 1, Eval: 2, QCov: 2})
	assert.NoError(t, err)
	assert.Empty(t, buf.String())

	assert.NoError(t, l.flush())
	assert.Equal(t, "q1\tcandidates=3\tlength_ratio=1\teval=2\tqcov=2\tdbcov=0\n", buf.String())
}
