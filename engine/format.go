package engine

import (
	"strconv"

	"github.com/hupe1980/seqsearch/aligner"
)

// appendHit serializes one accepted alignment as
// "key\tscore\tqcov\tdbcov\tseqId\teval\n" with three decimals for the
// fractions and three-digit scientific notation for the e-value.
func appendHit(dst []byte, r *aligner.Result) []byte {
	dst = append(dst, r.DBKey...)
	dst = append(dst, '\t')
	dst = strconv.AppendInt(dst, int64(r.Score), 10)
	dst = append(dst, '\t')
	dst = strconv.AppendFloat(dst, r.QCov, 'f', 3, 64)
	dst = append(dst, '\t')
	dst = strconv.AppendFloat(dst, r.DBCov, 'f', 3, 64)
	dst = append(dst, '\t')
	dst = strconv.AppendFloat(dst, r.SeqID, 'f', 3, 64)
	dst = append(dst, '\t')
	dst = strconv.AppendFloat(dst, r.Eval, 'e', 3, 64)
	return append(dst, '\n')
}
