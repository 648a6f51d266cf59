package aligner

// Result is one pairwise alignment outcome. Coordinates are 0-based and
// inclusive.
type Result struct {
	DBKey   string
	Score   int
	QCov    float64
	DBCov   float64
	SeqID   float64
	Eval    float64
	QStart  int
	QEnd    int
	DBStart int
	DBEnd   int
	AlnLen  int
}

// Less reports whether a ranks before b: score descending, then e-value
// ascending, then target key ascending.
func Less(a, b *Result) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Eval != b.Eval {
		return a.Eval < b.Eval
	}
	return a.DBKey < b.DBKey
}
