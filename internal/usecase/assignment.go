package usecase

// DefaultBatchSize is the number of sentences handed to each contributor.
const DefaultBatchSize = 100

// Assign returns the contiguous block of sentence indices owned by the
// contributor registered at position seq: [batch*seq, batch*seq+batch),
// clipped to the dataset. Contributors registered past the end of the
// dataset get an empty block.
func Assign(seq, sentenceCount, batchSize int) []int {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if seq < 0 || sentenceCount <= 0 {
		return []int{}
	}
	start := seq * batchSize
	if start >= sentenceCount {
		return []int{}
	}
	end := min(start+batchSize, sentenceCount)
	out := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, i)
	}
	return out
}
