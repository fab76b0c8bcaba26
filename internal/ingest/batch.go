package ingest

// DefaultBatchSize is the chunk size for store writes.
const DefaultBatchSize = 50

// Chunks splits in into consecutive slices of at most size elements. The
// returned slices share backing storage with in.
func Chunks[T any](in []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if len(in) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(in)+size-1)/size)
	for start := 0; start < len(in); start += size {
		end := start + size
		if end > len(in) {
			end = len(in)
		}
		out = append(out, in[start:end])
	}
	return out
}
