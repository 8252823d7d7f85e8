package remote

// DefaultMaxBatch bounds the number of ids in one read request.
const DefaultMaxBatch = 80

// Batches slices ids into consecutive chunks of at most size elements,
// preserving order and duplicates. A non-positive size means DefaultMaxBatch.
func Batches(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultMaxBatch
	}
	if len(ids) == 0 {
		return nil
	}
	out := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end:end])
	}
	return out
}
