package indexer

// Segment is one chunk window of a note body. Start and End are rune
// offsets, half-open.
type Segment struct {
	Index int
	Start int
	End   int
	Text  string
}

// ChunkText splits text into consecutive windows of size runes. Each next
// window starts overlap runes before the previous end; when the overlap
// would prevent the start from advancing (overlap >= size), the next window
// starts at the previous end instead, so the loop always makes forward
// progress. A non-positive size returns the whole text as one segment.
func ChunkText(text string, size, overlap int) []Segment {
	runes := []rune(text)
	if size <= 0 {
		return []Segment{{Index: 0, Start: 0, End: len(runes), Text: text}}
	}

	var segments []Segment
	i := 0
	for i < len(runes) {
		j := i + size
		if j > len(runes) {
			j = len(runes)
		}
		segments = append(segments, Segment{
			Index: len(segments),
			Start: i,
			End:   j,
			Text:  string(runes[i:j]),
		})
		if j == len(runes) {
			break
		}
		next := j - overlap
		if next <= i {
			next = j
		}
		i = next
	}
	return segments
}
