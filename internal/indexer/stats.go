package indexer

import "context"

// Stats summarizes indexing coverage for the status endpoint.
type Stats struct {
	TotalNotes   int `json:"total_notes"`
	IndexedNotes int `json:"indexed_notes"`
	TotalChunks  int `json:"total_chunks"`
}

// Stats reports how many notes exist, how many have embedded chunks, and
// the total chunk count.
func (p *Pipeline) Stats(ctx context.Context) (Stats, error) {
	notes, err := p.notes.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	indexed, chunks, err := p.chunks.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalNotes:   len(notes),
		IndexedNotes: indexed,
		TotalChunks:  chunks,
	}, nil
}
