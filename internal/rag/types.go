package rag

// Scope narrows which notes' chunks are eligible for retrieval. Every
// present constraint intersects the allowed set; a constraint matching
// nothing yields no results rather than being ignored. Date bounds are
// epoch millis against the note's updated_at; nil means the bound is absent.
type Scope struct {
	NoteIDs   []string `json:"note_ids,omitempty"`
	GroupIDs  []string `json:"group_ids,omitempty"`
	DateStart *int64   `json:"date_start,omitempty"`
	DateEnd   *int64   `json:"date_end,omitempty"`
}

// Result is one retrieved chunk, ordered by selection.
type Result struct {
	NoteID     string  `json:"note_id"`
	Title      string  `json:"title"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
}

// Citation records the provenance of a chunk used to ground an answer.
type Citation struct {
	NoteID     string  `json:"note_id"`
	Title      string  `json:"title"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
}

// AskRequest represents a grounded chat query.
type AskRequest struct {
	// Question is the user's question to answer.
	Question string `json:"question"`
	// Scope optionally restricts retrieval to a set of notes.
	Scope Scope `json:"scope"`
	// K optionally overrides the number of chunks to retrieve.
	K int `json:"k,omitempty"`
}

// AskResponse represents the response to a grounded chat query.
type AskResponse struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}
