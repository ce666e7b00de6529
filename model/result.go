package model

// LLMResponse is the raw reply of the answer composer.
type LLMResponse struct {
	Text       string `json:"text"`
	Success    bool   `json:"success"`
	TokensUsed int    `json:"tokens_used"`
	Error      string `json:"error,omitempty"`
}

// Source identifies a document that contributed to an answer.
type Source struct {
	Title      string `json:"title"`
	DocumentID int64  `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
}

// AttachedFile describes a source document that can be attached to a reply.
type AttachedFile struct {
	Title      string  `json:"title"`
	Source     string  `json:"source"`
	DocumentID int64   `json:"document_id"`
	Similarity float64 `json:"similarity"`
}

// AnswerResult is the final value returned to the caller of Answer.
// Success=false means the composer failed; an empty Sources list with
// Success=true means no relevant information was found.
type AnswerResult struct {
	Answer        string          `json:"answer"`
	Sources       []Source        `json:"sources"`
	Chunks        []*SearchResult `json:"chunks,omitempty"`
	Files         []AttachedFile  `json:"files"`
	Success       bool            `json:"success"`
	Error         string          `json:"error,omitempty"`
	TokensUsed    int             `json:"tokens_used"`
	ChunksFound   int             `json:"chunks_found"`
	ContextLength int             `json:"context_length"`
}
