package ingest

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Chunker splits resume text into overlapping token windows for embedding.
type Chunker struct {
	enc     *tiktoken.Tiktoken
	size    int
	overlap int
}

func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("invalid chunk size %d / overlap %d", size, overlap)
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}
	return &Chunker{enc: enc, size: size, overlap: overlap}, nil
}

// Chunk returns the token windows of text. Short texts come back as a
// single chunk; empty text yields none.
func (c *Chunker) Chunk(text string) []string {
	if text == "" {
		return nil
	}
	tokens := c.enc.Encode(text, nil, nil)
	if len(tokens) <= c.size {
		return []string{text}
	}

	stride := c.size - c.overlap
	var chunks []string
	for start := 0; start < len(tokens); start += stride {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, c.enc.Decode(tokens[start:end]))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// ChunkID names a chunk vector for one resume.
func ChunkID(resumeID int64, index int) string {
	return fmt.Sprintf("resume_%d_chunk_%d", resumeID, index)
}
