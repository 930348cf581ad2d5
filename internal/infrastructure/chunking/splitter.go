package chunking

import (
	"strings"
	"unicode"
)

// Splitter cuts extracted paper text into overlapping windows for
// embedding. Cut points prefer a paragraph break, then a sentence end,
// then any whitespace inside the back half of the window; a mid-word cut
// happens only when a passage offers no break point at all.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	out := make([]string, 0, len(runes)/s.ChunkSize+1)
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			out = appendChunk(out, runes[start:])
			break
		}
		cut := s.cutPoint(runes, start, end)
		out = appendChunk(out, runes[start:cut])

		next := cut - s.Overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return out
}

// cutPoint scans backwards from the window end, never past the window's
// midpoint, so chunks stay within [ChunkSize/2, ChunkSize] runes.
func (s *Splitter) cutPoint(runes []rune, start, end int) int {
	floor := start + s.ChunkSize/2
	for i := end - 1; i > floor; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i > floor; i-- {
		if isSentenceEnd(runes[i]) && unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}
	for i := end - 1; i > floor; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return end
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func appendChunk(out []string, window []rune) []string {
	chunk := strings.TrimSpace(string(window))
	if chunk == "" {
		return out
	}
	return append(out, chunk)
}
