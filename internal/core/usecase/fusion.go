package usecase

import (
	"sort"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

type fusedCandidate struct {
	doc   domain.RetrievedDocument
	score float64
}

// fuseCandidatesRRF merges the dense and sparse legs with reciprocal rank
// fusion, deduplicating by paper id. Ties break on id to keep ordering stable.
func fuseCandidatesRRF(semantic, lexical []domain.RetrievedDocument, rrfK int) []domain.RetrievedDocument {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[string]fusedCandidate, len(semantic)+len(lexical))
	addList := func(docs []domain.RetrievedDocument) {
		for rank, doc := range docs {
			candidate := acc[doc.ID]
			candidate.doc = preferRicherDocument(candidate.doc, doc)
			candidate.score += 1.0 / float64(rrfK+rank+1)
			acc[doc.ID] = candidate
		}
	}

	addList(semantic)
	addList(lexical)

	out := make([]domain.RetrievedDocument, 0, len(acc))
	for _, c := range acc {
		doc := c.doc
		doc.Score = c.score
		out = append(out, doc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})

	return out
}

// dedupeByPaper collapses per-chunk hits from a single search leg into one
// document per paper, keeping the best score and merging highlight
// fragments. Input order (descending score) decides the surviving position.
func dedupeByPaper(docs []domain.RetrievedDocument) []domain.RetrievedDocument {
	if len(docs) < 2 {
		return docs
	}
	out := make([]domain.RetrievedDocument, 0, len(docs))
	seen := make(map[string]int, len(docs))
	for _, doc := range docs {
		i, ok := seen[doc.ID]
		if !ok {
			seen[doc.ID] = len(out)
			out = append(out, preferRicherDocument(domain.RetrievedDocument{}, doc))
			continue
		}
		merged := preferRicherDocument(out[i], doc)
		if doc.Score > merged.Score {
			merged.Score = doc.Score
		}
		out[i] = merged
	}
	return out
}

func trimCandidates(docs []domain.RetrievedDocument, limit int) []domain.RetrievedDocument {
	if limit <= 0 || len(docs) <= limit {
		return docs
	}
	return docs[:limit]
}

// preferRicherDocument merges two hits for the same paper without touching
// either input: highlight maps are copied before any append so retrieved
// documents stay immutable after creation.
func preferRicherDocument(current, candidate domain.RetrievedDocument) domain.RetrievedDocument {
	if current.ID == "" {
		candidate.Highlights = cloneHighlights(candidate.Highlights)
		return candidate
	}
	if current.Title == "" && candidate.Title != "" {
		current.Title = candidate.Title
	}
	if current.Abstract == "" && candidate.Abstract != "" {
		current.Abstract = candidate.Abstract
	}
	if len(current.Authors) == 0 && len(candidate.Authors) > 0 {
		current.Authors = candidate.Authors
	}
	if len(current.Highlights) == 0 && len(candidate.Highlights) > 0 {
		current.Highlights = cloneHighlights(candidate.Highlights)
	} else if len(candidate.Highlights) > 0 {
		for field, fragments := range candidate.Highlights {
			current.Highlights[field] = append(current.Highlights[field], fragments...)
		}
	}
	return current
}

func cloneHighlights(src map[string][]string) map[string][]string {
	if len(src) == 0 {
		return src
	}
	out := make(map[string][]string, len(src))
	for field, fragments := range src {
		out[field] = append([]string(nil), fragments...)
	}
	return out
}
