package usecase

import (
	"fmt"
	"strings"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

const promptOverheadTokens = 200

// estimateTokens approximates the provider tokenizer at ~4 characters per
// token, rounding up. Good enough for budget arithmetic.
func estimateTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	return n/4 + 1
}

// assembleContext picks documents, in rank order, whose full rendered text
// fits the remaining token budget. Documents are included whole or not at
// all; an oversized document is skipped and later smaller ones may still fit.
func assembleContext(docs []domain.RetrievedDocument, contextWindow, maxTokens int) []domain.RetrievedDocument {
	budget := contextWindow - maxTokens - promptOverheadTokens
	if budget <= 0 {
		return nil
	}

	selected := make([]domain.RetrievedDocument, 0, len(docs))
	for _, doc := range docs {
		cost := estimateTokens(renderDocument(doc))
		if cost > budget {
			continue
		}
		selected = append(selected, doc)
		budget -= cost
	}
	return selected
}

func renderDocument(doc domain.RetrievedDocument) string {
	var sb strings.Builder
	sb.WriteString(doc.Title)
	if len(doc.Authors) > 0 {
		sb.WriteString("\n")
		sb.WriteString(strings.Join(doc.Authors, ", "))
	}
	if doc.Abstract != "" {
		sb.WriteString("\n")
		sb.WriteString(doc.Abstract)
	}
	for _, fragment := range doc.Highlights["text"] {
		sb.WriteString("\n")
		sb.WriteString(fragment)
	}
	return sb.String()
}

func buildAnswerPrompt(question string, docs []domain.RetrievedDocument) string {
	var contextBuilder strings.Builder
	for idx, doc := range docs {
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] title=%s score=%.3f\n%s\n\n",
			idx+1,
			doc.Title,
			doc.Score,
			renderDocument(doc),
		))
	}

	return fmt.Sprintf(`Answer the question using only the paper excerpts below.
Cite papers by their [n] marker. If the excerpts are insufficient, say so directly.

Question:
%s

Papers:
%s
`, question, contextBuilder.String())
}

// answerConfidence scores how much to trust a finished answer. Degraded
// answers are always 0; otherwise the retrieval scores drive the estimate.
func answerConfidence(sources []domain.RetrievedDocument, degraded bool) float64 {
	if degraded {
		return 0
	}
	if len(sources) == 0 {
		return 0.1
	}
	var sum float64
	for _, doc := range sources {
		score := doc.Score
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		sum += score
	}
	avg := sum / float64(len(sources))
	return 0.6 + 0.4*avg
}
