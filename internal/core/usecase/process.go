package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akuzminsky/paperrag/internal/core/domain"
	"github.com/akuzminsky/paperrag/internal/core/ports"
)

type ProcessPaperUseCase struct {
	repo      ports.PaperRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	index     ports.SearchIndex
}

func NewProcessPaperUseCase(
	repo ports.PaperRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.SearchIndex,
) *ProcessPaperUseCase {
	return &ProcessPaperUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
	}
}

func (uc *ProcessPaperUseCase) ProcessByID(ctx context.Context, paperID string) error {
	if err := uc.markStatus(ctx, paperID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.processPipeline(ctx, paperID); err != nil {
		if failErr := uc.markFailed(ctx, paperID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, paperID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessPaperUseCase) processPipeline(ctx context.Context, paperID string) error {
	paper, err := uc.repo.GetByID(ctx, paperID)
	if err != nil {
		return fmt.Errorf("fetch paper by id: %w", err)
	}

	text, err := uc.extractText(ctx, paper)
	if err != nil {
		return err
	}

	uc.applyExtractedMetadata(paper, text)
	if err := uc.repo.SaveExtractedFields(ctx, paper.ID, paper.Title, paper.Abstract, paper.Authors); err != nil {
		return fmt.Errorf("save extracted fields: %w", err)
	}

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "chunk paper", errors.New("chunking produced zero chunks"))
	}

	vectors, err := uc.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}

	if err := uc.index.IndexChunks(ctx, paper, chunks, vectors); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}
	return nil
}

func (uc *ProcessPaperUseCase) extractText(ctx context.Context, paper *domain.Paper) (string, error) {
	text, err := uc.extractor.Extract(ctx, paper)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return text, nil
}

// applyExtractedMetadata fills title and abstract heuristically when the
// upload carried none: the first non-empty line becomes the title and the
// first paragraph after it the abstract.
func (uc *ProcessPaperUseCase) applyExtractedMetadata(paper *domain.Paper, text string) {
	lines := strings.Split(text, "\n")

	titleSet := paper.Title != "" && paper.Title != paper.Filename
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !titleSet {
			paper.Title = truncateRunes(line, 300)
			titleSet = true
			continue
		}
		if paper.Abstract == "" {
			paper.Abstract = truncateRunes(collectParagraph(lines[i:]), 2000)
		}
		break
	}
}

func collectParagraph(lines []string) string {
	var sb strings.Builder
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(line)
	}
	return sb.String()
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func (uc *ProcessPaperUseCase) markStatus(ctx context.Context, paperID string, status domain.PaperStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, paperID, status, errMessage)
}

func (uc *ProcessPaperUseCase) markFailed(ctx context.Context, paperID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, paperID, domain.StatusFailed, processErr.Error())
}
