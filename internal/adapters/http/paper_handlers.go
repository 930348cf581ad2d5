package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

type searchRequest struct {
	Query      string `json:"query"`
	Limit      int    `json:"limit"`
	SearchMode string `json:"search_mode"`
	Category   string `json:"category"`
	Year       int    `json:"year"`
}

func (rt *Router) searchPapers(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, kindValidationFailed, "invalid json body")
		return
	}

	query := domain.Query{
		Text:         req.Query,
		ContextLimit: req.Limit,
		SearchMode:   domain.SearchMode(req.SearchMode),
	}
	filter := domain.SearchFilter{Category: req.Category, Year: req.Year}

	docs, err := rt.search.Search(r.Context(), callerID(r), query, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": docs,
		"total":   len(docs),
	})
}

func (rt *Router) uploadPaper(w http.ResponseWriter, r *http.Request) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, kindValidationFailed, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	paper, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, paper)
}

func (rt *Router) getPaperByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("paper_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, kindValidationFailed, "paper id is required")
		return
	}

	paper, err := rt.papers.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paper)
}
