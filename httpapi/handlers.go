package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ZaguanLabs/blocktl"
	"github.com/ZaguanLabs/blocktl/blocks"
	"github.com/go-chi/chi/v5"
)

type translateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
	Provider   string `json:"provider,omitempty"`
}

type backTranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang,omitempty"`
	Provider   string `json:"provider,omitempty"`
}

// blockRequest translates either one block or a whole serialized document.
// Content wins when both are set.
type blockRequest struct {
	Block      *blocks.Block `json:"block,omitempty"`
	Content    string        `json:"content,omitempty"`
	Title      string        `json:"title,omitempty"`
	TargetLang string        `json:"target_lang"`
	Provider   string        `json:"provider,omitempty"`
}

type documentRequest struct {
	TargetLang string `json:"target_lang"`
	Provider   string `json:"provider,omitempty"`
}

type selectRequest struct {
	Provider string `json:"provider"`
}

type providersResponse struct {
	Available  []blocktl.ProviderInfo `json:"available"`
	Registered []blocktl.ProviderInfo `json:"registered"`
}

func requireLang(w http.ResponseWriter, lang string) bool {
	if strings.TrimSpace(lang) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "target_lang is required")
		return false
	}
	return true
}

func (h *Handler) translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !decode(w, r, &req) || !requireLang(w, req.TargetLang) {
		return
	}
	unit, err := h.tr.Translate(r.Context(), req.Text, req.TargetLang, req.Provider)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, unit)
}

func (h *Handler) backTranslate(w http.ResponseWriter, r *http.Request) {
	var req backTranslateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SourceLang == "" {
		req.SourceLang = h.tr.SourceLang()
	}
	res, err := h.tr.BackTranslate(r.Context(), req.Text, req.SourceLang, req.Provider)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) translateBlock(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if !decode(w, r, &req) || !requireLang(w, req.TargetLang) {
		return
	}

	if req.Content != "" {
		res, err := h.bt.TranslateContent(r.Context(), req.Content, req.Title, req.TargetLang, req.Provider)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, res)
		return
	}

	if req.Block == nil {
		h.writeDomainError(w, r, blocktl.NewError(blocktl.CodeInvalidBlockStructure, "block or content is required"))
		return
	}
	b := *req.Block
	if len(b.InnerContent) == 0 {
		b.SyncInnerContent()
	}
	res, err := h.bt.TranslateBlock(r.Context(), b, req.TargetLang, req.Provider)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) providers(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, providersResponse{
		Available:  h.tr.AvailableProviders(),
		Registered: h.tr.Providers(),
	})
}

func (h *Handler) usage(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tr.UsageStats(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, stats)
}

func (h *Handler) translateDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !decode(w, r, &req) || !requireLang(w, req.TargetLang) {
		return
	}
	pending, err := h.review.Translate(r.Context(), chi.URLParam(r, "id"), req.TargetLang, req.Provider)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, pending)
}

func (h *Handler) compareDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !decode(w, r, &req) || !requireLang(w, req.TargetLang) {
		return
	}
	cmp, err := h.comparator.Run(r.Context(), chi.URLParam(r, "id"), req.TargetLang)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, cmp)
}

func (h *Handler) comparisonHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	list, err := h.comparator.History(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, list)
}

func (h *Handler) getComparison(w http.ResponseWriter, r *http.Request) {
	cmp, err := h.comparator.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, cmp)
}

func (h *Handler) selectResult(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decode(w, r, &req) {
		return
	}
	pending, err := h.comparator.Select(r.Context(), chi.URLParam(r, "id"), req.Provider)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, pending)
}

func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.review.Pending(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, pending)
}

func (h *Handler) discardPending(w http.ResponseWriter, r *http.Request) {
	if err := h.review.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	page, err := h.review.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, page)
}
