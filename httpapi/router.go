// Package httpapi exposes the translation engine over HTTP.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/ZaguanLabs/blocktl"
	"github.com/ZaguanLabs/blocktl/compare"
	"github.com/ZaguanLabs/blocktl/pipeline"
	"github.com/ZaguanLabs/blocktl/review"
	"github.com/go-chi/chi/v5"
)

// Handler serves the API. All dependencies must share one Translator.
type Handler struct {
	tr         *blocktl.Translator
	bt         *pipeline.BlockTranslator
	comparator *compare.Comparator
	review     *review.Service
	logger     *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(tr *blocktl.Translator, bt *pipeline.BlockTranslator, comparator *compare.Comparator, rs *review.Service) *Handler {
	return &Handler{
		tr:         tr,
		bt:         bt,
		comparator: comparator,
		review:     rs,
		logger:     tr.Logger(),
	}
}

// NewRouter mounts the API routes.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(handler.recoverMiddleware)
	r.Use(handler.loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]string{"status": "ok", "version": blocktl.FullVersion()})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/translate", handler.translate)
		r.Post("/back-translate", handler.backTranslate)
		r.Post("/block", handler.translateBlock)
		r.Get("/providers", handler.providers)
		r.Get("/usage", handler.usage)

		r.Route("/documents/{id}", func(r chi.Router) {
			r.Post("/translate", handler.translateDocument)
			r.Post("/compare", handler.compareDocument)
			r.Get("/comparisons", handler.comparisonHistory)
			r.Get("/pending", handler.pending)
			r.Delete("/pending", handler.discardPending)
			r.Post("/approve", handler.approve)
		})

		r.Get("/comparisons/{id}", handler.getComparison)
		r.Post("/comparisons/{id}/select", handler.selectResult)
	})
	return r
}
