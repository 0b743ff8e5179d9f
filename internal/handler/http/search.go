package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/congquynguyen296/hq-shop/internal/domain"
	"github.com/congquynguyen296/hq-shop/internal/indexsync"
	"github.com/congquynguyen296/hq-shop/internal/service"
	apperrors "github.com/congquynguyen296/hq-shop/pkg/errors"
	"github.com/congquynguyen296/hq-shop/pkg/httputil"
	"github.com/congquynguyen296/hq-shop/pkg/pagination"
)

// Reindexer runs a full Store to Index sync.
type Reindexer interface {
	Running() bool
	Run(ctx context.Context) (indexsync.Stats, error)
}

// SearchHandler handles HTTP requests for search endpoints.
type SearchHandler struct {
	search  *service.SearchService
	suggest *service.SuggestService
	facets  *service.FacetService
	reindex Reindexer
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler. reindex may be nil, in
// which case the reindex endpoint answers 503.
func NewSearchHandler(
	search *service.SearchService,
	suggest *service.SuggestService,
	facets *service.FacetService,
	reindex Reindexer,
	logger *slog.Logger,
) *SearchHandler {
	return &SearchHandler{
		search:  search,
		suggest: suggest,
		facets:  facets,
		reindex: reindex,
		logger:  logger,
	}
}

type sortInfo struct {
	By    domain.SortField `json:"by"`
	Order domain.SortOrder `json:"order"`
}

// searchResponse is the body of GET /search. It echoes the parsed filter and
// requested sort next to the page of results.
type searchResponse struct {
	Success    bool             `json:"success"`
	Source     domain.Source    `json:"source"`
	Data       []domain.Product `json:"data"`
	Pagination pagination.Page  `json:"pagination"`
	Filters    *domain.Filter   `json:"filters"`
	Sort       sortInfo         `json:"sort"`
}

// Search handles GET /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	f, err := domain.ParseFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.search.Search(r.Context(), f)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, searchResponse{
		Success:    true,
		Source:     result.Source,
		Data:       result.Items,
		Pagination: result.Pagination,
		Filters:    f,
		Sort:       sortInfo{By: f.SortBy, Order: f.SortOrder},
	})
}

// Suggestions handles GET /api/v1/search/suggestions
func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fragment := q.Get("query")
	if strings.TrimSpace(fragment) == "" {
		fragment = q.Get("q")
	}

	suggestions, err := h.suggest.Suggest(r.Context(), fragment, intParam(q.Get("limit")))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.OK(suggestions))
}

// Popular handles GET /api/v1/search/popular
func (h *SearchHandler) Popular(w http.ResponseWriter, r *http.Request) {
	popular, err := h.facets.Popular(r.Context(), intParam(r.URL.Query().Get("limit")))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.OK(popular))
}

// Filters handles GET /api/v1/search/filters
func (h *SearchHandler) Filters(w http.ResponseWriter, r *http.Request) {
	options, err := h.facets.FilterOptions(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.OK(options))
}

// Reindex handles POST /api/v1/search/reindex. The sync runs in the
// background, detached from the request's cancellation.
func (h *SearchHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	if h.reindex == nil {
		httputil.WriteError(w, r, apperrors.ServiceUnavailable("search index disabled", nil), h.logger)
		return
	}
	if h.reindex.Running() {
		httputil.WriteError(w, r, indexsync.ErrSyncInProgress, h.logger)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	go func() {
		l := h.logger
		stats, err := h.reindex.Run(ctx)
		switch {
		case errors.Is(err, indexsync.ErrSyncInProgress):
			l.InfoContext(ctx, "manual reindex skipped, sync already running")
		case err != nil:
			l.ErrorContext(ctx, "manual reindex failed", slog.String("error", err.Error()))
		default:
			l.InfoContext(ctx, "manual reindex finished",
				slog.Int64("indexed", stats.Indexed),
				slog.Int("batches", stats.Batches),
				slog.Duration("duration", stats.Duration),
			)
		}
	}()

	httputil.WriteJSON(w, http.StatusAccepted, httputil.OK(map[string]string{"status": "reindex started"}))
}

// intParam parses an optional integer query parameter. Missing or malformed
// values return 0 so the service applies its default.
func intParam(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}
