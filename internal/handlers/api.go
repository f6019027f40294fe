package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Shivam-2310/ShortAI/internal/ai"
	"github.com/Shivam-2310/ShortAI/internal/analytics"
	"github.com/Shivam-2310/ShortAI/internal/shortener"
	"github.com/Shivam-2310/ShortAI/internal/validate"
)

type LinkHandler struct {
	DB        *sql.DB
	Shortener *shortener.Service
	AI        *ai.Client
}

// createPayload mirrors the service request but keeps expiresAt as a string
// so both RFC 3339 and zone-less ISO-8601 datetimes are accepted.
type createPayload struct {
	OriginalURL      string `json:"originalUrl"`
	CustomAlias      string `json:"customAlias"`
	Password         string `json:"password"`
	ExpiresAt        string `json:"expiresAt"`
	FetchMetadata    *bool  `json:"fetchMetadata"`
	EnableAIAnalysis *bool  `json:"enableAiAnalysis"`
	GenerateQRCode   bool   `json:"generateQrCode"`
}

func (p *createPayload) toRequest() (*shortener.CreateRequest, error) {
	expiresAt, err := parseExpiry(p.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &shortener.CreateRequest{
		OriginalURL:      p.OriginalURL,
		CustomAlias:      p.CustomAlias,
		Password:         p.Password,
		ExpiresAt:        expiresAt,
		FetchMetadata:    p.FetchMetadata,
		EnableAIAnalysis: p.EnableAIAnalysis,
		GenerateQRCode:   p.GenerateQRCode,
	}, nil
}

var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseExpiry treats zone-less timestamps as UTC.
func parseExpiry(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range expiryLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, errors.New("invalid expiresAt datetime")
}

func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := decodeJSON(r, &payload); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	req, err := payload.toRequest()
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.Shortener.Create(r.Context(), req)
	if err != nil {
		h.writeCreateError(w, err)
		return
	}

	log.Info().Str("key", resp.ShortKey).Str("url", req.OriginalURL).Msg("short URL created")
	writeJSON(w, http.StatusCreated, resp)
}

func (h *LinkHandler) writeCreateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, validate.ErrInvalidURL):
		jsonError(w, "invalid URL format", http.StatusBadRequest)
	case errors.Is(err, shortener.ErrDuplicateAlias):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, validate.ErrInvalidAlias), errors.Is(err, validate.ErrInvalidPassword):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error().Err(err).Msg("create failed")
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

type bulkPayload struct {
	URLs             []*createPayload `json:"urls"`
	FetchMetadata    *bool            `json:"fetchMetadata"`
	EnableAIAnalysis *bool            `json:"enableAiAnalysis"`
}

func (h *LinkHandler) CreateBulk(w http.ResponseWriter, r *http.Request) {
	var payload bulkPayload
	if err := decodeJSON(r, &payload); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if len(payload.URLs) == 0 {
		jsonError(w, "urls is required", http.StatusBadRequest)
		return
	}
	if len(payload.URLs) > csvMaxRows {
		jsonError(w, "at most 100 URLs per batch", http.StatusBadRequest)
		return
	}

	req := &shortener.BulkRequest{
		FetchMetadata:    payload.FetchMetadata,
		EnableAIAnalysis: payload.EnableAIAnalysis,
	}
	for _, item := range payload.URLs {
		if item == nil {
			req.URLs = append(req.URLs, nil)
			continue
		}
		converted, err := item.toRequest()
		if err != nil {
			// Bad datetime on one row must not abort the batch
			converted = &shortener.CreateRequest{OriginalURL: ""}
		}
		req.URLs = append(req.URLs, converted)
	}

	resp := h.Shortener.CreateBulk(r.Context(), req)
	writeJSON(w, http.StatusCreated, resp)
}

func (h *LinkHandler) CreateBulkCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(csvMaxBytes); err != nil {
		jsonError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "CSV file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > csvMaxBytes {
		jsonError(w, "file size exceeds 1MB limit", http.StatusBadRequest)
		return
	}

	requests, err := parseCSV(file)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fetchMetadata := r.FormValue("fetchMetadata") == "true"
	enableAI := r.FormValue("enableAiAnalysis") == "true"

	resp := h.Shortener.CreateBulk(r.Context(), &shortener.BulkRequest{
		URLs:             requests,
		FetchMetadata:    &fetchMetadata,
		EnableAIAnalysis: &enableAI,
	})
	writeJSON(w, http.StatusCreated, resp)
}

func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Shortener.ListRecent()
	if err != nil {
		log.Error().Err(err).Msg("list failed")
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []shortener.ListItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *LinkHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Shortener.Stats(chi.URLParam(r, "key"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *LinkHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	mapping, err := h.Shortener.Lookup(chi.URLParam(r, "key"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	detailed, err := analytics.Detailed(h.DB, mapping)
	if err != nil {
		log.Error().Err(err).Int64("id", mapping.ID).Msg("analytics query failed")
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, detailed)
}

func (h *LinkHandler) Preview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.Shortener.Preview(chi.URLParam(r, "key"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (h *LinkHandler) Protected(w http.ResponseWriter, r *http.Request) {
	protected, err := h.Shortener.IsProtected(chi.URLParam(r, "key"))
	if err != nil {
		log.Error().Err(err).Msg("protected lookup failed")
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"passwordRequired": protected})
}

func (h *LinkHandler) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, shortener.ErrNotFound) {
		jsonError(w, "short URL not found", http.StatusNotFound)
		return
	}
	log.Error().Err(err).Msg("lookup failed")
	jsonError(w, "internal error", http.StatusInternalServerError)
}

type suggestAliasesPayload struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

func (h *LinkHandler) SuggestAliases(w http.ResponseWriter, r *http.Request) {
	var payload suggestAliasesPayload
	if err := decodeJSON(r, &payload); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.URL(validate.SanitizeURL(payload.URL)); err != nil {
		jsonError(w, "invalid URL format", http.StatusBadRequest)
		return
	}

	aliases := h.AI.SuggestAliases(r.Context(), payload.URL, payload.Title)
	writeJSON(w, http.StatusOK, map[string]any{"aliases": aliases})
}

type checkSafetyPayload struct {
	URL string `json:"url"`
}

func (h *LinkHandler) CheckSafety(w http.ResponseWriter, r *http.Request) {
	var payload checkSafetyPayload
	if err := decodeJSON(r, &payload); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.URL(validate.SanitizeURL(payload.URL)); err != nil {
		jsonError(w, "invalid URL format", http.StatusBadRequest)
		return
	}

	result := h.AI.CheckSafety(r.Context(), payload.URL)
	writeJSON(w, http.StatusOK, result)
}
