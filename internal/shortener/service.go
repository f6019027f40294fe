package shortener

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Shivam-2310/ShortAI/internal/ai"
	"github.com/Shivam-2310/ShortAI/internal/cache"
	"github.com/Shivam-2310/ShortAI/internal/keygen"
	"github.com/Shivam-2310/ShortAI/internal/metadata"
	"github.com/Shivam-2310/ShortAI/internal/metrics"
	"github.com/Shivam-2310/ShortAI/internal/models"
	"github.com/Shivam-2310/ShortAI/internal/password"
	"github.com/Shivam-2310/ShortAI/internal/validate"
)

// Service orchestrates creation and resolution. The metadata and AI
// collaborators are optional; a nil collaborator disables that enrichment.
type Service struct {
	DB       *sql.DB
	Cache    *cache.HotCache
	Metadata *metadata.Fetcher
	AI       *ai.Client
	BaseURL  string
}

type CreateRequest struct {
	OriginalURL      string     `json:"originalUrl"`
	CustomAlias      string     `json:"customAlias,omitempty"`
	Password         string     `json:"password,omitempty"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	FetchMetadata    *bool      `json:"fetchMetadata,omitempty"`
	EnableAIAnalysis *bool      `json:"enableAiAnalysis,omitempty"`
	GenerateQRCode   bool       `json:"generateQrCode,omitempty"`
}

func (r *CreateRequest) fetchMetadata() bool {
	return r.FetchMetadata == nil || *r.FetchMetadata
}

func (r *CreateRequest) enableAI() bool {
	return r.EnableAIAnalysis == nil || *r.EnableAIAnalysis
}

type CreateResponse struct {
	ShortURL            string             `json:"shortUrl"`
	ShortKey            string             `json:"shortKey"`
	CustomAlias         string             `json:"customAlias,omitempty"`
	IsPasswordProtected bool               `json:"isPasswordProtected"`
	ExpiresAt           *time.Time         `json:"expiresAt,omitempty"`
	QRCodePayload       string             `json:"qrCodePayload,omitempty"`
	Metadata            *metadata.Metadata `json:"metadata,omitempty"`
	AIAnalysis          *ai.Result         `json:"aiAnalysis,omitempty"`
}

const (
	mintAttempts    = 10
	escalatedKeyLen = 10
	recentListLimit = 20
)

// Create builds one mapping: validate, alias checks, password hash, insert,
// mint, enrich, decorate, cache.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	sanitized := validate.SanitizeURL(req.OriginalURL)
	if err := validate.URL(sanitized); err != nil {
		return nil, err
	}

	if req.CustomAlias != "" {
		if err := validate.Alias(req.CustomAlias); err != nil {
			return nil, err
		}
		taken, err := models.KeyTaken(s.DB, req.CustomAlias)
		if err != nil {
			return nil, fmt.Errorf("alias lookup: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAlias, req.CustomAlias)
		}
	}

	mapping := &models.Mapping{
		OriginalURL: sanitized,
		CustomAlias: req.CustomAlias,
		ExpiresAt:   req.ExpiresAt,
	}

	if req.Password != "" {
		if err := validate.Password(req.Password); err != nil {
			return nil, err
		}
		hash, err := password.Hash(req.Password)
		if err != nil {
			return nil, err
		}
		mapping.PasswordHash = hash
		mapping.IsPasswordProtected = true
	}

	if err := models.InsertMapping(s.DB, mapping); err != nil {
		return nil, err
	}

	shortKey, err := s.mintUniqueKey()
	if err != nil {
		return nil, err
	}
	if err := models.AssignShortKey(s.DB, mapping.ID, shortKey); err != nil {
		return nil, err
	}
	mapping.ShortKey = shortKey

	var meta *metadata.Metadata
	if req.fetchMetadata() && s.Metadata != nil {
		meta = s.Metadata.Fetch(ctx, sanitized)
		if meta.Title != "" || meta.Description != "" || meta.ImageURL != "" || meta.FaviconURL != "" {
			now := time.Now().UTC()
			mapping.MetaTitle = meta.Title
			mapping.MetaDescription = meta.Description
			mapping.MetaImageURL = meta.ImageURL
			mapping.MetaFaviconURL = meta.FaviconURL
			mapping.MetaFetchedAt = &now
		}
	}

	var analysis *ai.Result
	if req.enableAI() && s.AI != nil {
		var title, description string
		if meta != nil {
			title, description = meta.Title, meta.Description
		}

		// Synchronous call first: this hits the annotation cache on the hot
		// path. A fresh background pass follows for mappings the sync call
		// could not decorate.
		analysis = s.AI.Analyze(ctx, sanitized, title, description)
		if analysis != nil {
			s.applyAnalysis(mapping, analysis)
		}
		go s.reanalyze(mapping.ID, sanitized, title, description)
	}

	if err := models.UpdateMappingDecorations(s.DB, mapping); err != nil {
		log.Warn().Err(err).Int64("id", mapping.ID).Msg("decoration update failed")
	}

	if !mapping.IsPasswordProtected {
		s.Cache.Put(ctx, shortKey, sanitized)
	}

	metrics.URLsCreated.Inc()

	resp := &CreateResponse{
		ShortURL:            s.BaseURL + "/" + mapping.EffectiveKey(),
		ShortKey:            shortKey,
		CustomAlias:         mapping.CustomAlias,
		IsPasswordProtected: mapping.IsPasswordProtected,
		ExpiresAt:           mapping.ExpiresAt,
		Metadata:            meta,
		AIAnalysis:          analysis,
	}
	if req.GenerateQRCode {
		resp.QRCodePayload = resp.ShortURL
	}
	return resp, nil
}

// applyAnalysis copies AI fields onto the mapping. Cached and fresh results
// both decorate immediately.
func (s *Service) applyAnalysis(mapping *models.Mapping, analysis *ai.Result) {
	now := time.Now().UTC()
	mapping.AISummary = analysis.Summary
	mapping.AICategory = analysis.Category
	mapping.AITags = joinTags(analysis.Tags)
	score := analysis.SafetyScore
	mapping.AISafetyScore = &score
	mapping.AIAnalyzedAt = &now
}

// reanalyze runs in the background after creation and decorates the mapping
// only when the sync pass left it unanalyzed.
func (s *Service) reanalyze(mappingID int64, url, title, description string) {
	mapping, err := models.GetMappingByID(s.DB, mappingID)
	if err != nil {
		log.Warn().Err(err).Int64("id", mappingID).Msg("mapping not found for background analysis")
		return
	}
	if mapping.AIAnalyzedAt != nil {
		return
	}

	analysis := s.AI.Analyze(context.Background(), url, title, description)
	if analysis == nil || analysis.FromCache {
		return
	}

	s.applyAnalysis(mapping, analysis)
	if err := models.UpdateMappingDecorations(s.DB, mapping); err != nil {
		log.Warn().Err(err).Int64("id", mappingID).Msg("background decoration update failed")
	}
}

// mintUniqueKey probes minted candidates against both the short-key and
// alias namespaces, escalating to a longer key when the default lengths are
// exhausted.
func (s *Service) mintUniqueKey() (string, error) {
	for attempt := 0; attempt < mintAttempts; attempt++ {
		key, err := keygen.Mint()
		if err != nil {
			return "", err
		}
		taken, err := models.KeyTaken(s.DB, key)
		if err != nil {
			return "", fmt.Errorf("key probe: %w", err)
		}
		if !taken {
			return key, nil
		}
		log.Debug().Str("key", key).Int("attempt", attempt+1).Msg("short key collision, retrying")
	}

	log.Warn().Int("attempts", mintAttempts).Msg("short key space congested, escalating key length")
	for {
		key, err := keygen.MintLen(escalatedKeyLen)
		if err != nil {
			return "", err
		}
		taken, err := models.KeyTaken(s.DB, key)
		if err != nil {
			return "", fmt.Errorf("key probe: %w", err)
		}
		if !taken {
			return key, nil
		}
	}
}

type BulkItemError struct {
	Index       int    `json:"index"`
	OriginalURL string `json:"originalUrl"`
	Error       string `json:"error"`
}

type BulkResponse struct {
	SuccessCount int              `json:"successCount"`
	FailedCount  int              `json:"failedCount"`
	Results      []CreateResponse `json:"results"`
	Errors       []BulkItemError  `json:"errors"`
}

type BulkRequest struct {
	URLs             []*CreateRequest `json:"urls"`
	FetchMetadata    *bool            `json:"fetchMetadata,omitempty"`
	EnableAIAnalysis *bool            `json:"enableAiAnalysis,omitempty"`
}

// CreateBulk iterates in order and never aborts on a single failure.
// Bulk-level flags override per-item flags when set.
func (s *Service) CreateBulk(ctx context.Context, req *BulkRequest) *BulkResponse {
	resp := &BulkResponse{
		Results: []CreateResponse{},
		Errors:  []BulkItemError{},
	}

	for i, item := range req.URLs {
		if item == nil || item.OriginalURL == "" {
			resp.Errors = append(resp.Errors, BulkItemError{
				Index: i, OriginalURL: "", Error: "original URL is required",
			})
			continue
		}

		if req.FetchMetadata != nil {
			item.FetchMetadata = req.FetchMetadata
		}
		if req.EnableAIAnalysis != nil {
			item.EnableAIAnalysis = req.EnableAIAnalysis
		}

		created, err := s.Create(ctx, item)
		if err != nil {
			msg := err.Error()
			if len(msg) > 200 {
				msg = msg[:197] + "..."
			}
			resp.Errors = append(resp.Errors, BulkItemError{
				Index: i, OriginalURL: item.OriginalURL, Error: msg,
			})
			continue
		}
		resp.Results = append(resp.Results, *created)
	}

	resp.SuccessCount = len(resp.Results)
	resp.FailedCount = len(resp.Errors)
	return resp
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}
