package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rencanakan/ahsmatch/internal/breakdown"
	"github.com/rencanakan/ahsmatch/internal/config"
	apperrors "github.com/rencanakan/ahsmatch/internal/errors"
	"github.com/rencanakan/ahsmatch/internal/match"
	"github.com/rencanakan/ahsmatch/internal/service"
	"github.com/rencanakan/ahsmatch/internal/version"
)

// Input limits for match requests. Descriptions beyond a kilobyte are
// never legitimate job names, and units are short codes like "m3".
const (
	maxDescriptionRunes = 1024
	maxUnitRunes        = 32
)

// unitPattern admits unit codes as letters, digits, and the separator
// characters that appear in the catalog ("m3", "m.2", "ls/hr").
var unitPattern = regexp.MustCompile(`^[A-Za-z0-9./\-\s]{0,32}$`)

// matchCacheControl keeps intermediaries from replaying match results
// computed against a previous catalog snapshot.
const matchCacheControl = "no-store, no-cache, must-revalidate"

// itemRequest is the JSON shape of a match request and of each bulk
// entry. Pointers distinguish an absent field from an empty one.
type itemRequest struct {
	Description *string `json:"description"`
	Unit        *string `json:"unit"`
	TaskID      string  `json:"task_id"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": version.Info(),
	})
}

func (s *Server) handleMatchBest(c *gin.Context) {
	c.Header("Cache-Control", matchCacheControl)

	body, ok := s.readJSONBody(c)
	if !ok {
		return
	}

	var req itemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	item, err := sanitizeItem(req)
	if err != nil {
		s.secLog.Warn("rejected match request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	out, err := s.matcher.BestMatch(c.Request.Context(), item.Description, item.Unit)
	if err != nil {
		s.log.Error("best match failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// The alternatives envelope is the whole response body; everything
	// else renders as a status/match pair.
	if out.Alternatives != nil {
		c.JSON(http.StatusOK, out.Alternatives)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": out.Status, "match": out.MatchPayload()})
}

func (s *Server) handleMatchBulk(c *gin.Context) {
	c.Header("Cache-Control", matchCacheControl)

	body, ok := s.readJSONBody(c)
	if !ok {
		return
	}

	var rawItems []json.RawMessage
	if err := json.Unmarshal(body, &rawItems); err != nil {
		if !json.Valid(body) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expected a JSON array of items"})
		return
	}

	// Invalid entries become error placeholders at their original
	// index; only the valid ones reach the matcher, and their results
	// are merged back by position.
	results := make([]service.BulkResult, len(rawItems))
	var (
		valid    []service.BulkItem
		validIdx []int
	)
	for i, raw := range rawItems {
		item, err := parseBulkItem(raw)
		if err != nil {
			s.secLog.Warn("rejected bulk item", zap.Int("index", i), zap.Error(err))
			results[i] = service.BulkResult{Status: service.StatusError, Error: err.Error()}
			continue
		}
		valid = append(valid, item)
		validIdx = append(validIdx, i)
	}

	matched := s.matcher.BulkBestMatch(c.Request.Context(), valid)
	for k, idx := range validIdx {
		results[idx] = matched[k]
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) handleSearch(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}
		limit = v
	}

	results := s.matcher.SearchCandidates(c.Request.Context(), c.Query("term"), limit)
	if results == nil {
		results = []*match.Result{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) handleBreakdown(c *gin.Context) {
	code := c.Param("code")

	bd, err := s.breakdown.Breakdown(code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "AHS code not found"})
			return
		}
		s.log.Error("breakdown failed", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":      breakdown.CanonicalCode(code),
		"breakdown": bd,
	})
}

// readJSONBody enforces the content-type and size gates shared by the
// POST endpoints and returns the request body, substituting an empty
// object for an empty body. A false return means the response has
// already been written.
func (s *Server) readJSONBody(c *gin.Context) ([]byte, bool) {
	// An absent content type is tolerated; a present one must be JSON.
	if ct := c.ContentType(); ct != "" && ct != "application/json" {
		s.secLog.Warn("rejected content type", zap.String("content_type", ct))
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Unsupported content type"})
		return nil, false
	}

	maxBytes := s.cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return nil, false
	}
	if int64(len(body)) > maxBytes {
		s.secLog.Warn("rejected oversized payload", zap.Int("bytes", len(body)))
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Payload too large"})
		return nil, false
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	return body, true
}

func parseBulkItem(raw json.RawMessage) (service.BulkItem, error) {
	var req itemRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return service.BulkItem{}, errors.New("item must be an object")
	}
	return sanitizeItem(req)
}

func sanitizeItem(req itemRequest) (service.BulkItem, error) {
	description, err := sanitizeDescription(req.Description)
	if err != nil {
		return service.BulkItem{}, err
	}
	unit, err := sanitizeUnit(req.Unit)
	if err != nil {
		return service.BulkItem{}, err
	}
	return service.BulkItem{
		Description: description,
		Unit:        unit,
		TaskID:      strings.TrimSpace(req.TaskID),
	}, nil
}

func sanitizeDescription(value *string) (string, error) {
	if value == nil {
		return "", errors.New("description is required")
	}
	description := strings.TrimSpace(*value)
	if description == "" {
		return "", errors.New("description cannot be empty")
	}
	if utf8.RuneCountInString(description) > maxDescriptionRunes {
		return "", errors.New("description is too long")
	}
	return description, nil
}

func sanitizeUnit(value *string) (string, error) {
	if value == nil {
		return "", nil
	}
	unit := strings.TrimSpace(*value)
	if unit == "" {
		return "", nil
	}
	if utf8.RuneCountInString(unit) > maxUnitRunes {
		return "", errors.New("unit is too long")
	}
	if !unitPattern.MatchString(unit) {
		return "", errors.New("unit contains invalid characters")
	}
	return unit, nil
}
