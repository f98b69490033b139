package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/promptgate/internal/gateway"
	"github.com/fyrsmithlabs/promptgate/internal/knowledge"
)

const (
	defaultSearchTopK     = 5
	defaultSearchMinScore = 0.1
)

// RootResponse is the response body for GET /.
type RootResponse struct {
	Service string `json:"service"`
	Status  string `json:"status"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status        string          `json:"status"`
	KnowledgeBase knowledge.Stats `json:"knowledge_base"`
}

// SearchRequest is the request body for POST /api/knowledge/search.
type SearchRequest struct {
	Query    string   `json:"query"`
	TopK     int      `json:"top_k"`
	MinScore *float64 `json:"min_score"`
}

// SearchResponse is the response body for POST /api/knowledge/search.
type SearchResponse struct {
	Results []knowledge.SearchResult `json:"results"`
	Count   int                      `json:"count"`
}

// AddRequest is the request body for POST /api/knowledge/add.
type AddRequest struct {
	Content  string   `json:"content"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// AddResponse is the response body for POST /api/knowledge/add.
type AddResponse struct {
	ID string `json:"id"`
}

// CacheClearResponse is the response body for POST /api/cache/clear.
type CacheClearResponse struct {
	Cleared int `json:"cleared"`
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, RootResponse{Service: "promptgate", Status: "running"})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		KnowledgeBase: s.store.Stats(),
	})
}

func (s *Server) handleChat(c echo.Context) error {
	var req gateway.ChatRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid chat request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Prompt == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "prompt field is required")
	}
	req.ClientID = c.RealIP()

	resp, err := s.gateway.Chat(c.Request().Context(), req)
	if err != nil {
		return writeGatewayError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, s.gateway.Metrics())
}

func (s *Server) handleCacheClear(c echo.Context) error {
	cleared := s.gateway.ClearCache()
	s.logger.Info("response cache cleared", zap.Int("entries", cleared))
	return c.JSON(http.StatusOK, CacheClearResponse{Cleared: cleared})
}

func (s *Server) handleKnowledgeSearch(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}
	if req.TopK <= 0 {
		req.TopK = defaultSearchTopK
	}
	minScore := defaultSearchMinScore
	if req.MinScore != nil {
		minScore = *req.MinScore
	}

	results, err := s.store.Search(c.Request().Context(), req.Query, req.TopK, minScore)
	if err != nil {
		s.logger.Error("knowledge search failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}
	if results == nil {
		results = []knowledge.SearchResult{}
	}
	return c.JSON(http.StatusOK, SearchResponse{Results: results, Count: len(results)})
}

func (s *Server) handleKnowledgeAdd(c echo.Context) error {
	var req AddRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	id, err := s.store.Add(c.Request().Context(), req.Content, req.Title, req.Category, req.Tags)
	if err != nil {
		if errors.Is(err, knowledge.ErrEmptyContent) {
			return echo.NewHTTPError(http.StatusBadRequest, "content field is required")
		}
		s.logger.Error("knowledge add failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "add failed")
	}
	return c.JSON(http.StatusOK, AddResponse{ID: id})
}

func (s *Server) handleKnowledgeStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.Stats())
}
