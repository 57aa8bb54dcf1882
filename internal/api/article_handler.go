package api

import (
	"net/http"
	"strconv"

	"github.com/conduit-article-api/internal/models"
	"github.com/conduit-article-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const defaultPageSize = 20

// ArticleHandler serves the article read and mutation endpoints
type ArticleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewArticleHandler creates a new article handler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		log:      log.With().Str("component", "article_handler").Logger(),
	}
}

type articleCreateRequest struct {
	Article models.ArticleInput `json:"article"`
}

type articleUpdateRequest struct {
	Article models.ArticleUpdate `json:"article"`
}

// List handles GET /api/articles
func (h *ArticleHandler) List(c *gin.Context) {
	req := service.ListRequest{
		Tags:        c.QueryArray("tag"),
		Authors:     c.QueryArray("author"),
		FavoritedBy: c.QueryArray("favorited"),
		Viewer:      callerID(c),
		Limit:       uintQuery(c, "limit", defaultPageSize),
		Offset:      uintQuery(c, "offset", 0),
	}

	articles, count, err := h.services.Article.List(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeArticles(c, articles, count)
}

// Feed handles GET /api/articles/feed
func (h *ArticleHandler) Feed(c *gin.Context) {
	articles, count, err := h.services.Article.Feed(
		c.Request.Context(),
		callerID(c),
		uintQuery(c, "limit", defaultPageSize),
		uintQuery(c, "offset", 0),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	writeArticles(c, articles, count)
}

// Get handles GET /api/articles/:slug
func (h *ArticleHandler) Get(c *gin.Context) {
	article, err := h.services.Article.Get(c.Request.Context(), c.Param("slug"), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

// Create handles POST /api/articles
func (h *ArticleHandler) Create(c *gin.Context) {
	var req articleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	article, err := h.services.Article.Create(c.Request.Context(), callerID(c), &req.Article)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"article": article})
}

// Update handles PUT /api/articles/:slug
func (h *ArticleHandler) Update(c *gin.Context) {
	var req articleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	article, err := h.services.Article.Update(c.Request.Context(), c.Param("slug"), callerID(c), &req.Article)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

// Delete handles DELETE /api/articles/:slug
func (h *ArticleHandler) Delete(c *gin.Context) {
	if err := h.services.Article.Delete(c.Request.Context(), c.Param("slug"), callerID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Favorite handles POST /api/articles/:slug/favorite
func (h *ArticleHandler) Favorite(c *gin.Context) {
	article, err := h.services.Article.Favorite(c.Request.Context(), c.Param("slug"), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

// Unfavorite handles DELETE /api/articles/:slug/favorite
func (h *ArticleHandler) Unfavorite(c *gin.Context) {
	article, err := h.services.Article.Unfavorite(c.Request.Context(), c.Param("slug"), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

func writeArticles(c *gin.Context, articles []*models.Article, count int) {
	if articles == nil {
		articles = []*models.Article{}
	}
	c.JSON(http.StatusOK, gin.H{
		"articles":      articles,
		"articlesCount": count,
	})
}

func uintQuery(c *gin.Context, key string, fallback uint64) uint64 {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		// Malformed values fall back to the default rather than erroring
		return fallback
	}
	return v
}
