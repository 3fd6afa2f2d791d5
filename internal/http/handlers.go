package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shivamsaksham/Mini-Url-Shortener/internal/core"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/http/middleware"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/logging"
	"github.com/shivamsaksham/Mini-Url-Shortener/internal/metrics"
)

const (
	msgURLRequired   = "URL is required and must be a string"
	msgInvalidURL    = "Invalid URL format. Please provide a valid HTTP or HTTPS URL."
	msgCodeRequired  = "Short code is required"
	msgBodyTooLarge  = "Request body is too large"
	msgLinkNotFound  = "Short URL not found or has expired"
	msgStatsNotFound = "Short URL not found"
)

type Handlers struct {
	svc     *core.Service
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewHandlers(svc *core.Service, m *metrics.Metrics, log *zap.Logger) *Handlers {
	return &Handlers{svc: svc, metrics: m, log: log}
}

type shortenRequest struct {
	URL string `json:"url" form:"url"`
}

type shortenResponse struct {
	ShortURL    string `json:"shortUrl"`
	OriginalURL string `json:"originalUrl"`
	ShortCode   string `json:"shortCode"`
}

// ---- endpoints ----

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Server is running smoothly"})
}

func (h *Handlers) Shorten(c *gin.Context) {
	var in shortenRequest
	if err := c.ShouldBind(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(c, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		jsonError(c, http.StatusBadRequest, msgURLRequired)
		return
	}
	original := strings.TrimSpace(in.URL)
	if original == "" {
		jsonError(c, http.StatusBadRequest, msgURLRequired)
		return
	}

	res, err := h.svc.CreateShortURL(c.Request.Context(), original)
	if err != nil {
		if errors.Is(err, core.ErrInvalidURL) {
			jsonError(c, http.StatusBadRequest, msgInvalidURL)
			return
		}
		h.fault(c, err, "An error occurred while creating the short URL")
		return
	}

	if res.Reused {
		h.metrics.URLsReused.Inc()
	} else {
		h.metrics.URLsCreated.Inc()
	}
	c.JSON(http.StatusCreated, shortenResponse{
		ShortURL:    res.ShortURL,
		OriginalURL: original,
		ShortCode:   res.ShortCode,
	})
}

func (h *Handlers) Redirect(c *gin.Context) {
	code, ok := codeParam(c)
	if !ok {
		return
	}
	target, err := h.svc.GetOriginalURL(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			h.metrics.Redirects.WithLabelValues(metrics.RedirectNotFound).Inc()
			jsonError(c, http.StatusNotFound, msgLinkNotFound)
			return
		}
		h.metrics.Redirects.WithLabelValues(metrics.RedirectError).Inc()
		h.fault(c, err, "An error occurred while redirecting", logging.Code(code))
		return
	}
	h.metrics.Redirects.WithLabelValues(metrics.RedirectFound).Inc()
	c.Redirect(http.StatusFound, target)
}

func (h *Handlers) Stats(c *gin.Context) {
	code, ok := codeParam(c)
	if !ok {
		return
	}
	rec, err := h.svc.GetURLStats(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			jsonError(c, http.StatusNotFound, msgStatsNotFound)
			return
		}
		h.fault(c, err, "An error occurred while fetching URL statistics", logging.Code(code))
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ---- helpers ----

func codeParam(c *gin.Context) (string, bool) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		jsonError(c, http.StatusBadRequest, msgCodeRequired)
		return "", false
	}
	return code, true
}

// fault logs an unexpected error and answers 500 without leaking its detail.
func (h *Handlers) fault(c *gin.Context, err error, msg string, fields ...zap.Field) {
	_ = c.Error(err)
	fields = append(fields,
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Error(err))
	h.log.Error(msg, fields...)
	jsonError(c, http.StatusInternalServerError, msg)
}

func jsonError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status), "message": msg})
}
