package middleware

import (
	"net/http"
	"strings"
	"time"

	"vendor-invoicing/internal/core/ports"
	"vendor-invoicing/pkg/apperror"
	"vendor-invoicing/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// HeaderWebhookSignature carries the shared secret on provider webhooks.
	HeaderWebhookSignature = "verif-hash"
	HeaderRequestID        = "X-Request-ID"

	// Context keys
	CtxVendorID    = "vendor_id"
	CtxVendorEmail = "vendor_email"
	CtxRequestID   = "request_id"
)

// RequestID propagates the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.New().String()
		}
		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// JWTAuth creates a middleware that validates vendor bearer tokens.
func JWTAuth(tokenSvc ports.TokenService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenStr == "" {
			response.AbortError(c, apperror.ErrInvalidToken())
			return
		}

		claims, err := tokenSvc.Validate(tokenStr)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("rejected bearer token")
			response.AbortError(c, apperror.ErrInvalidToken())
			return
		}

		c.Set(CtxVendorID, claims.VendorID)
		c.Set(CtxVendorEmail, claims.Email)
		c.Next()
	}
}

// VendorID returns the authenticated vendor set by JWTAuth.
func VendorID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(CtxVendorID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// WebhookSignature rejects provider callbacks whose verif-hash header does not
// match the configured secret. Nothing downstream runs for a rejected call.
func WebhookSignature(auth ports.WebhookAuthenticator, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.Verify(c.GetHeader(HeaderWebhookSignature)) {
			log.Warn().
				Str("client_ip", c.ClientIP()).
				Bool("header_present", c.GetHeader(HeaderWebhookSignature) != "").
				Msg("webhook signature mismatch")
			response.AbortError(c, apperror.ErrSignatureMismatch())
			return
		}
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("request_id", c.GetString(CtxRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("request_id", c.GetString(CtxRequestID)).
					Str("path", c.Request.URL.Path).
					Msg("panic recovered")
				response.AbortError(c, apperror.InternalError(nil))
			}
		}()
		c.Next()
	}
}
