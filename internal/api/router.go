package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "lenderhub/internal/api/context"
	"lenderhub/internal/api/handlers"
	"lenderhub/internal/api/middleware"
	"lenderhub/internal/pkg/errors"
)

type Dependencies struct {
	APIKeyHandler  *handlers.APIKeyHandler
	WebhookHandler *handlers.WebhookHandler
	TriggerHandler *handlers.TriggerHandler
	AuditHandler   *handlers.AuditHandler
	HealthHandler  *handlers.HealthHandler
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Route not found", nil)
	})

	authMid := deps.AuthMiddleware
	read := deps.RateLimiter.Limit(middleware.LimitAPIRead)
	write := deps.RateLimiter.Limit(middleware.LimitAPIWrite)

	router.GET("/health", wrap(deps.HealthHandler.Check))

	// Integrations verify their key without a dashboard session
	router.POST("/api/v1/auth/verify-key", chain(deps.APIKeyHandler.Verify, read))

	// API keys
	router.GET("/api/v1/api-keys",
		chain(deps.APIKeyHandler.List, authMid.Handle, read))
	router.POST("/api/v1/api-keys",
		chain(deps.APIKeyHandler.Create, authMid.Handle, write))
	router.POST("/api/v1/api-keys/:key_id/regenerate",
		chain(deps.APIKeyHandler.Regenerate, authMid.Handle, write))
	router.POST("/api/v1/api-keys/:key_id/revoke",
		chain(deps.APIKeyHandler.Revoke, authMid.Handle, write))
	router.DELETE("/api/v1/api-keys/:key_id",
		chain(deps.APIKeyHandler.Delete, authMid.Handle, write))

	// Webhooks
	router.GET("/api/v1/webhooks",
		chain(deps.WebhookHandler.List, authMid.Handle, read))
	router.POST("/api/v1/webhooks",
		chain(deps.WebhookHandler.Create, authMid.Handle, write))
	router.PATCH("/api/v1/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Update, authMid.Handle, write))
	router.DELETE("/api/v1/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Delete, authMid.Handle, write))
	router.POST("/api/v1/webhooks/:webhook_id/test",
		chain(deps.WebhookHandler.Test, authMid.Handle, write))

	// Automation triggers
	router.GET("/api/v1/triggers",
		chain(deps.TriggerHandler.List, authMid.Handle, read))
	router.POST("/api/v1/triggers",
		chain(deps.TriggerHandler.Create, authMid.Handle, write))
	router.PUT("/api/v1/triggers/:trigger_id",
		chain(deps.TriggerHandler.Update, authMid.Handle, write))
	router.DELETE("/api/v1/triggers/:trigger_id",
		chain(deps.TriggerHandler.Delete, authMid.Handle, write))
	router.POST("/api/v1/triggers/:trigger_id/toggle",
		chain(deps.TriggerHandler.Toggle, authMid.Handle, write))

	// Audit trail
	router.GET("/api/v1/audit-logs",
		chain(deps.AuditHandler.List, authMid.Handle, read))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
