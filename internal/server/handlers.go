// Package server provides HTTP handlers and server setup for the chat
// gateway. Route wiring is thin: validation happens on bind and the real
// work lives in the dispatcher.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"chatgate/internal/catalog"
	"chatgate/internal/core"
	"chatgate/internal/dispatch"
)

// sseDoneMarker terminates every event stream.
const sseDoneMarker = "[DONE]"

// Handler holds the HTTP handlers
type Handler struct {
	dispatcher *dispatch.Dispatcher
	catalog    *catalog.Catalog
}

// NewHandler creates a new handler.
func NewHandler(dispatcher *dispatch.Dispatcher, modelCatalog *catalog.Catalog) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		catalog:    modelCatalog,
	}
}

// bindRequest decodes and validates the shared chat request schema.
func bindRequest(c echo.Context) (*core.ChatRequest, error) {
	var req core.ChatRequest
	if err := c.Bind(&req); err != nil {
		return nil, core.NewValidationError("invalid request body: "+err.Error(), err)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// Chat handles POST /api/chat (single-shot delivery).
func (h *Handler) Chat(c echo.Context) error {
	req, err := bindRequest(c)
	if err != nil {
		return handleError(c, err)
	}

	resp, err := h.dispatcher.Chat(c.Request().Context(), req)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// ChatStream handles POST /api/chat/stream (server-sent events). Each chunk
// is one JSON-encoded event; the stream always ends with the literal done
// marker, which callers must treat as equivalent to a done chunk.
func (h *Handler) ChatStream(c echo.Context) error {
	req, err := bindRequest(c)
	if err != nil {
		return handleError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	for chunk := range h.dispatcher.ChatStream(ctx, req) {
		if err := writeEvent(c, chunk); err != nil {
			// Client went away; stop draining. The producer notices the
			// cancelled context and closes its end.
			return nil
		}
	}

	fmt.Fprintf(c.Response(), "data: %s\n\n", sseDoneMarker)
	c.Response().Flush()
	return nil
}

// writeEvent flushes one chunk as an SSE data event.
func writeEvent(c echo.Context, chunk core.StreamChunk) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", data); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}

// ListModels handles GET /api/models
func (h *Handler) ListModels(c echo.Context) error {
	models := h.catalog.ListModels(c.Request().Context())
	return c.JSON(http.StatusOK, models)
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleError converts gateway errors to appropriate HTTP responses
func handleError(c echo.Context, err error) error {
	var gatewayErr *core.GatewayError
	if errors.As(err, &gatewayErr) {
		return c.JSON(gatewayErr.HTTPStatusCode(), gatewayErr.ToJSON())
	}

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
