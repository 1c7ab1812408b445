package handler

import (
	"context"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"dossier-engine/internal/apperr"
	"dossier-engine/internal/engine"
	"dossier-engine/internal/logger"
	"dossier-engine/internal/model"
	"dossier-engine/internal/mutations"
	"dossier-engine/internal/session"
)

const requestTimeout = 30 * time.Second

type Handler struct {
	engine   *engine.Engine
	sessions *session.Registry
	agency   string
	log      *logger.Logger
}

func New(e *engine.Engine, sessions *session.Registry, agency string, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{engine: e, sessions: sessions, agency: agency, log: log.With("component", "http")}
}

// Serve routes:
//
//	POST /calculate                  mutation batch
//	GET  /health
//	GET  /mutations                  registered mutation names
//	GET  /dossiers/{cisCode}         current situation
//	GET  /dossiers/{cisCode}/itinerary
func (h *Handler) Serve(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	switch {
	case path == "/calculate":
		h.handleCalculation(ctx)
	case path == "/health":
		writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
	case path == "/mutations":
		writeJSON(ctx, fasthttp.StatusOK, mutations.Names())
	case strings.HasPrefix(path, "/dossiers/"):
		h.handleDossier(ctx, strings.TrimPrefix(path, "/dossiers/"))
	default:
		writeError(ctx, fasthttp.StatusNotFound, "Not found")
	}
}

func (h *Handler) handleCalculation(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req model.CalculationRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.CalculationInstructions.Mutations) == 0 {
		writeError(ctx, fasthttp.StatusBadRequest, "At least one mutation is required")
		return
	}

	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	resp := h.engine.Process(c, &req)
	h.log.Info("batch processed",
		"tenantId", req.TenantID,
		"mutations", len(req.CalculationInstructions.Mutations),
		"outcome", resp.CalculationMetadata.CalculationOutcome,
		"durationMs", resp.CalculationMetadata.CalculationDurationMs)

	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (h *Handler) handleDossier(ctx *fasthttp.RequestCtx, rest string) {
	if !ctx.IsGet() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	key, view, _ := strings.Cut(rest, "/")
	if key == "" {
		writeError(ctx, fasthttp.StatusNotFound, "Not found")
		return
	}

	c, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	s, release, err := h.sessions.View(c, key)
	defer release()
	if err != nil {
		status := fasthttp.StatusInternalServerError
		if apperr.IsCode(err, apperr.CodeNotFound) {
			status = fasthttp.StatusNotFound
		}
		writeError(ctx, status, err.Error())
		return
	}

	switch view {
	case "":
		writeJSON(ctx, fasthttp.StatusOK, s.Situation())
	case "itinerary":
		ctx.SetContentType("text/plain; charset=utf-8")
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString(s.ItineraryText(h.agency))
	default:
		writeError(ctx, fasthttp.StatusNotFound, "Not found")
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	body, _ := json.Marshal(model.ErrorResponse{
		Status:  status,
		Message: message,
	})
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
