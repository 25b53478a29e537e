package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/skinshelf/internal/apperr"
	"github.com/thebtf/skinshelf/internal/identity"
	"github.com/thebtf/skinshelf/internal/lookup"
	"github.com/thebtf/skinshelf/internal/worker/session"
	"github.com/thebtf/skinshelf/pkg/models"
)

type ctxKey int

const workspaceKey ctxKey = iota

// SessionResponse describes an opened session.
type SessionResponse struct {
	UserID   string                    `json:"userId"`
	State    models.LoadState          `json:"state"`
	Message  string                    `json:"message,omitempty"`
	Products []models.Product          `json:"products"`
	History  []models.ViewHistoryEntry `json:"history"`
}

// ProductsResponse carries the current product list.
type ProductsResponse struct {
	Products []models.Product `json:"products"`
}

// HistoryResponse carries the view history, newest first.
type HistoryResponse struct {
	History []models.ViewHistoryEntry `json:"history"`
}

// DetailsResponse is the reply of POST /api/details.
type DetailsResponse struct {
	Details string                    `json:"details"`
	Error   string                    `json:"error,omitempty"`
	History []models.ViewHistoryEntry `json:"history,omitempty"`
}

// AddProductRequest is the body of POST /api/products.
type AddProductRequest struct {
	Name  string    `json:"name"`
	Price PriceText `json:"price"`
}

// PriceText accepts a price as a JSON string or number and keeps its text.
type PriceText string

// UnmarshalJSON implements json.Unmarshaler.
func (p *PriceText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PriceText(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	*p = PriceText(data)
	return nil
}

func workspaceFrom(ctx context.Context) *session.Workspace {
	ws, _ := ctx.Value(workspaceKey).(*session.Workspace)
	return ws
}

// requireSession resolves the caller's open workspace.
func (s *Service) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identity.FromRequest(r)
		if id == "" {
			writeError(w, r, apperr.New(apperr.KindAuth, "worker.requireSession", apperr.MsgAuthFailed))
			return
		}
		ws, err := s.sessionManager.Get(id)
		if errors.Is(err, session.ErrNoSession) {
			ws, err = s.reopen(r.Context(), id)
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), workspaceKey, ws)))
	})
}

// reopen loads the workspace of a still-active session whose workspace was
// closed, for example by the idle sweep.
func (s *Service) reopen(ctx context.Context, id string) (*session.Workspace, error) {
	sess, err := s.identity.Resolve(ctx, id)
	switch {
	case errors.Is(err, identity.ErrUnknownSession):
		return nil, apperr.Wrap(apperr.KindAuth, "worker.requireSession", apperr.MsgAuthFailed, err)
	case err != nil:
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	log.Debug().Str("userId", sess.ID).Msg("Reopening workspace")
	return s.sessionManager.Open(ctx, sess.ID)
}

// handleHealth reports liveness.
//
//	@Summary	Health check
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/health [get]
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.version,
		"uptime":   time.Since(s.startTime).Round(time.Second).String(),
		"sessions": s.sessionManager.Count(),
	})
}

// handleReady reports whether the worker accepts traffic.
//
//	@Summary	Readiness check
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/api/ready [get]
func (s *Service) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	if s.store != nil {
		if err := s.store.Ping(); err != nil {
			log.Warn().Err(err).Msg("Store ping failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleDetailLookup is the detail-lookup boundary.
//
//	@Summary	Describe products
//	@Tags		details
//	@Accept		json
//	@Produce	json
//	@Param		request	body		lookup.DetailRequest	true	"Products to describe"
//	@Success	200		{object}	lookup.DetailResponse
//	@Failure	405		{object}	ErrorResponse
//	@Failure	500		{object}	ErrorResponse
//	@Router		/detail-lookup [post]
func (s *Service) handleDetailLookup(w http.ResponseWriter, r *http.Request) {
	if s.detail == nil {
		log.Error().Msg("Detail lookup requested but no completion client is configured")
		writeJSON(w, http.StatusInternalServerError, lookup.DetailResponse{Error: msgInternal})
		return
	}

	var req lookup.DetailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Malformed detail-lookup body")
		writeJSON(w, http.StatusInternalServerError, lookup.DetailResponse{Error: msgInternal})
		return
	}

	details, err := s.detail.Details(r.Context(), req.Products, req.UserID)
	if err != nil {
		log.Error().Err(err).Str("userId", req.UserID).Int("products", len(req.Products)).Msg("Detail lookup failed")
		writeJSON(w, http.StatusInternalServerError, lookup.DetailResponse{Error: msgInternal})
		return
	}

	writeJSON(w, http.StatusOK, lookup.DetailResponse{Details: details})
}

// handleOpenSession issues or resumes the caller's session and loads its workspace.
//
//	@Summary	Open session
//	@Tags		session
//	@Produce	json
//	@Success	200	{object}	SessionResponse
//	@Failure	401	{object}	ErrorResponse
//	@Router		/api/session [post]
func (s *Service) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.identity.GetOrCreate(r.Context(), identity.FromRequest(r))
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.KindAuth, "worker.openSession", apperr.MsgAuthFailed, err))
		return
	}
	identity.SetCookie(w, r, sess.ID)

	ws, err := s.sessionManager.Open(r.Context(), sess.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(ws))
}

// handleReload re-runs the workspace load pipeline.
//
//	@Summary	Reload products and history
//	@Tags		session
//	@Produce	json
//	@Success	200	{object}	SessionResponse
//	@Failure	401	{object}	ErrorResponse
//	@Router		/api/reload [post]
func (s *Service) handleReload(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	// A failed reload is reported through the state, not the status.
	_ = ws.Reload(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse(ws))
}

func sessionResponse(ws *session.Workspace) SessionResponse {
	state, msg := ws.State()
	return SessionResponse{
		UserID:   ws.UserID,
		State:    state,
		Message:  msg,
		Products: nonNil(ws.Products()),
		History:  nonNil(ws.History()),
	}
}

// handleListProducts returns the shelf.
//
//	@Summary	List products
//	@Tags		products
//	@Produce	json
//	@Success	200	{object}	ProductsResponse
//	@Failure	401	{object}	ErrorResponse
//	@Router		/api/products [get]
func (s *Service) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	writeJSON(w, http.StatusOK, ProductsResponse{Products: nonNil(ws.Products())})
}

// handleAddProduct adds a product to the shelf.
//
//	@Summary	Add product
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		request	body		AddProductRequest	true	"Product"
//	@Success	201		{object}	ProductsResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Failure	500		{object}	ErrorResponse
//	@Router		/api/products [post]
func (s *Service) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	var req AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.Wrap(apperr.KindValidation, "worker.addProduct", apperr.MsgValidation, err))
		return
	}

	products, err := ws.Add(r.Context(), req.Name, string(req.Price))
	s.metrics.mutation(r.Context(), "add", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ProductsResponse{Products: nonNil(products)})
}

// handleDeleteProduct removes a product by name.
//
//	@Summary	Delete product
//	@Tags		products
//	@Produce	json
//	@Param		name	path		string	true	"Product name"
//	@Success	200		{object}	ProductsResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	500		{object}	ErrorResponse
//	@Router		/api/products/{name} [delete]
func (s *Service) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}

	products, err := ws.Delete(r.Context(), name)
	s.metrics.mutation(r.Context(), "delete", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProductsResponse{Products: nonNil(products)})
}

// handleFetchDetails looks up details for the current shelf.
//
//	@Summary	Fetch product details
//	@Tags		details
//	@Produce	json
//	@Success	200	{object}	DetailsResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	409	{object}	ErrorResponse
//	@Failure	502	{object}	DetailsResponse
//	@Router		/api/details [post]
func (s *Service) handleFetchDetails(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	res, err := ws.FetchDetails(r.Context())
	switch {
	case errors.Is(err, apperr.ErrService):
		log.Warn().Err(err).Str("userId", ws.UserID).Msg("Detail lookup failed")
		writeJSON(w, http.StatusBadGateway, DetailsResponse{
			Details: res.Details,
			Error:   apperr.UserMessage(err),
		})
	case err != nil:
		writeError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, DetailsResponse{
			Details: res.Details,
			History: nonNil(ws.History()),
		})
	}
}

// handleHistory returns the view history, newest first.
//
//	@Summary	View history
//	@Tags		details
//	@Produce	json
//	@Success	200	{object}	HistoryResponse
//	@Failure	401	{object}	ErrorResponse
//	@Router		/api/history [get]
func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	writeJSON(w, http.StatusOK, HistoryResponse{History: nonNil(ws.History())})
}

// handleEvents streams the session's change events.
//
//	@Summary	Session change events
//	@Tags		session
//	@Produce	text/event-stream
//	@Router		/api/events [get]
func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	s.sseBroadcaster.HandleSSE(w, r, ws.UserID)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
