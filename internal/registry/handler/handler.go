package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"assetd/internal/platform/middleware"
	"assetd/internal/registry/models"
	id "assetd/pkg/domain"
	dErrors "assetd/pkg/domain-errors"
	"assetd/pkg/platform/httputil"
	"assetd/pkg/requestcontext"
)

// Service defines the registry operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, caller id.AccountID) (*models.Asset, error)
	Transfer(ctx context.Context, caller, to id.AccountID, identity id.Identity) error
	Asset(ctx context.Context, identity id.Identity) (*models.Asset, error)
	OwnedBy(ctx context.Context, account id.AccountID) ([]id.Identity, error)
	TotalCreated(ctx context.Context) (uint32, error)
	MaxOwned() int
}

// Dispatcher runs a mutation as one extrinsic of the current block.
type Dispatcher interface {
	Dispatch(ctx context.Context, fn func(ctx context.Context) error) error
}

// Handler serves the registry API.
type Handler struct {
	registry   Service
	dispatcher Dispatcher
	validator  middleware.CallerValidator
	logger     *slog.Logger
}

// New creates a registry Handler.
func New(registry Service, dispatcher Dispatcher, validator middleware.CallerValidator, logger *slog.Logger) *Handler {
	return &Handler{
		registry:   registry,
		dispatcher: dispatcher,
		validator:  validator,
		logger:     logger,
	}
}

// Register mounts the registry routes. Mutations require a caller token;
// reads are public.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/assets/{identity}", h.handleGetAsset)
		r.Get("/accounts/{account}/assets", h.handleListOwned)
		r.Get("/registry/stats", h.handleStats)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireCaller(h.validator, h.logger))
			r.Post("/assets", h.handleCreate)
			r.Post("/assets/{identity}/transfer", h.handleTransfer)
		})
	})
}

type assetResponse struct {
	Identity  string `json:"identity"`
	Price     uint32 `json:"price"`
	Attribute string `json:"attribute"`
	Owner     string `json:"owner"`
	CreatedAt uint64 `json:"created_at"`
}

func toAssetResponse(a *models.Asset) assetResponse {
	return assetResponse{
		Identity:  a.Identity.String(),
		Price:     a.Price,
		Attribute: a.Attribute.String(),
		Owner:     a.Owner.String(),
		CreatedAt: a.CreatedAt,
	}
}

type transferRequest struct {
	To string `json:"to"`
}

type ownedResponse struct {
	Account string   `json:"account"`
	Assets  []string `json:"assets"`
}

type statsResponse struct {
	TotalCreated uint32 `json:"total_created"`
	MaxOwned     int    `json:"max_owned"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var asset *models.Asset
	err := h.dispatcher.Dispatch(ctx, func(ctx context.Context) error {
		var err error
		asset, err = h.registry.Create(ctx, caller)
		return err
	})
	if err != nil {
		h.writeError(ctx, w, "create asset failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toAssetResponse(asset))
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	identity, err := id.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		h.writeError(ctx, w, "invalid identity", err)
		return
	}
	var req transferRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, "invalid transfer request", err)
		return
	}
	to, err := id.ParseAccountID(req.To)
	if err != nil {
		h.writeError(ctx, w, "invalid recipient", err)
		return
	}

	err = h.dispatcher.Dispatch(ctx, func(ctx context.Context) error {
		return h.registry.Transfer(ctx, caller, to, identity)
	})
	if err != nil {
		h.writeError(ctx, w, "transfer asset failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := id.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		h.writeError(ctx, w, "invalid identity", err)
		return
	}
	asset, err := h.registry.Asset(ctx, identity)
	if err != nil {
		h.writeError(ctx, w, "get asset failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAssetResponse(asset))
}

func (h *Handler) handleListOwned(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		h.writeError(ctx, w, "invalid account", err)
		return
	}
	items, err := h.registry.OwnedBy(ctx, account)
	if err != nil {
		h.writeError(ctx, w, "list owned assets failed", err)
		return
	}
	resp := ownedResponse{Account: account.String(), Assets: make([]string, len(items))}
	for i, item := range items {
		resp.Assets[i] = item.String()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := h.registry.TotalCreated(ctx)
	if err != nil {
		h.writeError(ctx, w, "load stats failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statsResponse{
		TotalCreated: total,
		MaxOwned:     h.registry.MaxOwned(),
	})
}

// writeError logs at warn for client errors and at error for everything else.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if de, ok := dErrors.As(err); !ok || de.Code == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}
