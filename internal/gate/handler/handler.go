package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"flightsurety/internal/gate"
	"flightsurety/internal/gate/models"
	jwttoken "flightsurety/internal/jwt_token"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/httputil"
	adminmw "flightsurety/pkg/platform/middleware/admin"
	"flightsurety/pkg/requestcontext"
)

// Service is the gate surface the admin API needs.
type Service interface {
	gate.Checker
	Owner() domain.Address
	State(ctx context.Context) (*models.State, error)
	SetOperational(ctx context.Context, caller domain.Address, operational bool) (*models.State, error)
	Authorize(ctx context.Context, caller, target domain.Address) (bool, error)
	Deauthorize(ctx context.Context, caller, target domain.Address) (bool, error)
	ListAuthorized(ctx context.Context) ([]models.AuthorizedCaller, error)
}

type TokenIssuer interface {
	IssueCallerToken(ctx context.Context, caller domain.Address, ttl time.Duration) (*jwttoken.IssuedToken, error)
}

type Handler struct {
	service Service
	tokens  TokenIssuer
	logger  *slog.Logger
}

func New(service Service, tokens TokenIssuer, logger *slog.Logger) *Handler {
	return &Handler{service: service, tokens: tokens, logger: logger}
}

// Register mounts the caller-authenticated admin routes. Owner checks happen
// in the service.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/admin/operational", h.HandleGetOperational)
	r.Put("/v1/admin/operational", h.HandleSetOperational)
	r.Get("/v1/admin/callers", h.HandleListCallers)
	r.Post("/v1/admin/callers", h.HandleAuthorize)
	r.Delete("/v1/admin/callers/{id}", h.HandleDeauthorize)
}

// RegisterTokens mounts token minting, which sits behind the admin token
// alone so the owner can bootstrap its first bearer token.
func (h *Handler) RegisterTokens(r chi.Router) {
	r.Post("/v1/admin/tokens", h.HandleIssueToken)
}

func (h *Handler) HandleGetOperational(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := httputil.RequireCaller(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Check(ctx, caller, gate.ModeRead); err != nil {
		httputil.WriteError(w, err)
		return
	}
	state, err := h.service.State(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "read operational flag failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewStateResponse(state))
}

func (h *Handler) HandleSetOperational(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := httputil.RequireCaller(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.SetOperationalRequest](w, r, h.logger)
	if !ok {
		return
	}
	state, err := h.service.SetOperational(ctx, caller, *req.Operational)
	if err != nil {
		h.logger.WarnContext(ctx, "set operational failed",
			"error", err,
			"caller", caller.String(),
			"admin_actor", adminmw.GetAdminActorID(ctx),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewStateResponse(state))
}

func (h *Handler) HandleListCallers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := httputil.RequireCaller(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Check(ctx, caller, gate.ModeRead); err != nil {
		httputil.WriteError(w, err)
		return
	}
	callers, err := h.service.ListAuthorized(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list callers failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	owner := h.service.Owner()
	resp := models.CallersResponse{Callers: make([]models.CallerResponse, 0, len(callers))}
	for _, c := range callers {
		resp.Callers = append(resp.Callers, models.CallerResponse{
			Address:      c.Address.String(),
			AuthorizedBy: c.AuthorizedBy.String(),
			AuthorizedAt: c.AuthorizedAt,
			Owner:        c.Address == owner,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := httputil.RequireCaller(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.AuthorizeCallerRequest](w, r, h.logger)
	if !ok {
		return
	}
	added, err := h.service.Authorize(ctx, caller, req.Parsed)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, models.ChangeResponse{Address: req.Parsed.String(), Changed: added})
}

func (h *Handler) HandleDeauthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := httputil.RequireCaller(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	target, err := domain.ParseAddress(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid caller address"))
		return
	}
	removed, err := h.service.Deauthorize(ctx, caller, target)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ChangeResponse{Address: target.String(), Changed: removed})
}

func (h *Handler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.IssueTokenRequest](w, r, h.logger)
	if !ok {
		return
	}
	issued, err := h.tokens.IssueCallerToken(ctx, req.Parsed, req.ParsedTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "issue caller token failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "caller token issued",
		"subject", req.Parsed.String(),
		"jti", issued.JTI,
		"admin_actor", adminmw.GetAdminActorID(ctx),
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusCreated, models.TokenResponse{
		AccessToken: issued.Token,
		TokenType:   "Bearer",
		Subject:     req.Parsed.String(),
		ExpiresAt:   issued.ExpiresAt,
	})
}
