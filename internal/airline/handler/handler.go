package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"flightsurety/internal/airline/models"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/httputil"
	"flightsurety/pkg/requestcontext"
)

// Service defines the registry operations exposed over HTTP. Every method
// takes the authenticated caller; the service consults the access gate.
type Service interface {
	RegisterCandidate(ctx context.Context, caller, id domain.Address, name string) (*models.Registration, error)
	RecordVote(ctx context.Context, voter, candidate domain.Address) (*models.VoteResult, error)
	PromoteToRegistered(ctx context.Context, caller, id domain.Address) (*models.Airline, error)
	SubmitFunding(ctx context.Context, caller, id domain.Address) (*models.Airline, error)
	Get(ctx context.Context, caller, id domain.Address) (*models.Airline, error)
	HasVoted(ctx context.Context, caller, voter, candidate domain.Address) (bool, error)
	ListRegistered(ctx context.Context, caller domain.Address) ([]domain.Address, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/airlines", h.HandleRegisterCandidate)
	r.Get("/v1/airlines/registered", h.HandleListRegistered)
	r.Get("/v1/airlines/{id}", h.HandleGetAirline)
	r.Post("/v1/airlines/{id}/votes", h.HandleRecordVote)
	r.Get("/v1/airlines/{id}/votes/{voter}", h.HandleHasVoted)
	r.Post("/v1/airlines/{id}/promote", h.HandlePromote)
	r.Post("/v1/airlines/{id}/funding", h.HandleSubmitFunding)
}

func (h *Handler) HandleRegisterCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := httputil.RequireCaller(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.RegisterAirlineRequest](w, r, h.logger)
	if !ok {
		return
	}
	reg, err := h.service.RegisterCandidate(ctx, caller, req.Parsed, req.Name)
	if err != nil {
		h.logFailure(ctx, "register candidate failed", err)
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if reg.Created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, models.RegistrationResponse{
		Airline: models.NewAirlineResponse(reg.Airline),
		Created: reg.Created,
	})
}

func (h *Handler) HandleRecordVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, candidate, ok := h.callerAndAirline(w, r)
	if !ok {
		return
	}
	res, err := h.service.RecordVote(ctx, caller, candidate)
	if err != nil {
		h.logFailure(ctx, "record vote failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.VoteResponse{
		Candidate: res.Candidate.String(),
		Votes:     res.Votes,
		Recorded:  res.Recorded,
	})
}

func (h *Handler) HandlePromote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, id, ok := h.callerAndAirline(w, r)
	if !ok {
		return
	}
	airline, err := h.service.PromoteToRegistered(ctx, caller, id)
	if err != nil {
		h.logFailure(ctx, "promote airline failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewAirlineResponse(airline))
}

func (h *Handler) HandleSubmitFunding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, id, ok := h.callerAndAirline(w, r)
	if !ok {
		return
	}
	airline, err := h.service.SubmitFunding(ctx, caller, id)
	if err != nil {
		h.logFailure(ctx, "submit funding failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewAirlineResponse(airline))
}

func (h *Handler) HandleGetAirline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, id, ok := h.callerAndAirline(w, r)
	if !ok {
		return
	}
	airline, err := h.service.Get(ctx, caller, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewAirlineResponse(airline))
}

func (h *Handler) HandleHasVoted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, candidate, ok := h.callerAndAirline(w, r)
	if !ok {
		return
	}
	voter, err := domain.ParseAddress(chi.URLParam(r, "voter"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid voter address"))
		return
	}
	voted, err := h.service.HasVoted(ctx, caller, voter, candidate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.HasVotedResponse{
		Voter:     voter.String(),
		Candidate: candidate.String(),
		Voted:     voted,
	})
}

func (h *Handler) HandleListRegistered(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := httputil.RequireCaller(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.service.ListRegistered(ctx, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := models.RegisteredListResponse{Airlines: make([]string, 0, len(list))}
	for _, id := range list {
		resp.Airlines = append(resp.Airlines, id.String())
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) callerAndAirline(w http.ResponseWriter, r *http.Request) (domain.Address, domain.Address, bool) {
	caller, err := httputil.RequireCaller(r.Context(), h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return "", "", false
	}
	id, err := domain.ParseAddress(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid airline address"))
		return "", "", false
	}
	return caller, id, true
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	code := dErrors.CodeOf(err)
	level := slog.LevelWarn
	if code.ServerFault() {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"error", err,
		"code", string(code),
		"request_id", requestcontext.RequestID(ctx),
	)
}
