package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"flightsurety/internal/flight/models"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/httputil"
	"flightsurety/pkg/requestcontext"
)

type Service interface {
	RegisterFlight(ctx context.Context, caller, airline domain.Address, code string, timestamp int64) (*models.Flight, error)
	Get(ctx context.Context, caller, airline domain.Address, code string, timestamp int64) (*models.Flight, error)
	ListByAirline(ctx context.Context, caller, airline domain.Address) ([]models.Flight, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/flights", h.HandleRegisterFlight)
	r.Get("/v1/flights/{airline}", h.HandleListFlights)
	r.Get("/v1/flights/{airline}/{code}/{timestamp}", h.HandleGetFlight)
}

func (h *Handler) HandleRegisterFlight(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := httputil.RequireCaller(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.RegisterFlightRequest](w, r, h.logger)
	if !ok {
		return
	}
	flight, err := h.service.RegisterFlight(ctx, caller, req.ParsedAirline, req.Code, *req.Timestamp)
	if err != nil {
		h.logger.WarnContext(ctx, "register flight failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewFlightResponse(flight))
}

func (h *Handler) HandleGetFlight(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := httputil.RequireCaller(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	airline, err := domain.ParseAddress(chi.URLParam(r, "airline"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid airline address"))
		return
	}
	timestamp, err := strconv.ParseInt(chi.URLParam(r, "timestamp"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid timestamp"))
		return
	}
	flight, err := h.service.Get(ctx, caller, airline, chi.URLParam(r, "code"), timestamp)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewFlightResponse(flight))
}

func (h *Handler) HandleListFlights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := httputil.RequireCaller(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	airline, err := domain.ParseAddress(chi.URLParam(r, "airline"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid airline address"))
		return
	}
	flights, err := h.service.ListByAirline(ctx, caller, airline)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := models.FlightListResponse{Flights: make([]models.FlightResponse, 0, len(flights))}
	for i := range flights {
		resp.Flights = append(resp.Flights, models.NewFlightResponse(&flights[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
