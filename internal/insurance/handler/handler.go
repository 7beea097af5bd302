package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	flightmodels "flightsurety/internal/flight/models"
	"flightsurety/internal/insurance/models"
	"flightsurety/internal/keys"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/httputil"
	"flightsurety/pkg/requestcontext"
)

type Service interface {
	BuyPolicy(ctx context.Context, caller, airline domain.Address, code string, insuree domain.Address, amount uint64) (*models.Purchase, error)
	CreditInsurees(ctx context.Context, caller, airline domain.Address, code string, multiplier uint64) (*models.Settlement, error)
	Withdraw(ctx context.Context, caller, insuree domain.Address) (*models.Withdrawal, error)
	PoliciesFor(ctx context.Context, caller, airline domain.Address, code string) (keys.Key, []models.Policy, error)
	CreditBalance(ctx context.Context, caller, insuree domain.Address) (uint64, error)
	Withdrawals(ctx context.Context, caller, insuree domain.Address) ([]models.Withdrawal, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/policies", h.HandleBuyPolicy)
	r.Get("/v1/policies/{airline}/{code}", h.HandlePolicies)
	r.Post("/v1/policies/{airline}/{code}/credit", h.HandleCreditInsurees)
	r.Get("/v1/credits/{insuree}", h.HandleBalance)
	r.Post("/v1/credits/{insuree}/withdraw", h.HandleWithdraw)
	r.Get("/v1/credits/{insuree}/withdrawals", h.HandleWithdrawals)
}

func (h *Handler) HandleBuyPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := httputil.RequireCaller(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.BuyPolicyRequest](w, r, h.logger)
	if !ok {
		return
	}
	purchase, err := h.service.BuyPolicy(ctx, caller, req.ParsedAirline, req.Code, req.ParsedInsuree, *req.Amount)
	if err != nil {
		h.logFailure(ctx, "buy policy failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.PurchaseResponse{
		PolicyKey: purchase.Key.String(),
		Policy:    models.NewPolicyResponse(purchase.Policy),
	})
}

func (h *Handler) HandlePolicies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, airline, code, ok := h.flightParams(w, r)
	if !ok {
		return
	}
	key, policies, err := h.service.PoliciesFor(ctx, caller, airline, code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewPolicyListResponse(key.String(), policies))
}

func (h *Handler) HandleCreditInsurees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, airline, code, ok := h.flightParams(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.CreditInsureesRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.service.CreditInsurees(ctx, caller, airline, code, *req.Multiplier)
	if err != nil {
		h.logFailure(ctx, "credit insurees failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewSettlementResponse(result))
}

func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, insuree, ok := h.insureeParams(w, r)
	if !ok {
		return
	}
	bal, err := h.service.CreditBalance(ctx, caller, insuree)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.BalanceResponse{Insuree: insuree.String(), Balance: bal})
}

func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, insuree, ok := h.insureeParams(w, r)
	if !ok {
		return
	}
	withdrawal, err := h.service.Withdraw(ctx, caller, insuree)
	if err != nil {
		h.logFailure(ctx, "withdraw failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewWithdrawalResponse(withdrawal))
}

func (h *Handler) HandleWithdrawals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, insuree, ok := h.insureeParams(w, r)
	if !ok {
		return
	}
	list, err := h.service.Withdrawals(ctx, caller, insuree)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := models.WithdrawalListResponse{Withdrawals: make([]models.WithdrawalResponse, 0, len(list))}
	for i := range list {
		resp.Withdrawals = append(resp.Withdrawals, models.NewWithdrawalResponse(&list[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) flightParams(w http.ResponseWriter, r *http.Request) (domain.Address, domain.Address, string, bool) {
	caller, err := httputil.RequireCaller(r.Context(), h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return "", "", "", false
	}
	airline, err := domain.ParseAddress(chi.URLParam(r, "airline"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid airline address"))
		return "", "", "", false
	}
	code := chi.URLParam(r, "code")
	if err := flightmodels.ValidateCode(code); err != nil {
		httputil.WriteError(w, err)
		return "", "", "", false
	}
	return caller, airline, code, true
}

func (h *Handler) insureeParams(w http.ResponseWriter, r *http.Request) (domain.Address, domain.Address, bool) {
	caller, err := httputil.RequireCaller(r.Context(), h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return "", "", false
	}
	insuree, err := domain.ParseAddress(chi.URLParam(r, "insuree"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid insuree address"))
		return "", "", false
	}
	return caller, insuree, true
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
