package models

import "time"

type PolicyResponse struct {
	Insuree     string    `json:"insuree"`
	Amount      uint64    `json:"amount"`
	PurchasedAt time.Time `json:"purchased_at"`
}

type PurchaseResponse struct {
	PolicyKey string         `json:"policy_key"`
	Policy    PolicyResponse `json:"policy"`
}

type PolicyListResponse struct {
	PolicyKey string           `json:"policy_key"`
	Policies  []PolicyResponse `json:"policies"`
}

type CreditResponse struct {
	Insuree string `json:"insuree"`
	Amount  uint64 `json:"amount"`
	Payout  uint64 `json:"payout"`
}

type SettlementResponse struct {
	PolicyKey  string           `json:"policy_key"`
	Multiplier uint64           `json:"multiplier"`
	Credits    []CreditResponse `json:"credits"`
	Total      uint64           `json:"total"`
}

type BalanceResponse struct {
	Insuree string `json:"insuree"`
	Balance uint64 `json:"balance"`
}

type WithdrawalResponse struct {
	ID            string     `json:"id"`
	Insuree       string     `json:"insuree"`
	Amount        uint64     `json:"amount"`
	Status        string     `json:"status"`
	Reference     string     `json:"reference,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	SettledAt     *time.Time `json:"settled_at,omitempty"`
}

type WithdrawalListResponse struct {
	Withdrawals []WithdrawalResponse `json:"withdrawals"`
}

func NewPolicyResponse(p Policy) PolicyResponse {
	return PolicyResponse{Insuree: p.Insuree.String(), Amount: p.Amount, PurchasedAt: p.PurchasedAt}
}

func NewPolicyListResponse(key string, policies []Policy) PolicyListResponse {
	out := PolicyListResponse{PolicyKey: key, Policies: make([]PolicyResponse, 0, len(policies))}
	for _, p := range policies {
		out.Policies = append(out.Policies, NewPolicyResponse(p))
	}
	return out
}

func NewSettlementResponse(s *Settlement) SettlementResponse {
	out := SettlementResponse{
		PolicyKey:  s.Key.String(),
		Multiplier: s.Multiplier,
		Credits:    make([]CreditResponse, 0, len(s.Credits)),
		Total:      s.Total,
	}
	for _, c := range s.Credits {
		out.Credits = append(out.Credits, CreditResponse{Insuree: c.Insuree.String(), Amount: c.Amount, Payout: c.Payout})
	}
	return out
}

func NewWithdrawalResponse(w *Withdrawal) WithdrawalResponse {
	out := WithdrawalResponse{
		ID:            w.ID.String(),
		Insuree:       w.Insuree.String(),
		Amount:        w.Amount,
		Status:        string(w.Status),
		Reference:     w.Reference,
		FailureReason: w.FailureReason,
		CreatedAt:     w.CreatedAt,
	}
	if !w.SettledAt.IsZero() {
		settled := w.SettledAt
		out.SettledAt = &settled
	}
	return out
}
