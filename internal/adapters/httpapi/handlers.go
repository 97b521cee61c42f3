package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/bnema/planctl/internal/application"
	"github.com/bnema/planctl/internal/domain"
	"github.com/go-chi/chi/v5"
)

type sessionRequest struct {
	Email string `json:"email"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Summary()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *handler) accounts(w http.ResponseWriter, _ *http.Request) {
	accounts := h.store.Accounts()
	out := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, newAccountResponse(account))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) account(w http.ResponseWriter, r *http.Request) {
	email, err := application.NormalizeEmail(chi.URLParam(r, "email"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	account, ok := h.store.Account(email)
	if !ok {
		h.writeError(w, r, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, email))
		return
	}
	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	account, err := h.store.Login(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Logout(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// impersonate sets the viewing-as account. An empty email clears it.
func (h *handler) impersonate(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	email := ""
	if req.Email != "" {
		normalized, err := application.NormalizeEmail(req.Email)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if _, ok := h.store.Account(normalized); !ok {
			h.writeError(w, r, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, normalized))
			return
		}
		email = normalized
	}
	h.store.SetImpersonatedUser(email)
	h.summary(w, r)
}

func (h *handler) quotePro(w http.ResponseWriter, r *http.Request) {
	interval, err := domain.ParseBillingInterval(r.URL.Query().Get("interval"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	quote, err := h.checkout.QuotePro(r.URL.Query().Get("tier"), interval)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tier":               quote.Tier.Name,
		"credits":            quote.Tier.Credits,
		"interval":           quote.Interval,
		"price":              quote.Price,
		"monthly_equivalent": quote.MonthlyEquivalent,
	})
}

func (h *handler) quoteTeams(w http.ResponseWriter, r *http.Request) {
	seats, err := strconv.Atoi(r.URL.Query().Get("seats"))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: seats must be a number", domain.ErrInvalidSeats))
		return
	}
	quote, err := h.checkout.QuoteTeams(r.URL.Query().Get("tier"), seats)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tier":                 quote.Tier.Name,
		"credits":              quote.Tier.Credits,
		"seats":                quote.Seats,
		"monthly_cost":         quote.MonthlyCost,
		"avg_credits_per_seat": quote.AvgCreditsPerSeat,
		"below_recommended":    quote.BelowRecommended,
	})
}
