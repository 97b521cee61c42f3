package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/bnema/planctl/internal/application"
	"github.com/bnema/planctl/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// actionRequest is the union of every action's parameters. Each action reads
// only the fields it needs.
type actionRequest struct {
	Email          string          `json:"email"`
	Credits        int64           `json:"credits"`
	Price          decimal.Decimal `json:"price"`
	Seats          int             `json:"seats"`
	PlanName       string          `json:"plan_name"`
	MonthlyCredits int64           `json:"monthly_credits"`
	SharedCredits  int64           `json:"shared_credits"`
	CreditLimit    *int64          `json:"credit_limit"`
	Tier           string          `json:"tier"`
	Interval       string          `json:"interval"`
	TeamName       string          `json:"team_name"`
	Description    string          `json:"description"`
	Status         string          `json:"status"`
	Type           string          `json:"type"`
	Date           time.Time       `json:"date"`
	Bundles        map[int64]int   `json:"bundles"`
}

type actionFunc func(ctx context.Context, req actionRequest) error

func (h *handler) actions() map[string]actionFunc {
	s, c := h.store, h.checkout
	return map[string]actionFunc{
		"upgrade-to-pro": func(ctx context.Context, req actionRequest) error {
			return s.UpgradeToProPlan(ctx, req.proPlan())
		},
		"upgrade-pro": func(ctx context.Context, req actionRequest) error {
			return s.UpgradePro(ctx, req.proPlan())
		},
		"upgrade-to-teams": func(ctx context.Context, req actionRequest) error {
			shared := req.SharedCredits
			if shared == 0 {
				shared = req.MonthlyCredits
			}
			return s.UpgradeToTeamsPlan(ctx, domain.TeamsPlan{
				TeamName:       req.TeamName,
				PlanName:       req.PlanName,
				Seats:          req.Seats,
				MonthlyCredits: req.MonthlyCredits,
				SharedCredits:  shared,
			})
		},
		"update-team-plan-and-seats": func(ctx context.Context, req actionRequest) error {
			return s.UpdateTeamPlanAndSeats(ctx, req.PlanName, req.MonthlyCredits, req.Price, req.Seats)
		},
		"update-team-plan": func(ctx context.Context, req actionRequest) error {
			return s.UpdateTeamPlanOnly(ctx, req.PlanName, req.MonthlyCredits, req.Price)
		},
		"update-team-seats": func(ctx context.Context, req actionRequest) error {
			return s.UpdateTeamSeats(ctx, req.Seats)
		},
		"update-team-seats-only": func(ctx context.Context, req actionRequest) error {
			return s.UpdateTeamSeatsOnly(ctx, req.Seats)
		},
		"cancel-pro": func(ctx context.Context, _ actionRequest) error {
			return s.CancelProPlan(ctx)
		},
		"cancel-teams": func(ctx context.Context, _ actionRequest) error {
			return s.CancelTeamsPlan(ctx)
		},
		"reactivate-pro": func(ctx context.Context, _ actionRequest) error {
			return s.ReactivateProPlan(ctx)
		},
		"reactivate-teams": func(ctx context.Context, _ actionRequest) error {
			return s.ReactivateTeamsPlan(ctx)
		},
		"process-billing-cycle": func(ctx context.Context, req actionRequest) error {
			return s.ProcessBillingCycle(ctx, req.Email)
		},
		"process-billing-cycle-teams": func(ctx context.Context, _ actionRequest) error {
			return s.ProcessBillingCycleTeams(ctx)
		},
		"delete-team": func(ctx context.Context, _ actionRequest) error {
			return s.DeleteTeam(ctx)
		},
		"add-team-member": func(ctx context.Context, req actionRequest) error {
			return s.AddTeamMember(ctx, req.Email, req.CreditLimit)
		},
		"remove-team-member": func(ctx context.Context, req actionRequest) error {
			return s.RemoveTeamMember(ctx, req.Email)
		},
		"make-team-owner": func(ctx context.Context, req actionRequest) error {
			return s.MakeTeamOwner(ctx, req.Email)
		},
		"transfer-team-ownership": func(ctx context.Context, req actionRequest) error {
			return s.TransferTeamOwnership(ctx, req.Email)
		},
		"mark-member-active": func(ctx context.Context, req actionRequest) error {
			return s.MarkMemberAsActive(ctx, req.Email)
		},
		"invite-billing-admin": func(ctx context.Context, req actionRequest) error {
			return s.InviteBillingAdmin(ctx, req.Email)
		},
		"remove-billing-admin": func(ctx context.Context, req actionRequest) error {
			return s.RemoveBillingAdmin(ctx, req.Email)
		},
		"accept-billing-admin-invite": func(ctx context.Context, req actionRequest) error {
			return s.AcceptBillingAdminInvite(ctx, req.Email)
		},
		"mark-billing-admin-active": func(ctx context.Context, req actionRequest) error {
			return s.MarkBillingAdminAsActive(ctx, req.Email)
		},
		"convert-member-to-billing-admin": func(ctx context.Context, req actionRequest) error {
			return s.ConvertMemberToBillingAdmin(ctx, req.Email)
		},
		"convert-billing-admin-to-member": func(ctx context.Context, req actionRequest) error {
			return s.ConvertBillingAdminToMember(ctx, req.Email, req.CreditLimit)
		},
		"buy-credits": func(ctx context.Context, req actionRequest) error {
			return s.BuyCredits(ctx, req.Credits, req.Price)
		},
		"buy-extra-credits": func(ctx context.Context, req actionRequest) error {
			return s.BuyExtraCredits(ctx, req.Credits, req.Price)
		},
		"burn-credits": func(ctx context.Context, req actionRequest) error {
			return s.BurnCredits(ctx, req.Credits)
		},
		"add-invoice": func(ctx context.Context, req actionRequest) error {
			_, err := s.AddInvoice(ctx, application.NewInvoice{
				Date:        req.Date,
				Amount:      req.Price,
				Description: req.Description,
				Status:      domain.InvoiceStatus(req.Status),
			})
			return err
		},
		"add-credit-transaction": func(ctx context.Context, req actionRequest) error {
			return s.AddCreditTransaction(ctx, domain.TransactionType(req.Type), req.Credits, req.Description)
		},
		"subscribe-pro": func(ctx context.Context, req actionRequest) error {
			return c.SubscribePro(ctx, req.Tier, domain.BillingInterval(req.Interval))
		},
		"change-pro-tier": func(ctx context.Context, req actionRequest) error {
			return c.ChangeProTier(ctx, req.Tier, domain.BillingInterval(req.Interval))
		},
		"subscribe-teams": func(ctx context.Context, req actionRequest) error {
			return c.SubscribeTeams(ctx, req.Tier, req.Seats, req.TeamName)
		},
		"change-team": func(ctx context.Context, req actionRequest) error {
			return c.ChangeTeam(ctx, req.Tier, req.Seats)
		},
		"purchase-credit-bundle": func(ctx context.Context, req actionRequest) error {
			return c.PurchaseCreditBundle(ctx, req.Credits)
		},
		"purchase-extra-bundles": func(ctx context.Context, req actionRequest) error {
			return c.PurchaseExtraBundles(ctx, req.Bundles)
		},
	}
}

func (req actionRequest) proPlan() domain.ProPlan {
	return domain.ProPlan{
		Name:            req.PlanName,
		MonthlyCredits:  req.MonthlyCredits,
		Price:           req.Price,
		BillingInterval: domain.BillingInterval(req.Interval),
	}
}

// ActionNames lists the actions accepted by POST /v1/actions/{action}.
func ActionNames() []string {
	names := make([]string, 0, 40)
	for name := range (&handler{}).actions() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func listActions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"actions": ActionNames()})
}

func (h *handler) action(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "action")
	run, ok := h.actions()[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("unknown action %q", name)})
		return
	}

	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := run(r.Context(), req); err != nil {
		h.writeError(w, r, err)
		return
	}

	summary, err := h.store.Summary()
	if err != nil {
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
