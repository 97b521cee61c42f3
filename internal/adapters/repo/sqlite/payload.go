package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bnema/planctl/internal/domain"
	"github.com/shopspring/decimal"
)

// planPayload is the JSON stored in accounts.plan_payload. Only the block
// matching the account's plan column is set.
type planPayload struct {
	Pro   *proPayload   `json:"pro,omitempty"`
	Teams *teamsPayload `json:"teams,omitempty"`
}

type proPayload struct {
	Name            string          `json:"name"`
	MonthlyCredits  int64           `json:"monthly_credits"`
	Price           decimal.Decimal `json:"price"`
	BillingInterval string          `json:"billing_interval"`
}

type teamsPayload struct {
	TeamName          string                `json:"team_name"`
	PlanName          string                `json:"plan_name"`
	Seats             int                   `json:"seats"`
	MonthlyCredits    int64                 `json:"monthly_credits"`
	SharedCredits     int64                 `json:"shared_credits"`
	SharedCreditsUsed int64                 `json:"shared_credits_used"`
	ExtraCredits      int64                 `json:"extra_credits"`
	Members           []domain.TeamMember   `json:"members"`
	BillingAdmins     []domain.BillingAdmin `json:"billing_admins"`
}

func encodePlan(plan domain.Plan) (string, error) {
	var payload planPayload
	switch p := plan.(type) {
	case domain.ProPlan:
		payload.Pro = &proPayload{
			Name:            p.Name,
			MonthlyCredits:  p.MonthlyCredits,
			Price:           p.Price,
			BillingInterval: string(p.BillingInterval),
		}
	case domain.TeamsPlan:
		payload.Teams = &teamsPayload{
			TeamName:          p.TeamName,
			PlanName:          p.PlanName,
			Seats:             p.Seats,
			MonthlyCredits:    p.MonthlyCredits,
			SharedCredits:     p.SharedCredits,
			SharedCreditsUsed: p.SharedCreditsUsed,
			ExtraCredits:      p.ExtraCredits,
			Members:           p.Members,
			BillingAdmins:     p.BillingAdmins,
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode plan payload: %w", err)
	}
	return string(data), nil
}

func decodePlan(tier domain.PlanTier, raw string) (domain.Plan, error) {
	var payload planPayload
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return nil, fmt.Errorf("decode plan payload: %w", err)
		}
	}

	switch tier {
	case domain.TierPro:
		if payload.Pro == nil {
			return nil, fmt.Errorf("pro account without pro plan")
		}
		return domain.ProPlan{
			Name:            payload.Pro.Name,
			MonthlyCredits:  payload.Pro.MonthlyCredits,
			Price:           payload.Pro.Price,
			BillingInterval: domain.BillingInterval(payload.Pro.BillingInterval),
		}, nil
	case domain.TierTeams:
		if payload.Teams == nil {
			return nil, fmt.Errorf("teams account without teams plan")
		}
		t := payload.Teams
		team := domain.TeamsPlan{
			TeamName:          t.TeamName,
			PlanName:          t.PlanName,
			Seats:             t.Seats,
			MonthlyCredits:    t.MonthlyCredits,
			SharedCredits:     t.SharedCredits,
			SharedCreditsUsed: t.SharedCreditsUsed,
			ExtraCredits:      t.ExtraCredits,
			Members:           t.Members,
			BillingAdmins:     t.BillingAdmins,
		}
		if team.Members == nil {
			team.Members = []domain.TeamMember{}
		}
		if team.BillingAdmins == nil {
			team.BillingAdmins = []domain.BillingAdmin{}
		}
		for i := range team.Members {
			team.Members[i].JoinedAt = team.Members[i].JoinedAt.UTC()
		}
		for i := range team.BillingAdmins {
			team.BillingAdmins[i].InvitedAt = team.BillingAdmins[i].InvitedAt.UTC()
			team.BillingAdmins[i].AcceptedAt = team.BillingAdmins[i].AcceptedAt.UTC()
		}
		return team, nil
	default:
		return domain.FreePlan{}, nil
	}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", raw, err)
	}
	return parsed.UTC(), nil
}
