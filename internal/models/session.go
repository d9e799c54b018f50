package models

import (
	"fmt"
	"strings"
)

// Plan is the account tier reported by the authentication service.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// ParsePlan normalizes s into a known [Plan].
func ParsePlan(s string) (Plan, error) {
	switch p := Plan(strings.ToLower(strings.TrimSpace(s))); p {
	case PlanFree, PlanPro:
		return p, nil
	default:
		return "", fmt.Errorf("unknown plan %q", s)
	}
}

func (p Plan) String() string { return string(p) }

// Session is the authenticated identity currently active in the client.
type Session struct {
	Token string
	Email string
	Plan  Plan
}

// Valid reports whether every field is present. Partial sessions count as absent.
func (s Session) Valid() bool {
	return s.Token != "" && s.Email != "" && s.Plan != ""
}

// Label renders the account as "email (plan)".
func (s Session) Label() string {
	return fmt.Sprintf("%s (%s)", s.Email, s.Plan)
}

// Credentials is the email/password pair sent to the login and register endpoints.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Complete reports whether both fields are non-empty.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.Email) != "" && c.Password != ""
}
