package model

import "time"

// User is the authenticated account as reported by the ScriptLyze API.
// It is replaced wholesale on every fetch; nothing merges into it locally.
type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Username          string    `json:"username,omitempty"`
	Plan              Plan      `json:"plan"`
	AnalysesThisMonth int       `json:"analyses_this_month"`
	TotalAnalyses     int       `json:"total_analyses"`
	CreatedAt         time.Time `json:"created_at"`
}

// RemainingAnalyses returns how many analyses are left this month under the
// user's plan. Informational only; the server enforces the quota.
func (u User) RemainingAnalyses() int {
	remaining := u.Plan.Limit() - u.AnalysesThisMonth
	if remaining < 0 {
		return 0
	}
	return remaining
}
