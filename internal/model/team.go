package model

import "time"

// Team is a participating team. Properties is a free-form bag used by hunt
// logic (for example hint credits).
type Team struct {
	TeamID     string            `json:"teamId"`
	Email      string            `json:"email,omitempty"`
	Properties map[string]string `json:"teamProperties"`
}

// User roles understood by the request layer.
const (
	RoleAdmin       = "admin"
	RoleWritingTeam = "writingteam"
)

// User is an authentication principal. The event engine never inspects users.
type User struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the user holds any of roles.
func (u User) HasRole(roles ...string) bool {
	for _, have := range u.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Run is one timed execution of the hunt. StartedAt is nil until the hunt
// has been started.
type Run struct {
	RunID     string     `json:"runId"`
	StartedAt *time.Time `json:"startTimestamp,omitempty"`
}
