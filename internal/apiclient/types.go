package apiclient

import "strings"

// Role is a platform role such as "applicant" or "platform_admin".
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsTeamBased bool   `json:"isTeamBased"`
}

// Team scopes a team-based role assignment.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoleAssignment grants Role, optionally within Team.
type RoleAssignment struct {
	ID   string `json:"id"`
	Role *Role  `json:"role"`
	Team *Team  `json:"team,omitempty"`
}

// User is the authenticated caller as reported by the API.
type User struct {
	ID              string           `json:"id"`
	Email           string           `json:"email"`
	FirstName       string           `json:"firstName"`
	LastName        string           `json:"lastName"`
	RoleAssignments []RoleAssignment `json:"roleAssignments"`
}

// RoleNames returns the distinct role names assigned to u, in assignment order.
func (u *User) RoleNames() []string {
	if u == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, ra := range u.RoleAssignments {
		if ra.Role == nil || ra.Role.Name == "" || seen[ra.Role.Name] {
			continue
		}
		seen[ra.Role.Name] = true
		names = append(names, ra.Role.Name)
	}
	return names
}

// HasAnyRole reports whether u holds at least one of roles.
func (u *User) HasAnyRole(roles ...string) bool {
	for _, have := range u.RoleNames() {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// DisplayName returns the full name, or the email when no name is set.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Email
}
