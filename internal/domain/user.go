package domain

import "time"

// Role enumerates console roles. Identity itself lives in the external
// provider; the role is owned here.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleOwner   Role = "owner"
	RoleUser    Role = "user"
)

// Valid reports whether the role is known.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleOwner, RoleUser:
		return true
	}
	return false
}

// rank orders roles for promotion decisions.
func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleOwner:
		return 2
	case RoleManager:
		return 1
	default:
		return 0
	}
}

// Outranks reports whether r carries more privileges than other.
func (r Role) Outranks(other Role) bool {
	return r.rank() > other.rank()
}

// Dashboard names the landing view a role is routed to.
type Dashboard string

const (
	DashboardAdmin   Dashboard = "admin"
	DashboardManager Dashboard = "manager"
	DashboardOwner   Dashboard = "owner"
	DashboardUser    Dashboard = "user"
)

// DashboardForRole selects the landing view for a role.
func DashboardForRole(r Role) Dashboard {
	switch r {
	case RoleAdmin:
		return DashboardAdmin
	case RoleManager:
		return DashboardManager
	case RoleOwner:
		return DashboardOwner
	default:
		return DashboardUser
	}
}

// User mirrors an identity-provider account plus its console role.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
