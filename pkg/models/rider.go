package models

// UserRole represents a rider record's role
type UserRole string

const (
	RoleRider        UserRole = "rider"
	RoleDriver       UserRole = "driver"
	RoleSupervisor   UserRole = "supervisor"
	RoleFleetManager UserRole = "fleet-manager"
	RoleAdmin        UserRole = "admin"
)

// Roles lists every known role in display order
var Roles = []UserRole{RoleRider, RoleDriver, RoleSupervisor, RoleFleetManager, RoleAdmin}

// RiderStatusActive is the status of an active account
const RiderStatusActive = "active"

// Rider represents any person known to the system (passengers and staff)
type Rider struct {
	ID        string   `json:"id" db:"id" bson:"_id"`
	Name      string   `json:"name" db:"name" bson:"name"`
	Email     string   `json:"email,omitempty" db:"email" bson:"email,omitempty"`
	Role      UserRole `json:"role" db:"role" bson:"role"`
	Status    string   `json:"status" db:"status" bson:"status"`
	CreatedAt string   `json:"createdAt,omitempty" db:"created_at" bson:"createdAt,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty" db:"updated_at" bson:"updatedAt,omitempty"`
}
