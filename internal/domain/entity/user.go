package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RolePharmacist = "pharmacist"
	RoleTechnician = "technician"
)

// Estados de User.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User representa un usuario de la farmacia. Autoriza o atestigua asientos del registro.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      string // admin, pharmacist, technician
	Status    string // active, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}
