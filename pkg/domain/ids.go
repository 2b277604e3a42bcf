// Package domain holds the identifier and value types shared across the
// ledger core, the role authority, and the forensic hub. Keep it free of
// service dependencies so every layer can import it.
package domain

// Address identifies an account, a policy module, or a logic implementation.
// It is treated as an opaque string; the core never interprets its contents.
type Address string

// ZeroAddress is the null endpoint used for mint (from) and burn (to).
const ZeroAddress Address = ""

// IsZero reports whether the address is the null endpoint.
func (a Address) IsZero() bool { return a == ZeroAddress }

func (a Address) String() string { return string(a) }

// RoleID names a capability bucket. Holders of a role may invoke the
// corresponding privileged operations.
type RoleID string

const (
	// RoleAdmin is the root role. It administers every other role and owns
	// the emergency halt switch and configuration toggles.
	RoleAdmin RoleID = "role.admin"

	// RoleUpgrader may propose, approve, and execute logic upgrades.
	RoleUpgrader RoleID = "role.upgrader"

	// RoleMinter may issue new units up to the supply cap.
	RoleMinter RoleID = "role.minter"

	// RoleBurner may retire units from any balance.
	RoleBurner RoleID = "role.burner"

	// RoleOperator may move funds on behalf of third-party accounts.
	RoleOperator RoleID = "role.operator"
)

// Valid reports whether the role is one the system knows about.
func (r RoleID) Valid() bool {
	switch r {
	case RoleAdmin, RoleUpgrader, RoleMinter, RoleBurner, RoleOperator:
		return true
	}
	return false
}

func (r RoleID) String() string { return string(r) }
