package enums

import "fmt"

// RoleName is a fine-grained role assigned to a user account. A user can hold
// several at once; the coarse view bucket is derived in pkg/roles.
type RoleName string

const (
	RoleStudent          RoleName = "STUDENT"
	RoleSuperAdmin       RoleName = "SUPER_ADMIN"
	RoleCafeOwner        RoleName = "CAFE_OWNER"
	RoleBusOperator      RoleName = "BUS_OPERATOR"
	RolePrinterShopOwner RoleName = "PRINTER_SHOP_OWNER"
)

var validRoleNames = []RoleName{
	RoleStudent,
	RoleSuperAdmin,
	RoleCafeOwner,
	RoleBusOperator,
	RolePrinterShopOwner,
}

// String implements fmt.Stringer.
func (r RoleName) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RoleName.
func (r RoleName) IsValid() bool {
	for _, candidate := range validRoleNames {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRoleName converts raw input into a RoleName.
func ParseRoleName(value string) (RoleName, error) {
	for _, candidate := range validRoleNames {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role name %q", value)
}
