// Package roles derives the coarse view bucket from a user's role names.
// Every layout or routing decision goes through Classify so role logic lives
// in exactly one place.
package roles

import "github.com/custconnect/custconnect-backend/pkg/enums"

// Classification is the coarse bucket used to pick navigation and layout.
type Classification string

const (
	ClassStudent Classification = "STUDENT"
	ClassVendor  Classification = "VENDOR"
	ClassAdmin   Classification = "ADMIN"
)

var vendorRoles = []string{
	string(enums.RoleCafeOwner),
	string(enums.RoleBusOperator),
	string(enums.RolePrinterShopOwner),
}

// Classify buckets a role-name set. ADMIN wins over VENDOR wins over STUDENT;
// a user holding SUPER_ADMIN plus any vendor role still classifies as ADMIN.
// Unknown role names are ignored.
func Classify(roleNames []string) Classification {
	for _, name := range roleNames {
		if name == string(enums.RoleSuperAdmin) {
			return ClassAdmin
		}
	}
	for _, name := range roleNames {
		for _, vendor := range vendorRoles {
			if name == vendor {
				return ClassVendor
			}
		}
	}
	return ClassStudent
}
