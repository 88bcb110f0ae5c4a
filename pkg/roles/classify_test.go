package roles

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  Classification
	}{
		{name: "empty set is student", roles: nil, want: ClassStudent},
		{name: "plain student", roles: []string{"STUDENT"}, want: ClassStudent},
		{name: "cafe owner is vendor", roles: []string{"CAFE_OWNER"}, want: ClassVendor},
		{name: "bus operator is vendor", roles: []string{"BUS_OPERATOR"}, want: ClassVendor},
		{name: "printer shop owner is vendor", roles: []string{"PRINTER_SHOP_OWNER"}, want: ClassVendor},
		{name: "super admin is admin", roles: []string{"SUPER_ADMIN"}, want: ClassAdmin},
		{name: "admin beats vendor", roles: []string{"SUPER_ADMIN", "CAFE_OWNER"}, want: ClassAdmin},
		{name: "admin beats vendor regardless of order", roles: []string{"CAFE_OWNER", "SUPER_ADMIN"}, want: ClassAdmin},
		{name: "vendor beats student", roles: []string{"STUDENT", "BUS_OPERATOR"}, want: ClassVendor},
		{name: "unknown roles are ignored", roles: []string{"LIBRARIAN"}, want: ClassStudent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.roles); got != tt.want {
				t.Fatalf("Classify(%v) = %s, want %s", tt.roles, got, tt.want)
			}
		})
	}
}
