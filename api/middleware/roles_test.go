package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custconnect/custconnect-backend/pkg/roles"
)

func TestRequireClassificationAllowsAdmin(t *testing.T) {
	handler := RequireClassification(nil, roles.ClassAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	req = req.WithContext(WithRoles(req.Context(), []string{"SUPER_ADMIN", "CAFE_OWNER"}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestRequireClassificationBlocksVendorFromAdmin(t *testing.T) {
	handler := RequireClassification(nil, roles.ClassAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	req = req.WithContext(WithRoles(req.Context(), []string{"CAFE_OWNER"}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestRequireClassificationBroadcastGuard(t *testing.T) {
	// the notifications broadcast guard admits admins and vendors, not students
	guard := RequireClassification(nil, roles.ClassAdmin, roles.ClassVendor)

	tests := []struct {
		name     string
		roleSet  []string
		wantCode int
	}{
		{name: "super admin allowed", roleSet: []string{"SUPER_ADMIN"}, wantCode: http.StatusNoContent},
		{name: "bus operator allowed", roleSet: []string{"BUS_OPERATOR"}, wantCode: http.StatusNoContent},
		{name: "cafe owner allowed", roleSet: []string{"CAFE_OWNER"}, wantCode: http.StatusNoContent},
		{name: "student blocked", roleSet: []string{"STUDENT"}, wantCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodPost, "/notifications/broadcast", nil)
			req = req.WithContext(WithRoles(req.Context(), tt.roleSet))
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)

			if resp.Code != tt.wantCode {
				t.Fatalf("unexpected status %d", resp.Code)
			}
		})
	}
}

func TestRequireClassificationTreatsUnknownRolesAsStudent(t *testing.T) {
	handler := RequireClassification(nil, roles.ClassStudent)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithRoles(req.Context(), []string{"JANITOR"}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}
