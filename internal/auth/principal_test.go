package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/tbourn/go-adopt-backend/internal/domain"
)

func TestHeaderResolver_Resolve(t *testing.T) {
	tests := []struct {
		name        string
		id, role    string
		defaultRole domain.Role
		wantOK      bool
		want        Principal
	}{
		{"both headers", "u1", "ADOPTER", "", true, Principal{ID: "u1", Role: domain.RoleAdopter}},
		{"role case-insensitive", "u1", "owner", "", true, Principal{ID: "u1", Role: domain.RoleOwner}},
		{"role trimmed", "u1", "  ADMIN  ", "", true, Principal{ID: "u1", Role: domain.RoleAdmin}},
		{"missing id", "", "OWNER", "", false, Principal{}},
		{"blank id", "   ", "OWNER", "", false, Principal{}},
		{"unknown role", "u1", "WIZARD", "", false, Principal{}},
		{"missing role, no default", "u1", "", "", false, Principal{}},
		{"missing role, default applies", "u1", "", domain.RoleAdopter, true, Principal{ID: "u1", Role: domain.RoleAdopter}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.id != "" {
				req.Header.Set(HeaderUserID, tc.id)
			}
			if tc.role != "" {
				req.Header.Set(HeaderUserRole, tc.role)
			}
			res := HeaderResolver{DefaultRole: tc.defaultRole}

			got, ok := res.Resolve(req)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v; want %v", ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Fatalf("principal = %+v; want %+v", got, tc.want)
			}
		})
	}
}
