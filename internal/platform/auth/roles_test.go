package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"admin", "facility_manager", "medical_staff", "resident"} {
		if _, ok := ParseRole(s); !ok {
			t.Errorf("expected %q to parse", s)
		}
	}
	for _, s := range []string{"", "Admin", "superuser"} {
		if _, ok := ParseRole(s); ok {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestCan_Table(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleAdmin, CapManageFacilities, true},
		{RoleFacilityManager, CapManageFacilities, false},
		{RoleFacilityManager, CapAssignComplaint, true},
		{RoleMedicalStaff, CapAssignComplaint, false},
		{RoleMedicalStaff, CapUpdateComplaintStatus, true},
		{RoleResident, CapUpdateComplaintStatus, false},
		{RoleMedicalStaff, CapManageMedicine, true},
		{RoleMedicalStaff, CapDeleteMedicine, false},
		{RoleFacilityManager, CapViewEntryExit, true},
		{RoleResident, CapViewEntryExit, false},
		{RoleMedicalStaff, CapMedicalRecords, true},
		{RoleFacilityManager, CapMedicalRecords, false},
		{RoleResident, CapListUsers, false},
		{RoleAdmin, Capability("unknown"), false},
	}
	for _, tt := range tests {
		if got := Can(tt.role, tt.cap); got != tt.want {
			t.Errorf("Can(%s, %s) = %v, want %v", tt.role, tt.cap, got, tt.want)
		}
	}
}

func TestRequire(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		anon     bool
		wantCode int
	}{
		{"allowed", RoleFacilityManager, false, http.StatusOK},
		{"forbidden", RoleResident, false, http.StatusForbidden},
		{"anonymous", "", true, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if !tt.anon {
				req = req.WithContext(WithPrincipal(req.Context(), Principal{UserID: "u1", Role: tt.role}))
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := Require(CapAssignComplaint)(okHandler)(c)
			if tt.wantCode == http.StatusOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if rec.Code != http.StatusOK {
					t.Errorf("expected 200, got %d", rec.Code)
				}
				return
			}
			expectHTTPError(t, err, tt.wantCode)
		})
	}
}
