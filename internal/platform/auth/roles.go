package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Role string

const (
	RoleAdmin           Role = "admin"
	RoleFacilityManager Role = "facility_manager"
	RoleMedicalStaff    Role = "medical_staff"
	RoleResident        Role = "resident"
)

var allRoles = []Role{RoleAdmin, RoleFacilityManager, RoleMedicalStaff, RoleResident}

func ParseRole(s string) (Role, bool) {
	for _, r := range allRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Capability names an action guarded by role.
type Capability string

const (
	CapRegisterUser          Capability = "user:register"
	CapListUsers             Capability = "user:list"
	CapManageUsers           Capability = "user:manage"
	CapManageFacilities      Capability = "facility:manage"
	CapAssignComplaint       Capability = "complaint:assign"
	CapUpdateComplaintStatus Capability = "complaint:status"
	CapExportComplaints      Capability = "complaint:export"
	CapManageMedicine        Capability = "medicine:manage"
	CapDeleteMedicine        Capability = "medicine:delete"
	CapViewEntryExit         Capability = "entryexit:view"
	CapMedicalRecords        Capability = "medical:records"
	CapManageAppointments    Capability = "scheduling:manage"
	CapListAllUsers          Capability = "user:list-all"
)

// capabilities is the single authorization table. Roles missing from an
// entry are refused.
var capabilities = map[Capability][]Role{
	CapRegisterUser:          {RoleAdmin},
	CapListUsers:             {RoleAdmin, RoleFacilityManager, RoleMedicalStaff},
	CapListAllUsers:          {RoleAdmin},
	CapManageUsers:           {RoleAdmin},
	CapManageFacilities:      {RoleAdmin},
	CapAssignComplaint:       {RoleAdmin, RoleFacilityManager},
	CapUpdateComplaintStatus: {RoleAdmin, RoleFacilityManager, RoleMedicalStaff},
	CapExportComplaints:      {RoleAdmin, RoleFacilityManager},
	CapManageMedicine:        {RoleAdmin, RoleMedicalStaff},
	CapDeleteMedicine:        {RoleAdmin},
	CapViewEntryExit:         {RoleAdmin, RoleFacilityManager},
	CapMedicalRecords:        {RoleAdmin, RoleMedicalStaff},
	CapManageAppointments:    {RoleAdmin, RoleMedicalStaff},
}

// Can reports whether role holds capability.
func Can(role Role, capability Capability) bool {
	for _, r := range capabilities[capability] {
		if r == role {
			return true
		}
	}
	return false
}

// Require returns middleware that rejects the request with 403 unless the
// authenticated principal holds capability. It must run after JWTMiddleware.
func Require(capability Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}
			if !Can(p.Role, capability) {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}
