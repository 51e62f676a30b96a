package access

import (
	"context"
	"errors"
	"fmt"
)

// Scope distinguishes system-wide roles from clinic-scoped ones.
type Scope string

const (
	ScopeSystem Scope = "system"
	ScopeClinic Scope = "clinic"
)

// Built-in role names.
const (
	RoleSuperAdmin   = "superadmin"
	RoleAdmin        = "admin"
	RoleDoctor       = "doctor"
	RoleNurse        = "nurse"
	RoleReceptionist = "receptionist"
)

// Role is a named permission bundle.
type Role struct {
	Name        string       `json:"name"`
	Scope       Scope        `json:"scope"`
	Description string       `json:"description"`
	Permissions []Permission `json:"permissions"`
}

// Grants reports whether the role carries p.
func (r Role) Grants(p Permission) bool {
	for _, have := range r.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// Bypass reports whether holding the role exempts the actor from clinic scoping.
func (r Role) Bypass() bool {
	return r.Scope == ScopeSystem
}

// RawRole is a role definition as persisted, before its permission names
// have been checked against the registry.
type RawRole struct {
	Name        string
	Scope       string
	Description string
	Permissions []string
}

// Parse validates the raw definition and converts it into a Role.
func (r RawRole) Parse() (Role, error) {
	if r.Name == "" {
		return Role{}, errors.New("role name is empty")
	}
	scope := Scope(r.Scope)
	if scope != ScopeSystem && scope != ScopeClinic {
		return Role{}, fmt.Errorf("role %q: unknown scope %q", r.Name, r.Scope)
	}
	perms := make([]Permission, 0, len(r.Permissions))
	for _, name := range r.Permissions {
		p, err := ParsePermission(name)
		if err != nil {
			return Role{}, fmt.Errorf("role %q: %w", r.Name, err)
		}
		perms = append(perms, p)
	}
	return Role{Name: r.Name, Scope: scope, Description: r.Description, Permissions: perms}, nil
}

// RoleLister lists every persisted role definition.
type RoleLister interface {
	ListRawRoles(ctx context.Context) ([]RawRole, error)
}

// VerifyRoles loads every persisted role and fails if any of them names an
// unknown permission or scope. Run at startup so a typo stops the process
// instead of silently denying forever.
func VerifyRoles(ctx context.Context, lister RoleLister) ([]Role, error) {
	raws, err := lister.ListRawRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	var errs []error
	roles := make([]Role, 0, len(raws))
	for _, raw := range raws {
		role, err := raw.Parse()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		roles = append(roles, role)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return roles, nil
}

// DefaultRoles returns the built-in role catalogue written to storage by
// "emr-server roles sync".
func DefaultRoles() []Role {
	clinicAdmin := make([]Permission, 0, len(registry))
	for _, p := range AllPermissions() {
		if p != ClinicsCreate {
			clinicAdmin = append(clinicAdmin, p)
		}
	}
	return []Role{
		{
			Name:        RoleSuperAdmin,
			Scope:       ScopeSystem,
			Description: "Platform operator; bypasses clinic scoping",
		},
		{
			Name:        RoleAdmin,
			Scope:       ScopeClinic,
			Description: "Clinic administrator",
			Permissions: clinicAdmin,
		},
		{
			Name:        RoleDoctor,
			Scope:       ScopeClinic,
			Description: "Physician",
			Permissions: []Permission{
				ClinicsView,
				PatientsView, PatientsCreate, PatientsUpdate,
				DoctorsView,
				EncountersView, EncountersCreate, EncountersUpdate, EncountersDelete,
				PrescriptionsView, PrescriptionsCreate, PrescriptionsUpdate, PrescriptionsDelete,
				LabResultsView, LabResultsCreate, LabResultsUpdate,
				FilesView, FilesUpload,
				MedrepsView,
				SettingsView,
				ReportsView,
			},
		},
		{
			Name:        RoleNurse,
			Scope:       ScopeClinic,
			Description: "Nursing staff",
			Permissions: []Permission{
				ClinicsView,
				PatientsView, PatientsUpdate,
				DoctorsView,
				EncountersView, EncountersUpdate,
				PrescriptionsView,
				LabResultsView, LabResultsCreate, LabResultsUpdate,
				FilesView, FilesUpload,
				SettingsView,
			},
		},
		{
			Name:        RoleReceptionist,
			Scope:       ScopeClinic,
			Description: "Front desk",
			Permissions: []Permission{
				ClinicsView,
				PatientsView, PatientsCreate, PatientsUpdate,
				DoctorsView,
				EncountersView, EncountersCreate,
				FilesView, FilesUpload,
				MedrepsView, MedrepsCreate, MedrepsUpdate,
				SettingsView,
			},
		},
	}
}
