package access

import (
	"fmt"
	"sort"
)

// Permission is an atomic capability named "<module>.<action>". The set is
// closed: only the constants below exist, and role definitions naming
// anything else are rejected when they are loaded.
type Permission string

const (
	ClinicsView   Permission = "clinics.view"
	ClinicsCreate Permission = "clinics.create"
	ClinicsUpdate Permission = "clinics.update"
	ClinicsDelete Permission = "clinics.delete"

	PatientsView   Permission = "patients.view"
	PatientsCreate Permission = "patients.create"
	PatientsUpdate Permission = "patients.update"
	PatientsDelete Permission = "patients.delete"

	DoctorsView   Permission = "doctors.view"
	DoctorsCreate Permission = "doctors.create"
	DoctorsUpdate Permission = "doctors.update"
	DoctorsDelete Permission = "doctors.delete"

	EncountersView   Permission = "encounters.view"
	EncountersCreate Permission = "encounters.create"
	EncountersUpdate Permission = "encounters.update"
	EncountersDelete Permission = "encounters.delete"

	PrescriptionsView   Permission = "prescriptions.view"
	PrescriptionsCreate Permission = "prescriptions.create"
	PrescriptionsUpdate Permission = "prescriptions.update"
	PrescriptionsDelete Permission = "prescriptions.delete"

	LabResultsView   Permission = "lab_results.view"
	LabResultsCreate Permission = "lab_results.create"
	LabResultsUpdate Permission = "lab_results.update"
	LabResultsDelete Permission = "lab_results.delete"

	FilesView   Permission = "files.view"
	FilesUpload Permission = "files.upload"
	FilesDelete Permission = "files.delete"

	MedrepsView   Permission = "medreps.view"
	MedrepsCreate Permission = "medreps.create"
	MedrepsUpdate Permission = "medreps.update"
	MedrepsDelete Permission = "medreps.delete"

	SettingsView   Permission = "settings.view"
	SettingsUpdate Permission = "settings.update"

	UsersView   Permission = "users.view"
	UsersManage Permission = "users.manage"

	RolesView Permission = "roles.view"

	ReportsView Permission = "reports.view"
)

var registry = map[Permission]struct{}{}

func init() {
	for _, p := range []Permission{
		ClinicsView, ClinicsCreate, ClinicsUpdate, ClinicsDelete,
		PatientsView, PatientsCreate, PatientsUpdate, PatientsDelete,
		DoctorsView, DoctorsCreate, DoctorsUpdate, DoctorsDelete,
		EncountersView, EncountersCreate, EncountersUpdate, EncountersDelete,
		PrescriptionsView, PrescriptionsCreate, PrescriptionsUpdate, PrescriptionsDelete,
		LabResultsView, LabResultsCreate, LabResultsUpdate, LabResultsDelete,
		FilesView, FilesUpload, FilesDelete,
		MedrepsView, MedrepsCreate, MedrepsUpdate, MedrepsDelete,
		SettingsView, SettingsUpdate,
		UsersView, UsersManage,
		RolesView,
		ReportsView,
	} {
		registry[p] = struct{}{}
	}
}

// ParsePermission returns the registered Permission named s.
func ParsePermission(s string) (Permission, error) {
	p := Permission(s)
	if _, ok := registry[p]; !ok {
		return "", fmt.Errorf("unknown permission %q", s)
	}
	return p, nil
}

// Valid reports whether p is a registered permission.
func (p Permission) Valid() bool {
	_, ok := registry[p]
	return ok
}

// AllPermissions returns every registered permission in lexical order.
func AllPermissions() []Permission {
	out := make([]Permission, 0, len(registry))
	for p := range registry {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
