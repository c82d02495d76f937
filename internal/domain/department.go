package domain

import "strings"

// DefaultDepartments is used when no department list is configured.
var DefaultDepartments = []string{
	"Administrative Offences Detection Directorate",
	"Central Districts Office",
	"Northern Districts Office",
	"Southern Districts Office",
	"Right Bank Districts Office",
	"Coordination Office",
}

// Departments is the enumerated set offered during registration.
type Departments []string

// Contains reports whether name is one of the configured departments.
func (d Departments) Contains(name string) bool {
	name = strings.TrimSpace(name)
	for _, dept := range d {
		if dept == name {
			return true
		}
	}
	return false
}
