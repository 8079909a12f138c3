package model

import "strings"

type Role string

const (
	RolePIMA         Role = "PIMA"
	RoleOperateur    Role = "OPERATEUR"
	RoleGestionnaire Role = "GESTIONNAIRE"
	RolePreparateur  Role = "PREPARATEUR"
)

var Roles = []Role{RolePIMA, RoleOperateur, RoleGestionnaire, RolePreparateur}

func (r Role) Valid() bool {
	return r.Order() < len(Roles)
}

func (r Role) Order() int {
	for i, x := range Roles {
		if x == r {
			return i
		}
	}
	return len(Roles)
}

// Shared reports whether the role is pooled between the two machines of a pair.
func (r Role) Shared() bool {
	return r == RoleGestionnaire || r == RolePreparateur
}

// StaffTeam is the fixed crew a staff member belongs to. Zero means flexible.
type StaffTeam int

const (
	StaffTeamNone StaffTeam = 0
	StaffTeamOne  StaffTeam = 1
	StaffTeamTwo  StaffTeam = 2
)

const DefaultWeeklyHours = 35

type StaffMember struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	DefaultRole  Role      `bson:"default_role,omitempty" json:"defaultRole,omitempty"`
	IsInterim    bool      `bson:"is_interim" json:"isInterim"`
	Active       bool      `bson:"active" json:"active"`
	WeeklyHours  float64   `bson:"weekly_hours" json:"weeklyHours"`
	AssignedTeam StaffTeam `bson:"assigned_team" json:"assignedTeam"`
	IsAbsent     bool      `bson:"is_absent" json:"isAbsent"`

	// Safety qualifications
	IsSecouriste bool `bson:"is_secouriste" json:"isSecouriste"`
	IsGuideFile  bool `bson:"is_guide_file" json:"isGuideFile"`
	IsSerreFile  bool `bson:"is_serre_file" json:"isSerreFile"`
}

// Salaried reports whether the member counts toward salaried capacity.
func (s StaffMember) Salaried() bool {
	return !s.IsInterim && s.Active && !s.IsAbsent
}

// NormalizeName is the form used for case-insensitive name matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FindStaff looks a member up by case-insensitive name.
func FindStaff(staff []StaffMember, name string) (StaffMember, bool) {
	n := NormalizeName(name)
	if n == "" {
		return StaffMember{}, false
	}
	for _, s := range staff {
		if NormalizeName(s.Name) == n {
			return s, true
		}
	}
	return StaffMember{}, false
}
