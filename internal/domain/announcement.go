package domain

import "time"

// AnnouncementPriority orders announcements on dashboards.
type AnnouncementPriority string

const (
	PriorityLow    AnnouncementPriority = "low"
	PriorityMedium AnnouncementPriority = "medium"
	PriorityHigh   AnnouncementPriority = "high"
)

// ParseAnnouncementPriority validates a priority; empty means medium.
func ParseAnnouncementPriority(raw string) (AnnouncementPriority, bool) {
	switch AnnouncementPriority(raw) {
	case "":
		return PriorityMedium, true
	case PriorityLow, PriorityMedium, PriorityHigh:
		return AnnouncementPriority(raw), true
	}
	return "", false
}

// Rank returns a sortable weight, higher is more important.
func (p AnnouncementPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Audience selects who receives an announcement.
type Audience string

const (
	AudienceAll      Audience = "all"
	AudienceStudents Audience = "students"
	AudienceStaff    Audience = "staff"
)

// ParseAudience validates an audience; empty means all.
func ParseAudience(raw string) (Audience, bool) {
	switch Audience(raw) {
	case "":
		return AudienceAll, true
	case AudienceAll, AudienceStudents, AudienceStaff:
		return Audience(raw), true
	}
	return "", false
}

// Roles returns the account roles an audience reaches.
func (a Audience) Roles() []Role {
	switch a {
	case AudienceStudents:
		return []Role{RoleStudent}
	case AudienceStaff:
		return []Role{RoleCaretaker, RoleWarden}
	}
	return []Role{RoleStudent, RoleCaretaker, RoleWarden}
}

// Announcement is a broadcast notice posted by staff.
type Announcement struct {
	ID             string
	Title          string
	Content        string
	PostedBy       string
	PostedByName   string
	Priority       AnnouncementPriority
	TargetAudience Audience
	CreatedAt      time.Time
}
