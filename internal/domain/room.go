package domain

import "time"

// JanitorType identifies one of the three cleaning duties of a floor.
type JanitorType string

const (
	JanitorRoomCleaner     JanitorType = "roomCleaner"
	JanitorCorridorCleaner JanitorType = "corridorCleaner"
	JanitorWashroomCleaner JanitorType = "washroomCleaner"
)

// JanitorTypes lists every janitor type in display order.
var JanitorTypes = []JanitorType{JanitorRoomCleaner, JanitorCorridorCleaner, JanitorWashroomCleaner}

// ParseJanitorType validates a janitor type string.
func ParseJanitorType(raw string) (JanitorType, bool) {
	for _, jt := range JanitorTypes {
		if string(jt) == raw {
			return jt, true
		}
	}
	return "", false
}

// Janitors holds the names assigned to each duty.
type Janitors struct {
	RoomCleaner     string `json:"roomCleaner"`
	CorridorCleaner string `json:"corridorCleaner"`
	WashroomCleaner string `json:"washroomCleaner"`
}

// Name returns the janitor assigned to the given duty.
func (j Janitors) Name(jt JanitorType) string {
	switch jt {
	case JanitorRoomCleaner:
		return j.RoomCleaner
	case JanitorCorridorCleaner:
		return j.CorridorCleaner
	case JanitorWashroomCleaner:
		return j.WashroomCleaner
	}
	return ""
}

var floorJanitors = map[int]Janitors{
	1: {RoomCleaner: "Raj", CorridorCleaner: "Mohan", WashroomCleaner: "Suresh"},
	2: {RoomCleaner: "Vikas", CorridorCleaner: "Kiran", WashroomCleaner: "Manoj"},
	3: {RoomCleaner: "Ravi", CorridorCleaner: "Amit", WashroomCleaner: "Prakash"},
}

// DefaultJanitors returns the fixed janitor roster for a floor. Unknown floors
// get the first floor's roster.
func DefaultJanitors(floor int) Janitors {
	if j, ok := floorJanitors[floor]; ok {
		return j
	}
	return floorJanitors[1]
}

// FloorFromRoomNumber derives the floor from the first character of a room
// number. "A12" and "" have no floor.
func FloorFromRoomNumber(roomNumber string) (int, bool) {
	if roomNumber == "" {
		return 0, false
	}
	c := roomNumber[0]
	if c < '0' || c > '9' {
		return 0, false
	}
	return int(c - '0'), true
}

// Room is the per-room cleaning record.
type Room struct {
	ID          string
	RoomNumber  string
	Floor       int
	LastCleaned *time.Time
	Caretaker   *string
	Janitors    Janitors
}
