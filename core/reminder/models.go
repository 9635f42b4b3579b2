package reminder

// Origin tells who authored a reminder.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginBroadcast Origin = "admin-broadcast"
)

type Reminder struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Deadline    string `json:"deadline"`
	IsCompleted bool   `json:"is_completed"`
	Origin      Origin `json:"origin,omitempty"`
	// BroadcastID is the shared item a promoted copy was made from.
	BroadcastID int `json:"broadcast_id,omitempty"`
}

func (r Reminder) GetID() int { return r.ID }

// copyOf reports whether r is the student's copy of the broadcast item b.
// Copies promoted before BroadcastID existed kept the broadcast id.
func (r Reminder) copyOf(b Reminder) bool {
	if r.Origin != OriginBroadcast {
		return false
	}
	if r.BroadcastID != 0 {
		return r.BroadcastID == b.ID
	}
	return r.ID == b.ID
}

func (r Reminder) WithID(id int) Reminder {
	r.ID = id
	return r
}

// NewReminder is the payload of an add request. An empty deadline means today.
type NewReminder struct {
	Title    string `json:"title"`
	Deadline string `json:"deadline" validate:"omitempty,date"`
}

// Merge returns private followed by the broadcast items whose id is not in
// private. Private items win on id collisions.
func Merge(private, broadcast []Reminder) []Reminder {
	seen := make(map[int]struct{}, len(private))
	view := make([]Reminder, 0, len(private)+len(broadcast))
	for _, r := range private {
		seen[r.ID] = struct{}{}
		view = append(view, r)
	}
	for _, r := range broadcast {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		view = append(view, r)
	}
	return view
}
