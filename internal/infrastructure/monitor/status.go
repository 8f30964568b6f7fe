package monitor

import "time"

// Status is the last observed state of the storage backends and the outbox.
type Status struct {
	Online     bool            `json:"online"`
	Components map[string]bool `json:"components"`
	Outbox     bool            `json:"outbox"`
	OutboxSize int             `json:"outbox_size"`
	LastCheck  time.Time       `json:"last_check"`
}

func (s Status) clone() Status {
	out := s
	out.Components = make(map[string]bool, len(s.Components))
	for name, up := range s.Components {
		out.Components[name] = up
	}
	return out
}
