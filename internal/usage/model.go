package usage

import "time"

// Usage is a client's generation quota snapshot.
type Usage struct {
	Limit    int       `json:"limit"`
	Used     int       `json:"used"`
	ResetsAt time.Time `json:"resetsAt"`
}

// Remaining returns how many generation calls are left in the window.
func (u Usage) Remaining() int {
	if u.Used >= u.Limit {
		return 0
	}
	return u.Limit - u.Used
}

// Policy bounds generation calls per client and window.
type Policy struct {
	Limit  int
	Window time.Duration
}
