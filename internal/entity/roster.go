package entity

import "time"

type RosterEntry struct {
	Username string    `json:"username"`
	JoinDate time.Time `json:"joindate"`
	Visible  bool      `json:"visible"`
}
