package model

import "time"

type LeaderboardEntry struct {
	Rank        int        `json:"rank"`
	UserID      string     `json:"id"`
	Username    string     `json:"username"`
	Points      int        `json:"points"`
	SolvedCount int        `json:"solvedCount"`
	LastLogin   *time.Time `json:"lastLogin"`
	JoinedAt    time.Time  `json:"-"`
}
