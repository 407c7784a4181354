package model

import "time"

type Contest struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	CreatedAt        time.Time `json:"createdAt"`
	ProblemIDs       []string  `json:"problems"`
	ParticipantCount int       `json:"participantCount"`
}

func (c *Contest) HasEnded(now time.Time) bool {
	return !now.Before(c.EndTime)
}
