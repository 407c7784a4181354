package model

import (
	"time"
)

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"
)

func (d ProblemDifficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Problem struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Description string            `json:"description"`
	Difficulty  ProblemDifficulty `json:"difficulty"`
	Template    string            `json:"template"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	TestCases   []TestCase        `json:"testCases,omitempty"`
}

type TestCase struct {
	ID        string `json:"id"`
	ProblemID string `json:"problemId"`
	Input     string `json:"input"`
	Output    string `json:"output"`
	IsPublic  bool   `json:"isPublic"`
	SortOrder int    `json:"sortOrder"`
}

type ProblemFilter struct {
	Difficulty ProblemDifficulty
	Search     string
	Limit      int
	Offset     int
}
