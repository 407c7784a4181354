package service

import (
	"context"
	"unicode/utf8"

	"codearena/internal/domain/model"
)

type Verdict struct {
	Status          model.SubmissionStatus
	ExecutionTimeMs int
	MemoryKb        int
}

// Judge decides the outcome of a submission.
type Judge interface {
	Evaluate(ctx context.Context, problem *model.Problem, code, language string) Verdict
}

// PlaceholderJudge stands in for a real execution backend. Code longer than
// ten characters is accepted; anything shorter is a wrong answer. Timing and
// memory figures are derived from the code length.
type PlaceholderJudge struct{}

const placeholderMinCodeLength = 10

func (PlaceholderJudge) Evaluate(_ context.Context, _ *model.Problem, code, _ string) Verdict {
	n := utf8.RuneCountInString(code)
	v := Verdict{
		Status:          model.StatusWrongAnswer,
		ExecutionTimeMs: 1 + n%97,
		MemoryKb:        1024 + n*4,
	}
	if n > placeholderMinCodeLength {
		v.Status = model.StatusAccepted
	}
	return v
}
