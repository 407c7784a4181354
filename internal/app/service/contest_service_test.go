package service

import (
	"context"
	"testing"
	"time"

	"codearena/internal/common"
	"codearena/internal/domain/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContests(db *memDB, now time.Time) *ContestService {
	svc := NewContestService(memContestRepo{db}, memProblemRepo{db})
	svc.now = func() time.Time { return now }
	return svc
}

func TestContestService_CreateAndRegister(t *testing.T) {
	db := newMemDB()
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newContests(db, now)
	ctx := context.Background()
	p1 := db.addProblem("Two Sum", model.DifficultyEasy)
	p2 := db.addProblem("Graph Paths", model.DifficultyHard)
	user := db.addUser("alice", 0)

	contest, err := svc.Create(ctx, CreateContestRequest{
		Title:      " Weekly 1 ",
		StartTime:  now.Add(time.Hour),
		EndTime:    now.Add(3 * time.Hour),
		ProblemIDs: []string{p1.ID, p2.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Weekly 1", contest.Title)
	assert.Equal(t, []string{p1.ID, p2.ID}, contest.ProblemIDs)

	res, err := svc.Register(ctx, contest.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyRegistered)

	res, err = svc.Register(ctx, contest.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, res.AlreadyRegistered)

	got, err := svc.Get(ctx, contest.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ParticipantCount)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestContestService_CreateRejectsBadInput(t *testing.T) {
	db := newMemDB()
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newContests(db, now)
	ctx := context.Background()
	p := db.addProblem("Two Sum", model.DifficultyEasy)

	tests := []struct {
		name    string
		req     CreateContestRequest
		wantErr error
	}{
		{
			name:    "ends before it starts",
			req:     CreateContestRequest{Title: "Bad", StartTime: now, EndTime: now.Add(-time.Hour)},
			wantErr: common.ErrValidation,
		},
		{
			name:    "malformed problem id",
			req:     CreateContestRequest{Title: "Bad", StartTime: now, EndTime: now.Add(time.Hour), ProblemIDs: []string{"two-sum"}},
			wantErr: common.ErrValidation,
		},
		{
			name:    "duplicate problem",
			req:     CreateContestRequest{Title: "Bad", StartTime: now, EndTime: now.Add(time.Hour), ProblemIDs: []string{p.ID, p.ID}},
			wantErr: common.ErrInvalidInput,
		},
		{
			name:    "unknown problem",
			req:     CreateContestRequest{Title: "Bad", StartTime: now, EndTime: now.Add(time.Hour), ProblemIDs: []string{p.ID, uuid.NewString()}},
			wantErr: common.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, db.contests)
}

func TestContestService_RegisterAfterEnd(t *testing.T) {
	db := newMemDB()
	start := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newContests(db, start)
	ctx := context.Background()
	user := db.addUser("bob", 0)

	contest, err := svc.Create(ctx, CreateContestRequest{Title: "Sprint", StartTime: start, EndTime: start.Add(time.Hour)})
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(time.Hour) }
	_, err = svc.Register(ctx, contest.ID, user.ID)
	assert.ErrorIs(t, err, common.ErrBadRequest)

	_, err = svc.Register(ctx, uuid.NewString(), user.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
