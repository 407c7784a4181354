package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"codearena/internal/common"
	"codearena/internal/domain/model"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// memDB is an in-memory stand-in for the Postgres schema. A single mutex
// gives every repository call the same all-or-nothing behaviour as the
// transactional implementations.
type memDB struct {
	mu sync.Mutex

	users        map[string]*model.User
	logins       map[string][]model.LoginRecord
	solved       map[string]map[string]bool
	problems     map[string]*model.Problem
	items        map[string]*model.StoreItem
	inventory    map[string][]model.InventoryEntry
	events       []model.PointEvent
	submissions  []*model.Submission
	contests     map[string]*model.Contest
	participants map[string]map[string]bool

	seq   int64
	clock time.Time
}

func newMemDB() *memDB {
	return &memDB{
		users:        map[string]*model.User{},
		logins:       map[string][]model.LoginRecord{},
		solved:       map[string]map[string]bool{},
		problems:     map[string]*model.Problem{},
		items:        map[string]*model.StoreItem{},
		inventory:    map[string][]model.InventoryEntry{},
		contests:     map[string]*model.Contest{},
		participants: map[string]map[string]bool{},
		clock:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing id and timestamp. Callers hold mu.
func (db *memDB) tick() (int64, time.Time) {
	db.seq++
	return db.seq, db.clock.Add(time.Duration(db.seq) * time.Second)
}

func (db *memDB) addUser(username string, points int) *model.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, now := db.tick()
	u := &model.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@example.com",
		Role:      model.RoleUser,
		Points:    points,
		CreatedAt: now,
		UpdatedAt: now,
	}
	db.users[u.ID] = u
	if points > 0 {
		db.events = append(db.events, model.PointEvent{ID: db.seq, UserID: u.ID, Delta: points, Reason: "opening"})
	}
	return u
}

func (db *memDB) addProblem(title string, difficulty model.ProblemDifficulty) *model.Problem {
	db.mu.Lock()
	defer db.mu.Unlock()
	p := &model.Problem{ID: uuid.NewString(), Title: title, Slug: slug.Make(title), Difficulty: difficulty}
	db.problems[p.ID] = p
	return p
}

func (db *memDB) addItem(name string, price int) *model.StoreItem {
	db.mu.Lock()
	defer db.mu.Unlock()
	it := &model.StoreItem{ID: uuid.NewString(), Name: name, Price: price, Type: model.ItemHat}
	db.items[it.ID] = it
	return it
}

func (db *memDB) balance(userID string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.users[userID].Points
}

func (db *memDB) eventSum(userID string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	sum := 0
	for _, e := range db.events {
		if e.UserID == userID {
			sum += e.Delta
		}
	}
	return sum
}

func (db *memDB) appendEvent(userID string, delta int, reason, ref string) {
	id, now := db.tick()
	db.events = append(db.events, model.PointEvent{ID: id, UserID: userID, Delta: delta, Reason: reason, ReferenceID: ref, CreatedAt: now})
}

// --- users ---

type memUserRepo struct{ *memDB }

func (r memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("user with given username or email already exists: %w", common.ErrConflict)
		}
	}
	_, now := r.tick()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r memUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", common.ErrNotFound)
}

func (r memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r memUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username })
}

func (r memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}

func (r memUserRepo) RecordLogin(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", common.ErrNotFound)
	}
	t := at
	u.LastLogin = &t
	id, _ := r.tick()
	r.logins[userID] = append(r.logins[userID], model.LoginRecord{ID: id, UserID: userID, LoggedInAt: at})
	return nil
}

func (r memUserRepo) RecentLogins(_ context.Context, userID string, limit int) ([]model.LoginRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.logins[userID]
	out := []model.LoginRecord{}
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (r memUserRepo) CountSolved(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.solved[userID]), nil
}

// --- ledger ---

type memLedgerRepo struct{ *memDB }

func (r memLedgerRepo) AddPoints(_ context.Context, userID string, amount int, reason, ref string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return 0, fmt.Errorf("user not found: %w", common.ErrNotFound)
	}
	u.Points += amount
	r.appendEvent(userID, amount, reason, ref)
	return u.Points, nil
}

func (r memLedgerRepo) CreditSolve(_ context.Context, userID, problemID string, award int) (bool, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return false, 0, fmt.Errorf("user or problem not found: %w", common.ErrNotFound)
	}
	if r.solved[userID] == nil {
		r.solved[userID] = map[string]bool{}
	}
	if r.solved[userID][problemID] {
		return false, u.Points, nil
	}
	r.solved[userID][problemID] = true
	u.Points += award
	r.appendEvent(userID, award, model.PointReasonSolve, problemID)
	return true, u.Points, nil
}

func (r memLedgerRepo) DebitForPurchase(_ context.Context, userID, itemID string) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok {
		return nil, fmt.Errorf("item not found: %w", common.ErrNotFound)
	}
	u, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", common.ErrNotFound)
	}
	if u.Points < item.Price {
		return nil, fmt.Errorf("%s costs %d points: %w", item.Name, item.Price, common.ErrInsufficientFunds)
	}
	u.Points -= item.Price
	id, now := r.tick()
	entry := model.InventoryEntry{ID: id, Item: *item, PurchaseDate: now}
	r.inventory[userID] = append(r.inventory[userID], entry)
	r.appendEvent(userID, -item.Price, model.PointReasonPurchase, item.ID)
	return &model.Purchase{Points: u.Points, Entry: entry}, nil
}

func (r memLedgerRepo) ListEvents(_ context.Context, userID string, limit int) ([]model.PointEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.PointEvent{}
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		if r.events[i].UserID == userID {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}

// --- store ---

type memStoreRepo struct {
	*memDB
	upserts int
}

func (r *memStoreRepo) ListItems(_ context.Context) ([]model.StoreItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.StoreItem{}
	for _, it := range r.items {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *memStoreRepo) ListInventory(_ context.Context, userID string) ([]model.InventoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.InventoryEntry{}, r.inventory[userID]...), nil
}

func (r *memStoreRepo) UpsertCatalog(_ context.Context, items []model.StoreItem) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	byName := map[string]*model.StoreItem{}
	for _, it := range r.items {
		byName[it.Name] = it
	}
	for _, it := range items {
		if existing, ok := byName[it.Name]; ok {
			existing.Description, existing.Price, existing.Type, existing.Image = it.Description, it.Price, it.Type, it.Image
			continue
		}
		cp := it
		r.items[cp.ID] = &cp
	}
	return len(r.items), nil
}

// --- problems ---

type memProblemRepo struct{ *memDB }

func (r memProblemRepo) Create(_ context.Context, p *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.problems {
		if existing.Title == p.Title || existing.Slug == p.Slug {
			return fmt.Errorf("problem with this title already exists: %w", common.ErrConflict)
		}
	}
	for i := range p.TestCases {
		p.TestCases[i].ProblemID = p.ID
		p.TestCases[i].SortOrder = i + 1
	}
	cp := *p
	cp.TestCases = append([]model.TestCase{}, p.TestCases...)
	r.problems[p.ID] = &cp
	return nil
}

func (r memProblemRepo) find(match func(*model.Problem) bool) (*model.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.problems {
		if match(p) {
			cp := *p
			cp.TestCases = nil
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("problem not found: %w", common.ErrNotFound)
}

func (r memProblemRepo) FindByID(_ context.Context, id string) (*model.Problem, error) {
	return r.find(func(p *model.Problem) bool { return p.ID == id })
}

func (r memProblemRepo) FindBySlug(_ context.Context, s string) (*model.Problem, error) {
	return r.find(func(p *model.Problem) bool { return p.Slug == s })
}

func (r memProblemRepo) List(_ context.Context, f model.ProblemFilter) ([]model.Problem, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.Problem
	for _, p := range r.problems {
		if f.Difficulty != "" && p.Difficulty != f.Difficulty {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(f.Search)) {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })
	total := len(all)
	if f.Offset >= len(all) {
		return []model.Problem{}, total, nil
	}
	all = all[f.Offset:]
	if len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func (r memProblemRepo) GetTestCases(_ context.Context, problemID string, includeHidden bool) ([]model.TestCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.TestCase{}
	if p, ok := r.problems[problemID]; ok {
		for _, tc := range p.TestCases {
			if includeHidden || tc.IsPublic {
				out = append(out, tc)
			}
		}
	}
	return out, nil
}

func (r memProblemRepo) CountExisting(_ context.Context, ids []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := r.problems[id]; ok {
			n++
		}
	}
	return n, nil
}

// --- submissions ---

type memSubmissionRepo struct{ *memDB }

func (r memSubmissionRepo) Create(_ context.Context, s *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, now := r.tick()
	s.SubmittedAt = now
	cp := *s
	r.submissions = append(r.submissions, &cp)
	return nil
}

func (r memSubmissionRepo) FindByID(_ context.Context, id string) (*model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.submissions {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("submission not found: %w", common.ErrNotFound)
}

func (r memSubmissionRepo) ListByUser(_ context.Context, userID string) ([]model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Submission{}
	for i := len(r.submissions) - 1; i >= 0; i-- {
		if r.submissions[i].UserID == userID {
			out = append(out, *r.submissions[i])
		}
	}
	return out, nil
}

// --- contests ---

type memContestRepo struct{ *memDB }

func (r memContestRepo) Create(_ context.Context, c *model.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, now := r.tick()
	c.CreatedAt = now
	cp := *c
	r.contests[c.ID] = &cp
	return nil
}

func (r memContestRepo) List(_ context.Context) ([]model.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Contest{}
	for _, c := range r.contests {
		cp := *c
		cp.ParticipantCount = len(r.participants[c.ID])
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (r memContestRepo) FindByID(_ context.Context, id string) (*model.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[id]
	if !ok {
		return nil, fmt.Errorf("contest not found: %w", common.ErrNotFound)
	}
	cp := *c
	cp.ParticipantCount = len(r.participants[id])
	return &cp, nil
}

func (r memContestRepo) Register(_ context.Context, contestID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contests[contestID]; !ok {
		return false, fmt.Errorf("contest or user not found: %w", common.ErrNotFound)
	}
	if r.participants[contestID] == nil {
		r.participants[contestID] = map[string]bool{}
	}
	if r.participants[contestID][userID] {
		return false, nil
	}
	r.participants[contestID][userID] = true
	return true, nil
}

// --- collaborators ---

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type mockLocker struct {
	acquireFn func(ctx context.Context, key string, ttl time.Duration) (func(), error)
	released  int
}

func (m *mockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if m.acquireFn == nil {
		return func() { m.released++ }, nil
	}
	return m.acquireFn(ctx, key, ttl)
}

type mockLeaderboardRepo struct {
	topFn func(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	calls int
}

func (m *mockLeaderboardRepo) Top(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	m.calls++
	if m.topFn == nil {
		panic("unexpected call to Top")
	}
	return m.topFn(ctx, limit)
}

// newLedger wires a LedgerService over db.
func newLedger(db *memDB) (*LedgerService, *countingInvalidator) {
	inv := &countingInvalidator{}
	return NewLedgerService(memLedgerRepo{db}, memProblemRepo{db}, inv), inv
}
