package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codearena/internal/common/security"
	"codearena/internal/domain/model"
	"codearena/internal/domain/repository"
	"codearena/internal/platform/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/require"
)

// Each mock embeds the repository interface so that any method a test did
// not stub panics instead of silently returning zero values.

type mockUserRepo struct {
	repository.UserRepository
	createFn       func(ctx context.Context, u *model.User) error
	findByEmailFn  func(ctx context.Context, email string) (*model.User, error)
	findByNameFn   func(ctx context.Context, username string) (*model.User, error)
	findByIDFn     func(ctx context.Context, id string) (*model.User, error)
	recordLoginFn  func(ctx context.Context, userID string, at time.Time) error
	recentLoginsFn func(ctx context.Context, userID string, limit int) ([]model.LoginRecord, error)
	countSolvedFn  func(ctx context.Context, userID string) (int, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *model.User) error { return m.createFn(ctx, u) }
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findByEmailFn(ctx, email)
}
func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return m.findByNameFn(ctx, username)
}
func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockUserRepo) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	return m.recordLoginFn(ctx, userID, at)
}
func (m *mockUserRepo) RecentLogins(ctx context.Context, userID string, limit int) ([]model.LoginRecord, error) {
	return m.recentLoginsFn(ctx, userID, limit)
}
func (m *mockUserRepo) CountSolved(ctx context.Context, userID string) (int, error) {
	return m.countSolvedFn(ctx, userID)
}

type mockLedgerRepo struct {
	repository.LedgerRepository
	addPointsFn   func(ctx context.Context, userID string, amount int, reason, ref string) (int, error)
	creditSolveFn func(ctx context.Context, userID, problemID string, award int) (bool, int, error)
	debitFn       func(ctx context.Context, userID, itemID string) (*model.Purchase, error)
	listEventsFn  func(ctx context.Context, userID string, limit int) ([]model.PointEvent, error)
}

func (m *mockLedgerRepo) AddPoints(ctx context.Context, userID string, amount int, reason, ref string) (int, error) {
	return m.addPointsFn(ctx, userID, amount, reason, ref)
}
func (m *mockLedgerRepo) CreditSolve(ctx context.Context, userID, problemID string, award int) (bool, int, error) {
	return m.creditSolveFn(ctx, userID, problemID, award)
}
func (m *mockLedgerRepo) DebitForPurchase(ctx context.Context, userID, itemID string) (*model.Purchase, error) {
	return m.debitFn(ctx, userID, itemID)
}
func (m *mockLedgerRepo) ListEvents(ctx context.Context, userID string, limit int) ([]model.PointEvent, error) {
	return m.listEventsFn(ctx, userID, limit)
}

type mockStoreRepo struct {
	repository.StoreRepository
	listItemsFn     func(ctx context.Context) ([]model.StoreItem, error)
	listInventoryFn func(ctx context.Context, userID string) ([]model.InventoryEntry, error)
	upsertFn        func(ctx context.Context, items []model.StoreItem) (int, error)
}

func (m *mockStoreRepo) ListItems(ctx context.Context) ([]model.StoreItem, error) {
	return m.listItemsFn(ctx)
}
func (m *mockStoreRepo) ListInventory(ctx context.Context, userID string) ([]model.InventoryEntry, error) {
	return m.listInventoryFn(ctx, userID)
}
func (m *mockStoreRepo) UpsertCatalog(ctx context.Context, items []model.StoreItem) (int, error) {
	return m.upsertFn(ctx, items)
}

type mockProblemRepo struct {
	repository.ProblemRepository
	createFn        func(ctx context.Context, p *model.Problem) error
	findByIDFn      func(ctx context.Context, id string) (*model.Problem, error)
	findBySlugFn    func(ctx context.Context, slug string) (*model.Problem, error)
	listFn          func(ctx context.Context, f model.ProblemFilter) ([]model.Problem, int, error)
	getTestCasesFn  func(ctx context.Context, problemID string, includeHidden bool) ([]model.TestCase, error)
	countExistingFn func(ctx context.Context, ids []string) (int, error)
}

func (m *mockProblemRepo) Create(ctx context.Context, p *model.Problem) error {
	return m.createFn(ctx, p)
}
func (m *mockProblemRepo) FindByID(ctx context.Context, id string) (*model.Problem, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockProblemRepo) FindBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	return m.findBySlugFn(ctx, slug)
}
func (m *mockProblemRepo) List(ctx context.Context, f model.ProblemFilter) ([]model.Problem, int, error) {
	return m.listFn(ctx, f)
}
func (m *mockProblemRepo) GetTestCases(ctx context.Context, problemID string, includeHidden bool) ([]model.TestCase, error) {
	return m.getTestCasesFn(ctx, problemID, includeHidden)
}
func (m *mockProblemRepo) CountExisting(ctx context.Context, ids []string) (int, error) {
	return m.countExistingFn(ctx, ids)
}

type mockSubmissionRepo struct {
	repository.SubmissionRepository
	createFn     func(ctx context.Context, s *model.Submission) error
	findByIDFn   func(ctx context.Context, id string) (*model.Submission, error)
	listByUserFn func(ctx context.Context, userID string) ([]model.Submission, error)
}

func (m *mockSubmissionRepo) Create(ctx context.Context, s *model.Submission) error {
	return m.createFn(ctx, s)
}
func (m *mockSubmissionRepo) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockSubmissionRepo) ListByUser(ctx context.Context, userID string) ([]model.Submission, error) {
	return m.listByUserFn(ctx, userID)
}

type mockContestRepo struct {
	repository.ContestRepository
	createFn   func(ctx context.Context, c *model.Contest) error
	listFn     func(ctx context.Context) ([]model.Contest, error)
	findByIDFn func(ctx context.Context, id string) (*model.Contest, error)
	registerFn func(ctx context.Context, contestID, userID string) (bool, error)
}

func (m *mockContestRepo) Create(ctx context.Context, c *model.Contest) error {
	return m.createFn(ctx, c)
}
func (m *mockContestRepo) List(ctx context.Context) ([]model.Contest, error) { return m.listFn(ctx) }
func (m *mockContestRepo) FindByID(ctx context.Context, id string) (*model.Contest, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockContestRepo) Register(ctx context.Context, contestID, userID string) (bool, error) {
	return m.registerFn(ctx, contestID, userID)
}

type mockLeaderboardRepo struct {
	topFn func(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

func (m *mockLeaderboardRepo) Top(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	return m.topFn(ctx, limit)
}

type stubLocker struct{ err error }

func (l stubLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	return func() {}, nil
}

// --- HTTP helpers ---

const (
	testUserID  = "11111111-1111-1111-1111-111111111111"
	testAdminID = "22222222-2222-2222-2222-222222222222"
)

type routeRegistrar interface {
	RegisterRoutes(r chi.Router)
}

func setupJWT(t *testing.T) {
	t.Helper()
	config.AppConfig = &config.Config{JWTKey: []byte("handler-test"), JWTExp: time.Hour}
	security.InitJWT()
}

func newTestServer(h routeRegistrar) http.Handler {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(security.TokenAuth))
	h.RegisterRoutes(r)
	return r
}

func tokenFor(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := security.GenerateToken(userID, role)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst), "body: %s", rr.Body.String())
}
