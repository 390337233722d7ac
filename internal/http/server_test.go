package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finanzas/internal/auth"
	"finanzas/internal/core"
	"finanzas/internal/services"
	"finanzas/internal/storage/memory"
)

var testSecret = []byte("test-secret-test-secret-test-1234")

type testEnv struct {
	server *Server
	store  *memory.Store
	admin  core.User
	user   core.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()

	admin, err := store.CreateUser(context.Background(), core.User{Name: "Ana", Email: "ana@example.com", Role: core.RoleAdmin})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	user, err := store.CreateUser(context.Background(), core.User{Name: "Bob", Email: "bob@example.com", Role: core.RoleUser})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	srv := NewServer(":0", Deps{
		JWTSecret:   testSecret,
		AuthService: services.NewAuthService(store, nil),
		Movements:   services.NewMovementService(store, nil),
		Users:       services.NewUserService(store),
		Reports:     services.NewReportService(store),
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &testEnv{server: srv, store: store, admin: admin, user: user}
}

func (e *testEnv) token(t *testing.T, u core.User) string {
	t.Helper()
	token, err := auth.NewToken(testSecret, auth.TokenClaims{Email: u.Email, Name: u.Name}, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) seedMovement(t *testing.T, ownerID, concept string, amount float64, date time.Time) core.Movement {
	t.Helper()
	m, err := e.store.CreateMovement(context.Background(), services.NewMovement{
		Concept: concept,
		Amount:  amount,
		Date:    date,
		UserID:  ownerID,
	})
	if err != nil {
		t.Fatalf("seed movement: %v", err)
	}
	return m
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rr.Body.String())
	}
	return env
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(t, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/api/movements", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if e := decodeEnvelope(t, rr); e.Success || e.Error != "Unauthorized" {
		t.Fatalf("unexpected envelope %+v", e)
	}
}

func TestListScopedToCaller(t *testing.T) {
	env := newTestEnv(t)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	env.seedMovement(t, env.admin.ID, "Admin salary", 2000, date)
	env.seedMovement(t, env.user.ID, "Bob groceries", -80, date)

	// The owner filter is overridden for non-admin callers.
	rr := env.do(t, http.MethodGet, "/api/movements?userId="+env.admin.ID, env.token(t, env.user), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var page services.PaginatedMovements
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Movements) != 1 || page.Movements[0].UserID != env.user.ID {
		t.Fatalf("expected only the caller's movement, got %+v", page.Movements)
	}

	rr = env.do(t, http.MethodGet, "/api/movements", env.token(t, env.admin), "")
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Movements) != 2 {
		t.Fatalf("admin should see both movements, got %d", len(page.Movements))
	}
}

func TestGetMovementOwnership(t *testing.T) {
	env := newTestEnv(t)
	m := env.seedMovement(t, env.admin.ID, "Admin only", 100, time.Now())

	rr := env.do(t, http.MethodGet, "/api/movements/"+m.ID, env.token(t, env.user), "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/movements/"+m.ID, env.token(t, env.admin), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("owner status = %d, want 200", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/movements/nope", env.token(t, env.admin), "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing id status = %d, want 404", rr.Code)
	}
}

func TestCreateMovementRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	body := `{"concept":"Team lunch","amount":-42.5}`

	rr := env.do(t, http.MethodPost, "/api/movements", env.token(t, env.user), body)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}

	rr = env.do(t, http.MethodPost, "/api/movements", env.token(t, env.admin), body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("admin status = %d, want 201 (body %s)", rr.Code, rr.Body.String())
	}
	var m core.Movement
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &m); err != nil {
		t.Fatalf("decode movement: %v", err)
	}
	if m.Concept != "Team lunch" || m.Amount != -42.5 || m.UserID != env.admin.ID {
		t.Fatalf("unexpected movement %+v", m)
	}
}

func TestCreateMovementForAnotherUser(t *testing.T) {
	env := newTestEnv(t)
	body := `{"concept":"Bob refund","amount":30,"userId":"` + env.user.ID + `"}`

	rr := env.do(t, http.MethodPost, "/api/movements", env.token(t, env.admin), body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rr.Code)
	}
	var m core.Movement
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &m); err != nil {
		t.Fatalf("decode movement: %v", err)
	}
	if m.UserID != env.user.ID {
		t.Fatalf("owner = %s, want %s", m.UserID, env.user.ID)
	}
}

func TestCreateMovementValidationDetails(t *testing.T) {
	env := newTestEnv(t)
	body := `{"concept":"","amount":0,"date":"not-a-date"}`

	rr := env.do(t, http.MethodPost, "/api/movements", env.token(t, env.admin), body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	e := decodeEnvelope(t, rr)
	if e.Error != "Validation failed" || len(e.Details) != 3 {
		t.Fatalf("unexpected envelope %+v", e)
	}
	fields := []string{e.Details[0].Field, e.Details[1].Field, e.Details[2].Field}
	want := []string{"concept", "amount", "date"}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("details order = %v, want %v", fields, want)
		}
	}
}

func TestUpdateMovementPartialPatch(t *testing.T) {
	env := newTestEnv(t)
	m := env.seedMovement(t, env.admin.ID, "Rent", -900, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	rr := env.do(t, http.MethodPut, "/api/movements/"+m.ID, env.token(t, env.admin), `{"amount":-950}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	var updated core.Movement
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &updated); err != nil {
		t.Fatalf("decode movement: %v", err)
	}
	if updated.Amount != -950 || updated.Concept != "Rent" {
		t.Fatalf("unexpected movement %+v", updated)
	}

	// A patch that breaks a field rule is rejected even though the field
	// is valid on the stored record.
	rr = env.do(t, http.MethodPut, "/api/movements/"+m.ID, env.token(t, env.admin), `{"concept":"ab"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid patch status = %d, want 400", rr.Code)
	}
}

func TestDeleteMovement(t *testing.T) {
	env := newTestEnv(t)
	m := env.seedMovement(t, env.admin.ID, "Mistake", -10, time.Now())

	rr := env.do(t, http.MethodDelete, "/api/movements/"+m.ID, env.token(t, env.admin), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	rr = env.do(t, http.MethodDelete, "/api/movements/"+m.ID, env.token(t, env.admin), "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rr.Code)
	}
}

func TestUserRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/users", env.token(t, env.user), "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/users", env.token(t, env.admin), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("admin status = %d, want 200", rr.Code)
	}
	var page services.PaginatedUsers
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Users) != 2 || page.Users[0].Role != core.RoleAdmin {
		t.Fatalf("unexpected users page %+v", page.Users)
	}
}

func TestUpdateUserRejectsSelf(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPut, "/api/users/"+env.admin.ID, env.token(t, env.admin), `{"name":"New Name"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("self-update status = %d, want 403", rr.Code)
	}

	rr = env.do(t, http.MethodPut, "/api/users/"+env.user.ID, env.token(t, env.admin), `{"role":"ADMIN"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	var u core.User
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &u); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if u.Role != core.RoleAdmin {
		t.Fatalf("role = %s, want ADMIN", u.Role)
	}
}

func TestUpdateUserInvalidRole(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPut, "/api/users/"+env.user.ID, env.token(t, env.admin), `{"role":"ROOT"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	e := decodeEnvelope(t, rr)
	if len(e.Details) != 1 || e.Details[0].Field != "role" {
		t.Fatalf("unexpected details %+v", e.Details)
	}
}

func TestReportsMonthsValidation(t *testing.T) {
	env := newTestEnv(t)

	for _, q := range []string{"?months=0", "?months=25", "?months=abc"} {
		rr := env.do(t, http.MethodGet, "/api/reports"+q, env.token(t, env.admin), "")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s status = %d, want 400", q, rr.Code)
		}
	}

	rr := env.do(t, http.MethodGet, "/api/reports", env.token(t, env.admin), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("default months status = %d, want 200", rr.Code)
	}
}

func TestReportsData(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()
	env.seedMovement(t, env.admin.ID, "Salary", 1000, now)
	env.seedMovement(t, env.admin.ID, "Dinner", -400, now)

	rr := env.do(t, http.MethodGet, "/api/reports?months=3", env.token(t, env.admin), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var data core.ReportsData
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &data); err != nil {
		t.Fatalf("decode reports: %v", err)
	}
	if data.Balance != 600 || data.TotalIncome != 1000 || data.TotalExpenses != 400 {
		t.Fatalf("unexpected totals %+v", data)
	}
	if len(data.MonthlyData) != 1 || data.MonthlyData[0].MovementsCount != 2 {
		t.Fatalf("unexpected monthly buckets %+v", data.MonthlyData)
	}
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t)
	env.seedMovement(t, env.admin.ID, "Salary", 1000, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))

	rr := env.do(t, http.MethodGet, "/api/reports/csv", env.token(t, env.admin), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("content disposition = %q", cd)
	}

	body := rr.Body.String()
	if !strings.HasPrefix(body, "\ufeff") {
		t.Fatalf("expected UTF-8 BOM prefix")
	}
	if !strings.Contains(body, "Concept,Amount,Date,User,Type") {
		t.Fatalf("missing header row in %q", body)
	}
	if !strings.Contains(body, `"Salary",1000,2025-05-01,"Ana",income`) {
		t.Fatalf("missing data row in %q", body)
	}
}

func TestFirstLoginProvisionsUser(t *testing.T) {
	env := newTestEnv(t)
	token, err := auth.NewToken(testSecret, auth.TokenClaims{Email: "carla@example.com", Name: "Carla"}, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	rr := env.do(t, http.MethodGet, "/api/movements", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	u, err := env.store.GetUserByEmail(context.Background(), "carla@example.com")
	if err != nil {
		t.Fatalf("lookup provisioned user: %v", err)
	}
	if u.Role != core.RoleUser || u.Name != "Carla" {
		t.Fatalf("unexpected provisioned user %+v", u)
	}
}
