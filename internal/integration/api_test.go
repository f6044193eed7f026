package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"task_manager/internal/config"
	httpServer "task_manager/internal/http"
	"task_manager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

// setupServer spins up the full router over a real database. Tests are
// skipped when DATABASE_URL is not set.
func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	t.Setenv("JWT_SECRET", "integration-test-secret")
	service.InitJWT()

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	applyMigrations(t, db)
	if _, err := db.Exec(context.Background(),
		`TRUNCATE tasks, labels, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	httpServer.RegisterRoutes(r, db, &config.Config{
		Version:        "test",
		APIRateLimit:   1000,
		APIRateWindow:  time.Minute,
		AuthRateLimit:  1000,
		AuthRateWindow: time.Minute,
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			// label listing returns a bare array
			decoded = map[string]any{"_raw": string(raw)}
		}
	}
	return res.StatusCode, decoded
}

func signup(t *testing.T, base, username, email string) string {
	t.Helper()
	code, body := doJSON(t, http.MethodPost, base+"/signup", "", map[string]any{
		"username": username,
		"email":    email,
		"password": "password123",
	})
	if code != http.StatusCreated {
		t.Fatalf("signup %s: expected 201, got %d (%v)", email, code, body)
	}
	token, ok := body["token"].(string)
	if !ok || token == "" {
		t.Fatalf("signup %s: no token in response %v", email, body)
	}
	return token
}

func TestSignupDuplicateEmail(t *testing.T) {
	srv := setupServer(t)

	signup(t, srv.URL, "first", "dup@example.com")

	// same email, different username still fails
	code, body := doJSON(t, http.MethodPost, srv.URL+"/signup", "", map[string]any{
		"username": "second",
		"email":    "dup@example.com",
		"password": "password123",
	})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if body["message"] != "User already exists" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestSignupTokenBindsUser(t *testing.T) {
	srv := setupServer(t)

	token := signup(t, srv.URL, "ann", "ann@example.com")
	userID, err := service.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if userID != 1 {
		t.Fatalf("expected first user id 1, got %d", userID)
	}
}

func TestLoginNoEnumerationSignal(t *testing.T) {
	srv := setupServer(t)

	signup(t, srv.URL, "ann", "ann@example.com")

	wrongPassCode, wrongPassBody := doJSON(t, http.MethodPost, srv.URL+"/login", "", map[string]any{
		"email": "ann@example.com", "password": "wrongpassword",
	})
	noUserCode, noUserBody := doJSON(t, http.MethodPost, srv.URL+"/login", "", map[string]any{
		"email": "ghost@example.com", "password": "wrongpassword",
	})

	if wrongPassCode != http.StatusBadRequest || noUserCode != http.StatusBadRequest {
		t.Fatalf("expected 400/400, got %d/%d", wrongPassCode, noUserCode)
	}
	if fmt.Sprint(wrongPassBody) != fmt.Sprint(noUserBody) {
		t.Fatalf("error shapes differ: %v vs %v", wrongPassBody, noUserBody)
	}
}

func TestLoginReturnsUsername(t *testing.T) {
	srv := setupServer(t)

	signup(t, srv.URL, "ann", "ann@example.com")

	code, body := doJSON(t, http.MethodPost, srv.URL+"/login", "", map[string]any{
		"email": "ann@example.com", "password": "password123",
	})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	user, _ := body["user"].(map[string]any)
	if user["username"] != "ann" {
		t.Fatalf("expected username ann, got %v", body)
	}
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	srv := setupServer(t)

	tokenA := signup(t, srv.URL, "alice", "alice@example.com")
	tokenB := signup(t, srv.URL, "bob", "bob@example.com")

	code, task := doJSON(t, http.MethodPost, srv.URL+"/tasks", tokenA, map[string]any{
		"title": "alice's task",
	})
	if code != http.StatusCreated {
		t.Fatalf("create task: expected 201, got %d", code)
	}
	taskID := int64(task["id"].(float64))
	taskURL := fmt.Sprintf("%s/tasks/%d", srv.URL, taskID)

	// not-owned must look exactly like not-found, never forbidden
	code, body := doJSON(t, http.MethodPut, taskURL, tokenB, map[string]any{"title": "hijacked"})
	if code != http.StatusNotFound {
		t.Fatalf("cross-user update: expected 404, got %d (%v)", code, body)
	}
	code, _ = doJSON(t, http.MethodDelete, taskURL, tokenB, nil)
	if code != http.StatusNotFound {
		t.Fatalf("cross-user delete: expected 404, got %d", code)
	}

	// and the task is unchanged
	code, listing := doJSON(t, http.MethodGet, srv.URL+"/tasks", tokenA, nil)
	if code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", code)
	}
	tasks := listing["tasks"].([]any)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].(map[string]any)["title"] != "alice's task" {
		t.Fatalf("task was modified: %v", tasks[0])
	}
}

func TestListFilterSortPagination(t *testing.T) {
	srv := setupServer(t)

	token := signup(t, srv.URL, "ann", "ann@example.com")

	seed := []map[string]any{
		{"title": "later", "status": "pending", "priority": "high", "due_date": "2025-01-15"},
		{"title": "earlier", "status": "pending", "priority": "high", "due_date": "2025-01-01"},
		{"title": "other", "status": "completed", "priority": "low", "due_date": "2025-01-05"},
	}
	for _, task := range seed {
		if code, body := doJSON(t, http.MethodPost, srv.URL+"/tasks", token, task); code != http.StatusCreated {
			t.Fatalf("seed task: expected 201, got %d (%v)", code, body)
		}
	}

	code, body := doJSON(t, http.MethodGet,
		srv.URL+"/tasks?status=pending&priority=high&sort=asc&page=1", token, nil)
	if code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", code)
	}

	tasks := body["tasks"].([]any)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].(map[string]any)["title"] != "earlier" || tasks[1].(map[string]any)["title"] != "later" {
		t.Fatalf("wrong order: %v", tasks)
	}
	if body["total"].(float64) != 2 || body["pages"].(float64) != 1 {
		t.Fatalf("expected total=2 pages=1, got total=%v pages=%v", body["total"], body["pages"])
	}

	// descending flips the order
	code, body = doJSON(t, http.MethodGet,
		srv.URL+"/tasks?status=pending&priority=high&sort=desc", token, nil)
	if code != http.StatusOK {
		t.Fatalf("list desc: expected 200, got %d", code)
	}
	tasks = body["tasks"].([]any)
	if tasks[0].(map[string]any)["title"] != "later" {
		t.Fatalf("wrong desc order: %v", tasks)
	}

	// out-of-range page is empty, not an error
	code, body = doJSON(t, http.MethodGet,
		srv.URL+"/tasks?status=pending&priority=high&page=2", token, nil)
	if code != http.StatusOK {
		t.Fatalf("page 2: expected 200, got %d", code)
	}
	if len(body["tasks"].([]any)) != 0 {
		t.Fatalf("expected empty page, got %v", body["tasks"])
	}
	if body["total"].(float64) != 2 || body["pages"].(float64) != 1 {
		t.Fatalf("expected total=2 pages=1 on empty page, got %v", body)
	}
}

func TestLabelRoundTripAndDanglingReference(t *testing.T) {
	srv := setupServer(t)

	token := signup(t, srv.URL, "ann", "ann@example.com")

	code, bug := doJSON(t, http.MethodPost, srv.URL+"/labels", token, map[string]any{
		"name": "bug", "color": "#FF0000",
	})
	if code != http.StatusCreated {
		t.Fatalf("create label: expected 201, got %d", code)
	}
	code, urgent := doJSON(t, http.MethodPost, srv.URL+"/labels", token, map[string]any{
		"name": "urgent",
	})
	if code != http.StatusCreated {
		t.Fatalf("create label: expected 201, got %d", code)
	}
	if urgent["color"] != "#000000" {
		t.Fatalf("expected default color, got %v", urgent["color"])
	}

	bugID := int64(bug["id"].(float64))
	urgentID := int64(urgent["id"].(float64))

	code, _ = doJSON(t, http.MethodPost, srv.URL+"/tasks", token, map[string]any{
		"title": "tagged", "labels": []int64{bugID, urgentID},
	})
	if code != http.StatusCreated {
		t.Fatalf("create task: expected 201, got %d", code)
	}

	code, listing := doJSON(t, http.MethodGet, srv.URL+"/tasks", token, nil)
	if code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", code)
	}
	got := listing["tasks"].([]any)[0].(map[string]any)["labels"].([]any)
	if len(got) != 2 {
		t.Fatalf("expected 2 resolved labels, got %v", got)
	}
	names := map[string]string{}
	for _, l := range got {
		lm := l.(map[string]any)
		names[lm["name"].(string)] = lm["color"].(string)
	}
	if names["bug"] != "#FF0000" || names["urgent"] != "#000000" {
		t.Fatalf("labels not fully resolved: %v", names)
	}

	// deleting a label leaves a dangling reference that resolution drops
	code, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/labels/%d", srv.URL, bugID), token, nil)
	if code != http.StatusOK {
		t.Fatalf("delete label: expected 200, got %d", code)
	}

	code, listing = doJSON(t, http.MethodGet, srv.URL+"/tasks", token, nil)
	if code != http.StatusOK {
		t.Fatalf("list after delete: expected 200, got %d", code)
	}
	got = listing["tasks"].([]any)[0].(map[string]any)["labels"].([]any)
	if len(got) != 1 || got[0].(map[string]any)["name"] != "urgent" {
		t.Fatalf("expected only urgent to survive, got %v", got)
	}
}

func TestMissingResourcesAre404(t *testing.T) {
	srv := setupServer(t)

	token := signup(t, srv.URL, "ann", "ann@example.com")

	checks := []struct {
		method string
		path   string
		body   map[string]any
	}{
		{http.MethodPut, "/tasks/999999", map[string]any{"title": "x"}},
		{http.MethodDelete, "/tasks/999999", nil},
		{http.MethodPut, "/labels/999999", map[string]any{"name": "x"}},
		{http.MethodDelete, "/labels/999999", nil},
	}
	for _, chk := range checks {
		code, _ := doJSON(t, chk.method, srv.URL+chk.path, token, chk.body)
		if code != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", chk.method, chk.path, code)
		}
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := setupServer(t)

	code, body := doJSON(t, http.MethodGet, srv.URL+"/tasks", "", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if body["message"] != "No token supplied" {
		t.Fatalf("unexpected message %v", body["message"])
	}

	code, body = doJSON(t, http.MethodGet, srv.URL+"/labels", "garbage-token", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if body["message"] != "invalid/expired token" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestTaskUpdateRefreshesUpdatedAt(t *testing.T) {
	srv := setupServer(t)

	token := signup(t, srv.URL, "ann", "ann@example.com")

	code, task := doJSON(t, http.MethodPost, srv.URL+"/tasks", token, map[string]any{"title": "original"})
	if code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", code)
	}
	createdAt := task["updated_at"].(string)
	taskID := int64(task["id"].(float64))

	time.Sleep(50 * time.Millisecond)

	code, updated := doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/tasks/%d", srv.URL, taskID), token,
		map[string]any{"status": "completed"})
	if code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", code)
	}
	if updated["title"] != "original" {
		t.Fatalf("partial update clobbered title: %v", updated["title"])
	}
	if updated["status"] != "completed" {
		t.Fatalf("status not updated: %v", updated["status"])
	}
	if updated["updated_at"].(string) == createdAt {
		t.Fatal("updated_at was not refreshed")
	}
}
