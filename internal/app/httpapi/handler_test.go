package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	app "github.com/megamart/ledger-service/internal/app"
)

func newTestServer(t *testing.T) (*httptest.Server, *app.Application, string) {
	t.Helper()

	application, err := app.New(app.Stores{}, nil)
	if err != nil {
		t.Fatalf("build application: %v", err)
	}
	if err := application.Catalog.EnsureAdmin(context.Background(), "admin", "hunter2"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	srv := httptest.NewServer(NewHandler(application))
	t.Cleanup(srv.Close)

	status, body := doJSON(t, srv, http.MethodPost, "/admin/login", "", map[string]string{
		"username": "admin",
		"password": "hunter2",
	})
	if status != http.StatusOK {
		t.Fatalf("admin login status %d: %v", status, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("missing admin token in %v", body)
	}
	return srv, application, token
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func doJSONList(t *testing.T, srv *httptest.Server, path, token string) (int, []map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	var body []map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func TestRegistrationAndReferralFlow(t *testing.T) {
	srv, _, _ := newTestServer(t)

	status, root := doJSON(t, srv, http.MethodPost, "/users/register", "", map[string]string{
		"username": "root",
		"password": "secret",
	})
	if status != http.StatusCreated {
		t.Fatalf("register root: %d %v", status, root)
	}
	rootCode, _ := root["referCode"].(string)
	if len(rootCode) != 6 {
		t.Fatalf("refer code = %q", rootCode)
	}

	status, member := doJSON(t, srv, http.MethodPost, "/users/register", "", map[string]string{
		"username":    "member",
		"password":    "secret",
		"sponsorCode": rootCode,
	})
	if status != http.StatusCreated {
		t.Fatalf("register member: %d %v", status, member)
	}

	// Registering against an unknown sponsor code fails.
	status, _ = doJSON(t, srv, http.MethodPost, "/users/register", "", map[string]string{
		"username":    "stray",
		"password":    "secret",
		"sponsorCode": "000000",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad sponsor, got %d", status)
	}

	// Duplicate usernames conflict.
	status, _ = doJSON(t, srv, http.MethodPost, "/users/register", "", map[string]string{
		"username":    "member",
		"password":    "secret",
		"sponsorCode": rootCode,
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d", status)
	}

	rootID, _ := root["userId"].(string)
	status, report := doJSON(t, srv, http.MethodGet, "/users/"+rootID+"/team", "", nil)
	if status != http.StatusOK {
		t.Fatalf("team report: %d %v", status, report)
	}
	if got := report["totalMembers"].(float64); got != 1 {
		t.Fatalf("total members = %v", got)
	}
}

func TestDepositAndWithdrawLifecycle(t *testing.T) {
	srv, application, token := newTestServer(t)
	ctx := context.Background()

	status, root := doJSON(t, srv, http.MethodPost, "/users/register", "", map[string]string{
		"username": "alice",
		"password": "secret",
	})
	if status != http.StatusCreated {
		t.Fatalf("register: %d %v", status, root)
	}
	userID, _ := root["userId"].(string)

	// Deposit listing is admin only.
	status, _ = doJSONList(t, srv, "/deposits", "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}

	status, dep := doJSON(t, srv, http.MethodPost, "/deposits", "", map[string]any{
		"username":   "alice",
		"amount":     100.0,
		"screenshot": "proof.png",
	})
	if status != http.StatusCreated {
		t.Fatalf("submit deposit: %d %v", status, dep)
	}
	depositID, _ := dep["depositId"].(string)

	status, reviewed := doJSON(t, srv, http.MethodPut, "/deposits/"+depositID+"/status", token, map[string]string{"status": "success"})
	if status != http.StatusOK {
		t.Fatalf("review deposit: %d %v", status, reviewed)
	}

	// A second review must not credit again.
	status, _ = doJSON(t, srv, http.MethodPut, "/deposits/"+depositID+"/status", token, map[string]string{"status": "success"})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on re-review, got %d", status)
	}

	detail, err := application.Users.Get(ctx, userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if detail.User.Balance != 100 {
		t.Fatalf("balance after credit = %v", detail.User.Balance)
	}

	status, req := doJSON(t, srv, http.MethodPost, "/withdraw-requests", "", map[string]any{
		"userId":        userID,
		"amount":        40.0,
		"walletAddress": "TXYZ",
	})
	if status != http.StatusCreated {
		t.Fatalf("submit withdraw request: %d %v", status, req)
	}
	withdrawID, _ := req["withdrawId"].(string)
	if got := req["newBalance"].(float64); got != 60 {
		t.Fatalf("newBalance = %v", got)
	}

	detail, _ = application.Users.Get(ctx, userID)
	if detail.User.Balance != 60 {
		t.Fatalf("balance after debit = %v", detail.User.Balance)
	}

	// Overdrafts are rejected without side effects.
	status, _ = doJSON(t, srv, http.MethodPost, "/withdraw-requests", "", map[string]any{
		"userId": userID,
		"amount": 1000.0,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for overdraft, got %d", status)
	}

	status, cancelled := doJSON(t, srv, http.MethodPut, "/withdraw-requests/"+withdrawID+"/cancel", token, nil)
	if status != http.StatusOK {
		t.Fatalf("cancel: %d %v", status, cancelled)
	}
	detail, _ = application.Users.Get(ctx, userID)
	if detail.User.Balance != 100 {
		t.Fatalf("balance after refund = %v", detail.User.Balance)
	}

	status, _ = doJSON(t, srv, http.MethodPut, "/withdraw-requests/"+withdrawID+"/cancel", token, nil)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on double cancel, got %d", status)
	}

	status, stats := doJSON(t, srv, http.MethodGet, "/dashboard/stats", token, nil)
	if status != http.StatusOK {
		t.Fatalf("dashboard stats: %d %v", status, stats)
	}
	if got := stats["totalDeposited"].(float64); got != 100 {
		t.Fatalf("total deposited = %v", got)
	}
}

func TestTaskAssignmentOverHTTP(t *testing.T) {
	srv, _, token := newTestServer(t)

	status, root := doJSON(t, srv, http.MethodPost, "/users/register", "", map[string]string{
		"username": "worker",
		"password": "secret",
	})
	if status != http.StatusCreated {
		t.Fatalf("register: %d %v", status, root)
	}
	userID, _ := root["userId"].(string)

	// Assigning tasks is admin only.
	status, _ = doJSON(t, srv, http.MethodPost, "/users/"+userID+"/tasks", "", map[string]any{
		"tasks": []map[string]any{{"taskNumber": 1, "commission": 2.5}},
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}

	status, assigned := doJSON(t, srv, http.MethodPost, "/users/"+userID+"/tasks", token, map[string]any{
		"tasks": []map[string]any{
			{"taskNumber": 1, "title": "review item", "commission": 2.5},
			{"taskNumber": 2, "title": "share link", "commission": 1.0},
		},
	})
	if status != http.StatusCreated {
		t.Fatalf("assign: %d %v", status, assigned)
	}

	status, _ = doJSON(t, srv, http.MethodPost, "/users/"+userID+"/tasks", token, map[string]any{
		"tasks": []map[string]any{{"taskNumber": 1, "commission": 9.0}},
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate task number, got %d", status)
	}

	status, updated := doJSON(t, srv, http.MethodPut, fmt.Sprintf("/users/%s/tasks/1", userID), "", map[string]string{"status": "completed"})
	if status != http.StatusOK {
		t.Fatalf("complete task: %d %v", status, updated)
	}
	tasks, _ := updated["tasks"].([]any)
	first, _ := tasks[0].(map[string]any)
	if first["status"] != "complete" {
		t.Fatalf("task status = %v", first["status"])
	}
	if first["completedDate"] == nil {
		t.Fatal("missing completion stamp")
	}
}

func TestCatalogAndOrders(t *testing.T) {
	srv, _, token := newTestServer(t)

	status, root := doJSON(t, srv, http.MethodPost, "/users/register", "", map[string]string{
		"username": "buyer",
		"password": "secret",
	})
	if status != http.StatusCreated {
		t.Fatalf("register: %d %v", status, root)
	}
	userID, _ := root["userId"].(string)

	status, plan := doJSON(t, srv, http.MethodPost, "/plans", token, map[string]any{
		"name":  "starter",
		"price": 120.0,
	})
	if status != http.StatusCreated {
		t.Fatalf("create plan: %d %v", status, plan)
	}
	planID, _ := plan["planId"].(string)

	status, placed := doJSON(t, srv, http.MethodPost, "/orders", "", map[string]string{
		"userId": userID,
		"planId": planID,
	})
	if status != http.StatusCreated {
		t.Fatalf("place order: %d %v", status, placed)
	}
	if placed["amount"].(float64) != 120 {
		t.Fatalf("order amount = %v", placed["amount"])
	}
	orderID, _ := placed["orderId"].(string)

	status, reviewed := doJSON(t, srv, http.MethodPut, "/orders/"+orderID+"/status", token, map[string]string{"status": "approved"})
	if status != http.StatusOK {
		t.Fatalf("review order: %d %v", status, reviewed)
	}

	status, wallet := doJSON(t, srv, http.MethodPost, "/wallets", token, map[string]string{
		"walletName":    "USDT",
		"walletAddress": "TAAA",
	})
	if status != http.StatusCreated {
		t.Fatalf("create wallet: %d %v", status, wallet)
	}

	status, wallets := doJSONList(t, srv, "/wallets", "")
	if status != http.StatusOK || len(wallets) != 1 {
		t.Fatalf("list wallets: %d %v", status, wallets)
	}

	status, contact := doJSON(t, srv, http.MethodPost, "/support", token, map[string]string{"telegramUsername": "@help"})
	if status != http.StatusCreated {
		t.Fatalf("set support: %d %v", status, contact)
	}
	status, got := doJSON(t, srv, http.MethodGet, "/support", "", nil)
	if status != http.StatusOK || got["telegramUsername"] != "@help" {
		t.Fatalf("get support: %d %v", status, got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := RateLimit(inner, 1, 2)
	srv := httptest.NewServer(limited)
	defer srv.Close()

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		resp, err := srv.Client().Get(srv.URL + "/health")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Fatalf("burst requests rejected: %v", statuses)
	}
	limitedCount := 0
	for _, s := range statuses {
		if s == http.StatusTooManyRequests {
			limitedCount++
		}
	}
	if limitedCount == 0 {
		t.Fatalf("expected at least one limited request, got %v", statuses)
	}
}
