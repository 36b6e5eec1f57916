// Package httpapi exposes the application services over REST.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	app "github.com/megamart/ledger-service/internal/app"
	"github.com/megamart/ledger-service/internal/app/domain/catalog"
	"github.com/megamart/ledger-service/internal/app/domain/deposit"
	"github.com/megamart/ledger-service/internal/app/domain/order"
	"github.com/megamart/ledger-service/internal/app/domain/task"
	"github.com/megamart/ledger-service/internal/app/domain/withdrawal"
	"github.com/megamart/ledger-service/internal/app/metrics"
	"github.com/megamart/ledger-service/internal/app/services/catalogsvc"
	ledgersvc "github.com/megamart/ledger-service/internal/app/services/ledger"
	taskssvc "github.com/megamart/ledger-service/internal/app/services/tasks"
	userssvc "github.com/megamart/ledger-service/internal/app/services/users"
	"github.com/megamart/ledger-service/internal/app/storage"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app   *app.Application
	audit *auditLog
}

// NewHandler returns a mux exposing the core REST API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application, audit: newAuditLog(0)}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.health)
	mux.HandleFunc("/admin/login", h.adminLogin)
	mux.HandleFunc("/admin/password", h.adminPassword)
	mux.HandleFunc("/admin/audit", h.adminAudit)
	mux.HandleFunc("/users", h.users)
	mux.HandleFunc("/users/", h.userResources)
	mux.HandleFunc("/deposits", h.deposits)
	mux.HandleFunc("/deposits/", h.depositResources)
	mux.HandleFunc("/withdraw-details", h.withdrawDetails)
	mux.HandleFunc("/withdraw-requests", h.withdrawRequests)
	mux.HandleFunc("/withdraw-requests/", h.withdrawRequestResources)
	mux.HandleFunc("/orders", h.orders)
	mux.HandleFunc("/orders/", h.orderResources)
	mux.HandleFunc("/products", h.products)
	mux.HandleFunc("/products/", h.productResources)
	mux.HandleFunc("/plans", h.plans)
	mux.HandleFunc("/plans/", h.planResources)
	mux.HandleFunc("/wallets", h.wallets)
	mux.HandleFunc("/wallets/", h.walletResources)
	mux.HandleFunc("/support", h.support)
	mux.HandleFunc("/support/", h.supportResources)
	mux.HandleFunc("/dashboard/stats", h.dashboardStats)
	mux.HandleFunc("/dashboard/transactions", h.dashboardTransactions)
	return mux
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Admin --------------------------------------------------------------------

func (h *handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	token, err := h.app.Catalog.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *handler) adminPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.app.Catalog.ChangePassword(r.Context(), payload.Username, payload.Password); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	h.recordAudit(r, "password changed")
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) adminAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, h.audit.list())
}

// --- Users --------------------------------------------------------------------

func (h *handler) users(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !h.requireAdmin(w, r) {
			return
		}
		users, err := h.app.Users.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) userResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/users"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch parts[0] {
	case "register":
		h.register(w, r)
		return
	case "login":
		h.login(w, r)
		return
	case "summaries":
		h.userSummaries(w, r)
		return
	}

	userID := parts[0]
	if len(parts) == 1 {
		h.userByID(w, r, userID)
		return
	}

	switch parts[1] {
	case "adjust":
		h.userAdjust(w, r, userID)
	case "team":
		h.userTeam(w, r, userID)
	case "tasks":
		h.userTasks(w, r, userID, parts[2:])
	case "deposits":
		h.userDeposits(w, r, userID)
	case "withdraw-details":
		h.userWithdrawDetails(w, r, userID)
	case "withdraw-requests":
		h.userWithdrawRequests(w, r, userID)
	case "orders":
		h.userOrders(w, r, userID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Username    string `json:"username"`
		Password    string `json:"password"`
		SponsorCode string `json:"sponsorCode"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := h.app.Users.Register(r.Context(), payload.Username, payload.Password, payload.SponsorCode)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	metrics.RecordRegistration()
	writeJSON(w, http.StatusCreated, map[string]string{
		"userId":    u.ID,
		"referCode": u.ReferCode,
	})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := h.app.Users.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) userSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Usernames []string `json:"usernames"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	summaries, err := h.app.Users.SummariesByUsernames(r.Context(), payload.Usernames)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *handler) userByID(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		detail, err := h.app.Users.Get(r.Context(), userID)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, detail)

	case http.MethodPut:
		if !h.requireAdmin(w, r) {
			return
		}
		var payload struct {
			Balance *float64 `json:"balance"`
			Remark  *string  `json:"remark"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		u, err := h.app.Users.Update(r.Context(), userID, payload.Balance, payload.Remark)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		h.recordAudit(r, "user updated")
		writeJSON(w, http.StatusOK, u)

	case http.MethodDelete:
		if !h.requireAdmin(w, r) {
			return
		}
		if err := h.app.Users.Delete(r.Context(), userID); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		h.recordAudit(r, "user deleted")
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) userAdjust(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}
	var payload struct {
		Deduct float64 `json:"deduct"`
		Add    float64 `json:"add"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	balance, err := h.app.Ledger.AdjustBalance(r.Context(), userID, payload.Deduct, payload.Add)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	metrics.RecordBalanceMutation("adjust", payload.Add-payload.Deduct)
	h.recordAudit(r, "balance adjusted")
	writeJSON(w, http.StatusOK, map[string]float64{"balance": balance})
}

func (h *handler) userTeam(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	report, err := h.app.Team.Report(r.Context(), userID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handler) userTasks(w http.ResponseWriter, r *http.Request, userID string, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			a, err := h.app.Tasks.Get(r.Context(), userID)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, http.StatusOK, a)

		case http.MethodPost:
			if !h.requireAdmin(w, r) {
				return
			}
			var payload struct {
				Tasks []task.Task `json:"tasks"`
			}
			if err := decodeJSON(r.Body, &payload); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			a, err := h.app.Tasks.Assign(r.Context(), userID, payload.Tasks)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			h.recordAudit(r, "tasks assigned")
			writeJSON(w, http.StatusCreated, a)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	taskNumber, err := strconv.Atoi(rest[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid task number"))
		return
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	status, err := task.ParseStatus(payload.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a, err := h.app.Tasks.SetStatus(r.Context(), userID, taskNumber, status)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handler) userDeposits(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	detail, err := h.app.Users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	deposits, err := h.app.Ledger.ListDepositsByUsername(r.Context(), detail.User.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, deposits)
}

func (h *handler) userWithdrawDetails(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	details, err := h.app.Ledger.ListWithdrawDetailsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *handler) userWithdrawRequests(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	requests, err := h.app.Ledger.ListWithdrawRequestsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *handler) userOrders(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	orders, err := h.app.Orders.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// --- Deposits -----------------------------------------------------------------

func (h *handler) deposits(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload struct {
			Username   string  `json:"username"`
			Amount     float64 `json:"amount"`
			Screenshot string  `json:"screenshot"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		d, err := h.app.Ledger.SubmitDeposit(r.Context(), payload.Username, payload.Amount, payload.Screenshot)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"depositId": d.ID})

	case http.MethodGet:
		if !h.requireAdmin(w, r) {
			return
		}
		var (
			deposits []deposit.Deposit
			err      error
		)
		if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
			deposits, err = h.app.Ledger.SearchDeposits(r.Context(), search)
		} else if username := strings.TrimSpace(r.URL.Query().Get("username")); username != "" {
			deposits, err = h.app.Ledger.ListDepositsByUsername(r.Context(), username)
		} else {
			deposits, err = h.app.Ledger.ListDeposits(r.Context())
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, deposits)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) depositResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/deposits"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[1] != "status" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	status, err := deposit.ParseStatus(payload.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	d, err := h.app.Ledger.ReviewDeposit(r.Context(), parts[0], status)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if d.Status == deposit.StatusSuccess {
		metrics.RecordBalanceMutation("deposit_credit", d.Amount)
	}
	h.recordAudit(r, "deposit reviewed")
	writeJSON(w, http.StatusOK, d)
}

// --- Withdrawals --------------------------------------------------------------

func (h *handler) withdrawDetails(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload struct {
			UserID        string `json:"userId"`
			WalletName    string `json:"walletName"`
			Protocol      string `json:"protocol"`
			WalletAddress string `json:"walletAddress"`
			Names         string `json:"names"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		d, err := h.app.Ledger.SubmitWithdrawDetail(r.Context(), withdrawal.Detail{
			UserID:        payload.UserID,
			WalletName:    payload.WalletName,
			Protocol:      payload.Protocol,
			WalletAddress: payload.WalletAddress,
			Names:         payload.Names,
		})
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, d)

	case http.MethodGet:
		if !h.requireAdmin(w, r) {
			return
		}
		details, err := h.app.Ledger.ListWithdrawDetails(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, details)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) withdrawRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload struct {
			UserID        string  `json:"userId"`
			Amount        float64 `json:"amount"`
			WalletName    string  `json:"walletName"`
			WalletAddress string  `json:"walletAddress"`
			Protocol      string  `json:"protocol"`
			Names         string  `json:"names"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		req, newBalance, err := h.app.Ledger.SubmitWithdrawRequest(r.Context(), withdrawal.Request{
			UserID:        payload.UserID,
			Amount:        payload.Amount,
			WalletName:    payload.WalletName,
			WalletAddress: payload.WalletAddress,
			Protocol:      payload.Protocol,
			Names:         payload.Names,
		})
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		metrics.RecordBalanceMutation("withdraw_debit", req.Amount)
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"withdrawId": req.ID,
			"newBalance": newBalance,
		})

	case http.MethodGet:
		if !h.requireAdmin(w, r) {
			return
		}
		requests, err := h.app.Ledger.ListWithdrawRequests(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, requests)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) withdrawRequestResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/withdraw-requests"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}

	switch parts[1] {
	case "approve":
		req, err := h.app.Ledger.ApproveWithdrawRequest(r.Context(), parts[0])
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		h.recordAudit(r, "withdraw request approved")
		writeJSON(w, http.StatusOK, req)
	case "cancel":
		req, err := h.app.Ledger.CancelWithdrawRequest(r.Context(), parts[0])
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		metrics.RecordBalanceMutation("withdraw_refund", req.Amount)
		h.recordAudit(r, "withdraw request cancelled")
		writeJSON(w, http.StatusOK, req)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// --- Orders -------------------------------------------------------------------

func (h *handler) orders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload struct {
			UserID string `json:"userId"`
			PlanID string `json:"planId"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		o, err := h.app.Orders.Place(r.Context(), payload.UserID, payload.PlanID)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, o)

	case http.MethodGet:
		if !h.requireAdmin(w, r) {
			return
		}
		orders, err := h.app.Orders.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, orders)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) orderResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/orders"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[1] != "status" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	status, err := order.ParseStatus(payload.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	o, err := h.app.Orders.Review(r.Context(), parts[0], status)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	h.recordAudit(r, "order reviewed")
	writeJSON(w, http.StatusOK, o)
}

// --- Catalog ------------------------------------------------------------------

func (h *handler) products(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		products, err := h.app.Catalog.ListProducts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, products)

	case http.MethodPost:
		if !h.requireAdmin(w, r) {
			return
		}
		var payload catalog.Product
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		p, err := h.app.Catalog.CreateProduct(r.Context(), payload)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, p)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) productResources(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/products"), "/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}
	if err := h.app.Catalog.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) plans(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		plans, err := h.app.Catalog.ListPlans(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, plans)

	case http.MethodPost:
		if !h.requireAdmin(w, r) {
			return
		}
		var payload catalog.Plan
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		payload.ID = ""
		p, err := h.app.Catalog.UpsertPlan(r.Context(), payload)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, p)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) planResources(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/plans"), "/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}

	switch r.Method {
	case http.MethodPut:
		var payload catalog.Plan
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		payload.ID = id
		p, err := h.app.Catalog.UpsertPlan(r.Context(), payload)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, p)

	case http.MethodDelete:
		if err := h.app.Catalog.DeletePlan(r.Context(), id); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) wallets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		wallets, err := h.app.Catalog.ListWallets(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, wallets)

	case http.MethodPost:
		if !h.requireAdmin(w, r) {
			return
		}
		var payload catalog.Wallet
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		created, err := h.app.Catalog.CreateWallet(r.Context(), payload)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) walletResources(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/wallets"), "/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}

	switch r.Method {
	case http.MethodPut:
		var payload catalog.Wallet
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		payload.ID = id
		updated, err := h.app.Catalog.UpdateWallet(r.Context(), payload)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := h.app.Catalog.DeleteWallet(r.Context(), id); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) support(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		contact, err := h.app.Catalog.GetSupportContact(r.Context())
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, contact)

	case http.MethodPost:
		if !h.requireAdmin(w, r) {
			return
		}
		var payload struct {
			TelegramUsername string `json:"telegramUsername"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		contact, err := h.app.Catalog.SetSupportContact(r.Context(), payload.TelegramUsername)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, contact)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) supportResources(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/support"), "/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}

	var payload struct {
		TelegramUsername string `json:"telegramUsername"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	contact, err := h.app.Catalog.UpdateSupportContact(r.Context(), id, payload.TelegramUsername)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// --- Dashboard ----------------------------------------------------------------

func (h *handler) dashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}
	stats, err := h.app.Team.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) dashboardTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		limit = parsed
	}
	feed, err := h.app.Team.RecentTransactions(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// --- Helpers ------------------------------------------------------------------

// requireAdmin verifies the bearer token against the admin session store.
func (h *handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	token := bearerToken(r)
	if token == "" || !h.app.Catalog.VerifyToken(token) {
		writeError(w, http.StatusUnauthorized, errors.New("admin authorization required"))
		return false
	}
	return true
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func (h *handler) recordAudit(r *http.Request, action string) {
	h.audit.add(auditEntry{
		Action:     action,
		Path:       r.URL.Path,
		Method:     r.Method,
		RemoteAddr: r.RemoteAddr,
	})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, userssvc.ErrInvalidCredentials), errors.Is(err, catalogsvc.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ledgersvc.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, userssvc.ErrUsernameTaken), errors.Is(err, taskssvc.ErrDuplicateTaskNumber):
		return http.StatusConflict
	case errors.Is(err, taskssvc.ErrTaskNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
