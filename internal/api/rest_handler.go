package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"netbank/internal/domain"
	"netbank/internal/engine"
	"netbank/internal/repository"
	"netbank/internal/service"
	"netbank/pkg/crypto"
	"netbank/pkg/metrics"
	"netbank/pkg/validator"
)

type APIHandler struct {
	engine         *engine.Engine
	accounts       repository.AccountStore
	payees         repository.PayeeDirectory
	ledger         repository.Ledger
	statements     *service.StatementService
	metrics        *metrics.MetricsCollector
	signer         *crypto.Signer
	validator      *validator.RequestValidator
	logger         *slog.Logger
	requestTimeout time.Duration
}

func NewAPIHandler(
	eng *engine.Engine,
	accounts repository.AccountStore,
	payees repository.PayeeDirectory,
	ledger repository.Ledger,
	statements *service.StatementService,
	collector *metrics.MetricsCollector,
	signer *crypto.Signer,
	logger *slog.Logger,
) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandler{
		engine:         eng,
		accounts:       accounts,
		payees:         payees,
		ledger:         ledger,
		statements:     statements,
		metrics:        collector,
		signer:         signer,
		validator:      validator.NewRequestValidator(),
		logger:         logger,
		requestTimeout: 30 * time.Second,
	}
}

type TransferAPIRequest struct {
	SourceAccount      int64       `json:"source_account"`
	DestinationAccount int64       `json:"destination_account,omitempty"`
	PayeeID            string      `json:"payee_id,omitempty"`
	Amount             json.Number `json:"amount"`
	Description        string      `json:"description,omitempty"`
	Signature          string      `json:"signature,omitempty"`
	Timestamp          int64       `json:"timestamp,omitempty"`
}

type TransferResponse struct {
	SourceBalance      string                     `json:"source_balance"`
	DestinationBalance string                     `json:"destination_balance,omitempty"`
	DestinationKnown   bool                       `json:"destination_known"`
	Records            []domain.TransactionRecord `json:"records"`
	Message            string                     `json:"message"`
}

type CreateAccountRequest struct {
	AccountNumber int64              `json:"account_number"`
	AccountType   domain.AccountType `json:"account_type"`
	CustomerID    string             `json:"customer_id"`
}

type PayeeRequest struct {
	Name          string `json:"name"`
	BankName      string `json:"bank_name"`
	IFSCCode      string `json:"ifsc_code"`
	AccountNumber int64  `json:"account_number"`
	CustomerID    string `json:"customer_id"`
}

type EmailStatementRequest struct {
	Email         string `json:"email"`
	AccountNumber int64  `json:"account_number,omitempty"`
	Kind          string `json:"kind,omitempty"`
	DateFrom      string `json:"date_from,omitempty"`
	DateTo        string `json:"date_to,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *APIHandler) TransferHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req TransferAPIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	// Payee aliases are resolved here; the engine only ever sees account
	// numbers.
	destination := req.DestinationAccount
	if req.PayeeID != "" {
		accno, err := h.payees.Resolve(ctx, req.PayeeID)
		if err != nil {
			h.sendError(w, "Unknown payee", http.StatusNotFound, "PAYEE_NOT_FOUND")
			return
		}
		destination = accno
	}

	if err := h.validator.ValidateTransfer(req.SourceAccount, destination, req.Amount.String(), req.Description); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	if req.Signature != "" {
		if valid, err := h.signer.VerifyTransfer(
			req.SourceAccount,
			destination,
			req.Amount.String(),
			req.Timestamp,
			req.Signature,
		); !valid || err != nil {
			h.sendError(w, "Invalid signature", http.StatusUnauthorized, "INVALID_SIGNATURE")
			return
		}
	}

	result, err := h.engine.ExecuteTransfer(ctx, engine.TransferRequest{
		SourceAccount:      req.SourceAccount,
		DestinationAccount: destination,
		Amount:             req.Amount.String(),
		Description:        req.Description,
	})
	duration := time.Since(startTime)
	h.metrics.RecordTransfer(duration, err == nil)

	if err != nil {
		h.logger.Warn("Transfer rejected",
			slog.Int64("source_account", req.SourceAccount),
			slog.Int64("destination_account", destination),
			slog.String("error", err.Error()))
		h.sendTransferError(w, err)
		return
	}

	h.publishGauges(ctx)

	response := TransferResponse{
		SourceBalance:    result.SourceBalance.String(),
		DestinationKnown: result.DestinationKnown,
		Records:          result.Records,
		Message:          "Transfer completed successfully",
	}
	if result.DestinationKnown {
		response.DestinationBalance = result.DestinationBalance.String()
	}

	h.sendJSON(w, response, http.StatusCreated)
}

func (h *APIHandler) sendTransferError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrSourceNotFound):
		h.sendError(w, err.Error(), http.StatusNotFound, "SOURCE_NOT_FOUND")
	case errors.Is(err, engine.ErrSelfTransfer):
		h.sendError(w, err.Error(), http.StatusBadRequest, "SELF_TRANSFER")
	case errors.Is(err, engine.ErrInvalidAmount):
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_AMOUNT")
	case errors.Is(err, engine.ErrInsufficientFunds):
		h.sendError(w, err.Error(), http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS")
	default:
		h.sendError(w, "Transfer failed", http.StatusInternalServerError, "PROCESSING_ERROR")
	}
}

func (h *APIHandler) QueryTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	filter, err := filterFromQuery(r.URL.Query().Get("account"), r.URL.Query().Get("kind"),
		r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_FILTER")
		return
	}

	records, err := h.engine.QueryTransactions(ctx, filter)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidFilterRange) {
			h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_FILTER_RANGE")
			return
		}
		h.sendError(w, "Failed to query transactions", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}

	h.sendJSON(w, map[string]any{
		"transactions": records,
		"count":        len(records),
	}, http.StatusOK)
}

func filterFromQuery(account, kind, from, to string) (engine.Filter, error) {
	var filter engine.Filter

	if account != "" {
		n, err := strconv.ParseInt(account, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid account number %q", account)
		}
		filter.AccountNumber = &n
	}

	switch kind {
	case "":
	case string(domain.KindDebit), string(domain.KindCredit):
		filter.Kind = domain.TransactionKind(kind)
	default:
		return filter, fmt.Errorf("invalid kind %q", kind)
	}

	if from != "" {
		t, err := parseDate(from)
		if err != nil {
			return filter, err
		}
		filter.DateFrom = &t
	}
	if to != "" {
		t, err := parseDate(to)
		if err != nil {
			return filter, err
		}
		filter.DateTo = &t
	}

	return filter, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func (h *APIHandler) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	if req.AccountNumber <= 0 || req.CustomerID == "" {
		h.sendError(w, "account_number and customer_id are required", http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	// New accounts always open at zero.
	account := &domain.Account{
		AccountNumber: req.AccountNumber,
		AccountType:   req.AccountType,
		CustomerID:    req.CustomerID,
	}
	if err := h.accounts.Save(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			h.sendError(w, "Account already exists", http.StatusConflict, "DUPLICATE")
			return
		}
		h.sendError(w, "Failed to create account", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}

	h.sendJSON(w, account, http.StatusCreated)
}

func (h *APIHandler) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	customerID := r.URL.Query().Get("customer_id")

	var (
		accounts []*domain.Account
		err      error
	)
	if customerID != "" {
		accounts, err = h.accounts.GetByCustomer(ctx, customerID)
		if errors.Is(err, repository.ErrNotFound) {
			accounts, err = []*domain.Account{}, nil
		}
	} else {
		accounts, err = h.accounts.All(ctx)
	}
	if err != nil {
		h.sendError(w, "Failed to list accounts", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}
	if accounts == nil {
		accounts = []*domain.Account{}
	}

	h.sendJSON(w, accounts, http.StatusOK)
}

func (h *APIHandler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	accno, err := strconv.ParseInt(r.PathValue("accno"), 10, 64)
	if err != nil {
		h.sendError(w, "Invalid account number", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	account, err := h.accounts.Get(ctx, accno)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.sendError(w, "Account not found", http.StatusNotFound, "NOT_FOUND")
			return
		}
		h.sendError(w, "Failed to get account", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}

	h.sendJSON(w, account, http.StatusOK)
}

func (h *APIHandler) CreatePayeeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req PayeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	if err := h.validator.ValidatePayee(req.Name, req.BankName, req.IFSCCode, req.AccountNumber); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	payee := &domain.Payee{
		PayeeID:       uuid.NewString(),
		CustomerID:    req.CustomerID,
		Name:          req.Name,
		BankName:      req.BankName,
		IFSCCode:      req.IFSCCode,
		AccountNumber: req.AccountNumber,
	}
	if err := h.payees.Save(ctx, payee); err != nil {
		h.sendError(w, "Failed to create payee", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}

	h.sendJSON(w, payee, http.StatusCreated)
}

func (h *APIHandler) ListPayeesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	payees, err := h.payees.GetByCustomer(ctx, r.URL.Query().Get("customer_id"))
	if err != nil {
		h.sendError(w, "Failed to list payees", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}

	h.sendJSON(w, payees, http.StatusOK)
}

func (h *APIHandler) UpdatePayeeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req PayeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	if err := h.validator.ValidatePayee(req.Name, req.BankName, req.IFSCCode, req.AccountNumber); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	payee := &domain.Payee{
		PayeeID:       r.PathValue("id"),
		Name:          req.Name,
		BankName:      req.BankName,
		IFSCCode:      req.IFSCCode,
		AccountNumber: req.AccountNumber,
	}
	if err := h.payees.Update(ctx, payee); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.sendError(w, "Payee not found", http.StatusNotFound, "NOT_FOUND")
			return
		}
		h.sendError(w, "Failed to update payee", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}

	h.sendJSON(w, payee, http.StatusOK)
}

func (h *APIHandler) DeletePayeeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	if err := h.payees.Delete(ctx, r.PathValue("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.sendError(w, "Payee not found", http.StatusNotFound, "NOT_FOUND")
			return
		}
		h.sendError(w, "Failed to delete payee", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// EmailStatementHandler materializes a statement for the supplied filter
// and queues it for delivery. Delivery is fire-and-forget: the 202 only
// acknowledges the queueing.
func (h *APIHandler) EmailStatementHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req EmailStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	if req.Email == "" {
		h.sendError(w, "email is required", http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	var account string
	if req.AccountNumber != 0 {
		account = strconv.FormatInt(req.AccountNumber, 10)
	}
	filter, err := filterFromQuery(account, req.Kind, req.DateFrom, req.DateTo)
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_FILTER")
		return
	}

	records, err := h.engine.QueryTransactions(ctx, filter)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidFilterRange) {
			h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_FILTER_RANGE")
			return
		}
		h.sendError(w, "Failed to query transactions", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}

	rows := service.BuildStatementRows(records)
	if err := h.statements.QueueStatement(ctx, req.Email, rows); err != nil {
		h.sendError(w, "Failed to queue statement", http.StatusServiceUnavailable, "QUEUE_FULL")
		return
	}

	h.sendJSON(w, map[string]any{
		"message": "Statement delivery queued",
		"rows":    len(rows),
	}, http.StatusAccepted)
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}
	h.sendJSON(w, response, http.StatusOK)
}

func (h *APIHandler) publishGauges(ctx context.Context) {
	accounts, err := h.accounts.All(ctx)
	if err == nil {
		for _, a := range accounts {
			bal, _ := a.Balance.Float64()
			h.metrics.UpdateAccountBalance(strconv.FormatInt(a.AccountNumber, 10), string(a.AccountType), bal)
		}
	}
	if n, err := h.ledger.Len(ctx); err == nil {
		h.metrics.SetLedgerEntries(n)
	}
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code string) {
	errorResponse := ErrorResponse{
		Error: message,
		Code:  code,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/transfers", h.TransferHandler)
	mux.HandleFunc("GET /api/v1/transactions", h.QueryTransactionsHandler)
	mux.HandleFunc("POST /api/v1/accounts", h.CreateAccountHandler)
	mux.HandleFunc("GET /api/v1/accounts", h.ListAccountsHandler)
	mux.HandleFunc("GET /api/v1/accounts/{accno}", h.GetAccountHandler)
	mux.HandleFunc("POST /api/v1/payees", h.CreatePayeeHandler)
	mux.HandleFunc("GET /api/v1/payees", h.ListPayeesHandler)
	mux.HandleFunc("PUT /api/v1/payees/{id}", h.UpdatePayeeHandler)
	mux.HandleFunc("DELETE /api/v1/payees/{id}", h.DeletePayeeHandler)
	mux.HandleFunc("POST /api/v1/statements/email", h.EmailStatementHandler)
	mux.HandleFunc("GET /api/health", h.HealthCheckHandler)
}
