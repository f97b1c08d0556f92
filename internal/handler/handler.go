package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/clubcashin/credit-service/internal/models"
	"github.com/clubcashin/credit-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// IdentityClient looks up applicants in the national identity registry.
type IdentityClient interface {
	Lookup(ctx context.Context, dpi string) (*models.IdentityRecord, error)
}

// RateClient retrieves the reference exchange rate.
type RateClient interface {
	GetReferenceRate() (float64, error)
}

// Handler exposes the service over HTTP
type Handler struct {
	svc      *service.Service
	identity IdentityClient
	rates    RateClient
	log      *logrus.Logger
}

// NewHandler initializes a new handler
func NewHandler(svc *service.Service, identity IdentityClient, rates RateClient, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, identity: identity, rates: rates, log: log}
}

// response is the envelope every endpoint answers with.
type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Error   *string     `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func ok(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, response{Success: true, Message: message, Data: data})
}

func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: false, Message: message})
}

// Register handles back-office user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.svc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		h.log.Errorf("Register failed: %v", err)
		fail(w, http.StatusInternalServerError, "failed to register user")
		return
	}
	ok(w, "User registered successfully", user)
}

// Login handles back-office authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		fail(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	ok(w, "Login successful", map[string]string{"token": token})
}

// SubmitLead handles public lead submission
func (h *Handler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string   `json:"name"`
		Email         string   `json:"email"`
		Phone         string   `json:"phone"`
		DesiredAmount *float64 `json:"desired_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	lead, err := h.svc.SubmitLead(&models.Lead{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		DesiredAmount: req.DesiredAmount,
	})
	if err != nil {
		h.log.Errorf("SubmitLead failed: %v", err)
		fail(w, http.StatusBadRequest, "failed to create lead")
		return
	}
	ok(w, "Lead created successfully", lead)
}

// ListLeads returns all leads, or the single lead matching a phone or
// email filter
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	phone, email := r.URL.Query().Get("phone"), r.URL.Query().Get("email")
	if phone != "" || email != "" {
		var lead *models.Lead
		var err error
		if phone != "" {
			lead, err = h.svc.GetLeadByPhone(phone)
		} else {
			lead, err = h.svc.GetLeadByEmail(email)
		}
		if err != nil {
			if service.IsNotFound(err) {
				fail(w, http.StatusNotFound, "lead not found")
				return
			}
			h.log.Errorf("ListLeads filter failed: %v", err)
			fail(w, http.StatusInternalServerError, "failed to fetch lead")
			return
		}
		ok(w, "Lead retrieved", lead)
		return
	}

	leads, err := h.svc.ListLeads()
	if err != nil {
		h.log.Errorf("ListLeads failed: %v", err)
		fail(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	ok(w, "Leads retrieved", leads)
}

// GetLead returns a single lead by id
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid lead id")
		return
	}
	lead, err := h.svc.GetLead(id)
	if err != nil {
		if service.IsNotFound(err) {
			fail(w, http.StatusNotFound, "lead not found")
			return
		}
		h.log.Errorf("GetLead failed: %v", err)
		fail(w, http.StatusInternalServerError, "failed to fetch lead")
		return
	}
	ok(w, "Lead retrieved", lead)
}

// DeleteLead removes a lead by id
func (h *Handler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid lead id")
		return
	}
	if err := h.svc.DeleteLead(id); err != nil {
		if service.IsNotFound(err) {
			fail(w, http.StatusNotFound, "lead not found")
			return
		}
		h.log.Errorf("DeleteLead failed: %v", err)
		fail(w, http.StatusInternalServerError, "failed to delete lead")
		return
	}
	ok(w, "Lead deleted", nil)
}

// DeleteLeadByQuery removes the lead matching a phone or email filter
func (h *Handler) DeleteLeadByQuery(w http.ResponseWriter, r *http.Request) {
	phone, email := r.URL.Query().Get("phone"), r.URL.Query().Get("email")
	var err error
	switch {
	case phone != "":
		err = h.svc.DeleteLeadByPhone(phone)
	case email != "":
		err = h.svc.DeleteLeadByEmail(email)
	default:
		fail(w, http.StatusBadRequest, "phone or email is required")
		return
	}
	if err != nil {
		if service.IsNotFound(err) {
			fail(w, http.StatusNotFound, "lead not found")
			return
		}
		h.log.Errorf("DeleteLeadByQuery failed: %v", err)
		fail(w, http.StatusInternalServerError, "failed to delete lead")
		return
	}
	ok(w, "Lead deleted", nil)
}

// QueueStatements accepts three base64 statements for a lead and queues
// the extraction job
func (h *Handler) QueueStatements(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid lead id")
		return
	}
	var req struct {
		File1 string `json:"file1"`
		File2 string `json:"file2"`
		File3 string `json:"file3"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var statements [][]byte
	for _, encoded := range []string{req.File1, req.File2, req.File3} {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			fail(w, http.StatusBadRequest, "statements must be base64 encoded")
			return
		}
		statements = append(statements, data)
	}

	record, err := h.svc.QueueStatements(r.Context(), id, statements)
	if err != nil {
		if service.IsNotFound(err) {
			fail(w, http.StatusNotFound, "lead not found")
			return
		}
		h.log.Errorf("QueueStatements failed: %v", err)
		fail(w, http.StatusInternalServerError, "failed to queue statements")
		return
	}
	ok(w, "Statements queued for processing", record)
}

// PollCreditRecords triggers a poll pass over pending extraction jobs
func (h *Handler) PollCreditRecords(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.PollCreditRecords(r.Context()); err != nil {
		h.log.Errorf("PollCreditRecords failed: %v", err)
		fail(w, http.StatusInternalServerError, "failed to poll credit records")
		return
	}
	ok(w, "Poll pass completed", nil)
}

// GetEnvelope returns the stored payment envelope for a credit record
func (h *Handler) GetEnvelope(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid credit record id")
		return
	}
	env, err := h.svc.GetEnvelope(id)
	if err != nil {
		if service.IsNotFound(err) {
			fail(w, http.StatusNotFound, "credit record result not found")
			return
		}
		h.log.Errorf("GetEnvelope failed: %v", err)
		fail(w, http.StatusInternalServerError, "failed to fetch envelope")
		return
	}
	ok(w, "Envelope retrieved", env)
}

// ValidateCreditRecord validates the lead's desired amount against the
// stored envelope
func (h *Handler) ValidateCreditRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid credit record id")
		return
	}
	verdict, err := h.svc.ValidateCreditRecord(id)
	if err != nil {
		if service.IsNotFound(err) {
			fail(w, http.StatusNotFound, "credit data not found")
			return
		}
		h.log.Errorf("ValidateCreditRecord failed: %v", err)
		fail(w, http.StatusInternalServerError, "failed to validate credit record")
		return
	}
	message := "Credit request pre-approved"
	if !verdict.Approved {
		message = "Credit request not pre-approved, a larger down payment is needed"
	}
	ok(w, message, verdict)
}

// Identity looks up an applicant in the national registry by DPI
func (h *Handler) Identity(w http.ResponseWriter, r *http.Request) {
	dpi := r.URL.Query().Get("dpi")
	if dpi == "" {
		fail(w, http.StatusBadRequest, "dpi is required")
		return
	}
	record, err := h.identity.Lookup(r.Context(), dpi)
	if err != nil {
		h.log.Errorf("Identity lookup failed: %v", err)
		fail(w, http.StatusBadGateway, "identity lookup failed")
		return
	}
	ok(w, "Identity retrieved", record)
}

// Contact accepts a contact-form submission
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.log.Infof("Contact form submitted by %s <%s>", req.Name, req.Email)
	ok(w, "Form submitted successfully", req)
}

// ExchangeRate returns the GTQ/USD reference rate
func (h *Handler) ExchangeRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.rates.GetReferenceRate()
	if err != nil {
		h.log.Errorf("ExchangeRate failed: %v", err)
		fail(w, http.StatusBadGateway, "failed to get exchange rate")
		return
	}
	ok(w, "Exchange rate retrieved", map[string]float64{"reference_rate": rate})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}
