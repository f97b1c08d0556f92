package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clubcashin/credit-service/internal/config"
	"github.com/clubcashin/credit-service/internal/models"
	"github.com/clubcashin/credit-service/internal/repository"
	"github.com/clubcashin/credit-service/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// stubStore implements the handful of store methods these tests hit;
// anything else panics via the embedded nil interface.
type stubStore struct {
	service.Store
	leads  map[int64]*models.Lead
	nextID int64
}

func newStubStore() *stubStore {
	return &stubStore{leads: map[int64]*models.Lead{}}
}

func (s *stubStore) CreateLead(lead *models.Lead) error {
	s.nextID++
	lead.ID = s.nextID
	s.leads[lead.ID] = lead
	return nil
}

func (s *stubStore) ListLeads() ([]models.Lead, error) {
	var leads []models.Lead
	for _, lead := range s.leads {
		leads = append(leads, *lead)
	}
	return leads, nil
}

func (s *stubStore) FindLeadByID(id int64) (*models.Lead, error) {
	lead, ok := s.leads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return lead, nil
}

func (s *stubStore) FindLeadByPhone(phone string) (*models.Lead, error) {
	for _, lead := range s.leads {
		if lead.Phone == phone {
			return lead, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubStore) FindLeadByEmail(email string) (*models.Lead, error) {
	for _, lead := range s.leads {
		if lead.Email == email {
			return lead, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubStore) DeleteLeadByPhone(phone string) error {
	lead, err := s.FindLeadByPhone(phone)
	if err != nil {
		return err
	}
	delete(s.leads, lead.ID)
	return nil
}

func (s *stubStore) DeleteLeadByEmail(email string) error {
	lead, err := s.FindLeadByEmail(email)
	if err != nil {
		return err
	}
	delete(s.leads, lead.ID)
	return nil
}

func (s *stubStore) FindEnvelopeByCreditRecordID(int64) (*models.PaymentEnvelope, error) {
	return nil, repository.ErrNotFound
}

type stubIdentity struct {
	record *models.IdentityRecord
	err    error
}

func (s *stubIdentity) Lookup(context.Context, string) (*models.IdentityRecord, error) {
	return s.record, s.err
}

type stubRates struct {
	rate float64
	err  error
}

func (s *stubRates) GetReferenceRate() (float64, error) { return s.rate, s.err }

func testRouter(t *testing.T, store service.Store, identity IdentityClient, rates RateClient) *mux.Router {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{
		JWTSecret:         testSecret,
		StatementDir:      t.TempDir(),
		UpsellPaymentStep: 130,
		UpsellUpfrontStep: 5000,
	}
	svc := service.NewService(store, nil, nil, log, cfg)
	h := NewHandler(svc, identity, rates, log)
	return NewRouter(h, cfg, log)
}

func authHeader(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var resp response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestSubmitLead(t *testing.T) {
	router := testRouter(t, newStubStore(), &stubIdentity{}, &stubRates{})

	body := bytes.NewBufferString(`{"name":"Maria Perez","email":"maria@example.com","desired_amount":100000}`)
	req := httptest.NewRequest(http.MethodPost, "/leads", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestSubmitLeadRejectsInvalidBody(t *testing.T) {
	router := testRouter(t, newStubStore(), &stubIdentity{}, &stubRates{})

	req := httptest.NewRequest(http.MethodPost, "/leads", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := testRouter(t, newStubStore(), &stubIdentity{}, &stubRates{})

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/leads"},
		{http.MethodDelete, "/leads?phone=%2B50255551234"},
		{http.MethodGet, "/leads/1"},
		{http.MethodDelete, "/leads/1"},
		{http.MethodPost, "/credit-records/poll"},
		{http.MethodGet, "/credit-records/1/result"},
		{http.MethodPost, "/credit-records/1/validate"},
	}
	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, decodeResponse(t, rec).Success)
		})
	}
}

func TestGetLeadNotFound(t *testing.T) {
	router := testRouter(t, newStubStore(), &stubIdentity{}, &stubRates{})

	req := httptest.NewRequest(http.MethodGet, "/leads/99", nil)
	req.Header.Set("Authorization", authHeader(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
}

func TestGetLeadByPhoneFilter(t *testing.T) {
	store := newStubStore()
	require.NoError(t, store.CreateLead(&models.Lead{Name: "Maria Perez", Phone: "+50255551234"}))
	router := testRouter(t, store, &stubIdentity{}, &stubRates{})

	req := httptest.NewRequest(http.MethodGet, "/leads?phone=%2B50255551234", nil)
	req.Header.Set("Authorization", authHeader(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	lead, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Maria Perez", lead["name"])
}

func TestGetLeadByEmailFilterNotFound(t *testing.T) {
	router := testRouter(t, newStubStore(), &stubIdentity{}, &stubRates{})

	req := httptest.NewRequest(http.MethodGet, "/leads?email=nobody@example.com", nil)
	req.Header.Set("Authorization", authHeader(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteLeadByEmailFilter(t *testing.T) {
	store := newStubStore()
	require.NoError(t, store.CreateLead(&models.Lead{Name: "Maria Perez", Email: "maria@example.com"}))
	router := testRouter(t, store, &stubIdentity{}, &stubRates{})

	req := httptest.NewRequest(http.MethodDelete, "/leads?email=maria@example.com", nil)
	req.Header.Set("Authorization", authHeader(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)
	assert.Empty(t, store.leads)
}

func TestDeleteLeadRequiresFilter(t *testing.T) {
	router := testRouter(t, newStubStore(), &stubIdentity{}, &stubRates{})

	req := httptest.NewRequest(http.MethodDelete, "/leads", nil)
	req.Header.Set("Authorization", authHeader(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateCreditRecordNotFound(t *testing.T) {
	router := testRouter(t, newStubStore(), &stubIdentity{}, &stubRates{})

	req := httptest.NewRequest(http.MethodPost, "/credit-records/7/validate", nil)
	req.Header.Set("Authorization", authHeader(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "credit data not found", resp.Message)
}

func TestIdentity(t *testing.T) {
	identity := &stubIdentity{record: &models.IdentityRecord{DPI: "1234567890101", FirstName: "Maria"}}
	router := testRouter(t, newStubStore(), identity, &stubRates{})

	req := httptest.NewRequest(http.MethodGet, "/identity?dpi=1234567890101", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)
}

func TestIdentityRequiresDPI(t *testing.T) {
	router := testRouter(t, newStubStore(), &stubIdentity{}, &stubRates{})

	req := httptest.NewRequest(http.MethodGet, "/identity", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIdentityUpstreamFailure(t *testing.T) {
	identity := &stubIdentity{err: fmt.Errorf("registry timeout")}
	router := testRouter(t, newStubStore(), identity, &stubRates{})

	req := httptest.NewRequest(http.MethodGet, "/identity?dpi=1234567890101", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestExchangeRate(t *testing.T) {
	router := testRouter(t, newStubStore(), &stubIdentity{}, &stubRates{rate: 7.71853})

	req := httptest.NewRequest(http.MethodGet, "/exchange-rate", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestContact(t *testing.T) {
	router := testRouter(t, newStubStore(), &stubIdentity{}, &stubRates{})

	body := bytes.NewBufferString(`{"name":"Juan","email":"juan@example.com","message":"info please"}`)
	req := httptest.NewRequest(http.MethodPost, "/contact", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)
}
