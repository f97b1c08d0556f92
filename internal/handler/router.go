package handler

import (
	"github.com/clubcashin/credit-service/internal/config"
	"github.com/clubcashin/credit-service/internal/middleware"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter wires the HTTP surface: the public intake endpoints plus the
// JWT-protected back-office routes. Credit record results and verdicts
// carry applicant financials, so they sit behind auth.
func NewRouter(h *Handler, cfg *config.Config, log *logrus.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log))

	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/leads", h.SubmitLead).Methods("POST")
	r.HandleFunc("/leads/{id:[0-9]+}/statements", h.QueueStatements).Methods("POST")
	r.HandleFunc("/identity", h.Identity).Methods("GET")
	r.HandleFunc("/contact", h.Contact).Methods("POST")
	r.HandleFunc("/exchange-rate", h.ExchangeRate).Methods("GET")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/leads", h.ListLeads).Methods("GET")
	authRouter.HandleFunc("/leads", h.DeleteLeadByQuery).Methods("DELETE")
	authRouter.HandleFunc("/leads/{id:[0-9]+}", h.GetLead).Methods("GET")
	authRouter.HandleFunc("/leads/{id:[0-9]+}", h.DeleteLead).Methods("DELETE")
	authRouter.HandleFunc("/credit-records/poll", h.PollCreditRecords).Methods("POST")
	authRouter.HandleFunc("/credit-records/{id:[0-9]+}/result", h.GetEnvelope).Methods("GET")
	authRouter.HandleFunc("/credit-records/{id:[0-9]+}/validate", h.ValidateCreditRecord).Methods("POST")

	return r
}
