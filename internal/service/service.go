package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clubcashin/credit-service/internal/config"
	"github.com/clubcashin/credit-service/internal/finance"
	"github.com/clubcashin/credit-service/internal/models"
	"github.com/clubcashin/credit-service/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// StatementsPerProfile is the number of bank statements required per
// extraction job.
const StatementsPerProfile = 3

// ErrNoDesiredAmount is returned when a credit record's lead has no
// desired loan amount on file.
var ErrNoDesiredAmount = errors.New("no desired amount on file")

// Store is the persistence surface the service needs. Implemented by
// *repository.Repository; substituted by a fake in tests.
type Store interface {
	CreateUser(user *models.User) error
	FindUserByEmail(email string) (*models.User, error)

	CreateLead(lead *models.Lead) error
	ListLeads() ([]models.Lead, error)
	FindLeadByID(id int64) (*models.Lead, error)
	FindLeadByPhone(phone string) (*models.Lead, error)
	FindLeadByEmail(email string) (*models.Lead, error)
	DeleteLead(id int64) error
	DeleteLeadByPhone(phone string) error
	DeleteLeadByEmail(email string) error

	CreateCreditRecord(record *models.CreditRecord) error
	FindPendingCreditRecords() ([]models.CreditRecord, error)
	FindCreditRecordByID(id int64) (*models.CreditRecord, error)
	UpdateCreditRecordResult(id int64, result *models.StatementAnalysis) error

	CreateEnvelope(env *models.PaymentEnvelope) error
	FindEnvelopeByCreditRecordID(creditRecordID int64) (*models.PaymentEnvelope, error)
	FindLeadByCreditRecordID(creditRecordID int64) (*models.Lead, error)
}

// StatementAnalyzer extracts the structured financial summary from raw
// statement PDFs.
type StatementAnalyzer interface {
	Analyze(ctx context.Context, statements [][]byte) (*models.StatementAnalysis, error)
}

// Notifier delivers applicant notifications.
type Notifier interface {
	SendPreApprovalEmail(to, name string) error
}

// Service handles business logic
type Service struct {
	store     Store
	analyzer  StatementAnalyzer
	notifier  Notifier
	assessor  *finance.Assessor
	validator *finance.Validator
	log       *logrus.Logger
	config    *config.Config
}

// NewService initializes a new service
func NewService(store Store, analyzer StatementAnalyzer, notifier Notifier, log *logrus.Logger, cfg *config.Config) *Service {
	validatorPolicy := finance.DefaultValidatorPolicy()
	validatorPolicy.UpsellPaymentStep = cfg.UpsellPaymentStep
	validatorPolicy.UpsellUpfrontStep = cfg.UpsellUpfrontStep

	return &Service{
		store:     store,
		analyzer:  analyzer,
		notifier:  notifier,
		assessor:  finance.NewAssessor(finance.DefaultAssessorPolicy()),
		validator: finance.NewValidator(validatorPolicy),
		log:       log,
		config:    cfg,
	}
}

// Register creates a new back-office user with hashed password
func (s *Service) Register(username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a back-office user and returns a JWT token
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.store.FindUserByEmail(email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", user.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

// SubmitLead stores a new applicant lead
func (s *Service) SubmitLead(lead *models.Lead) (*models.Lead, error) {
	if lead.Name == "" {
		return nil, fmt.Errorf("lead name is required")
	}
	if err := s.store.CreateLead(lead); err != nil {
		return nil, err
	}
	s.log.Infof("Lead created: %d", lead.ID)
	return lead, nil
}

// ListLeads returns all leads
func (s *Service) ListLeads() ([]models.Lead, error) {
	return s.store.ListLeads()
}

// GetLead retrieves a lead by id
func (s *Service) GetLead(id int64) (*models.Lead, error) {
	return s.store.FindLeadByID(id)
}

// GetLeadByPhone retrieves a lead by phone number
func (s *Service) GetLeadByPhone(phone string) (*models.Lead, error) {
	return s.store.FindLeadByPhone(phone)
}

// GetLeadByEmail retrieves a lead by email
func (s *Service) GetLeadByEmail(email string) (*models.Lead, error) {
	return s.store.FindLeadByEmail(email)
}

// DeleteLead removes a lead by id
func (s *Service) DeleteLead(id int64) error {
	return s.store.DeleteLead(id)
}

// DeleteLeadByPhone removes a lead by phone number
func (s *Service) DeleteLeadByPhone(phone string) error {
	return s.store.DeleteLeadByPhone(phone)
}

// DeleteLeadByEmail removes a lead by email
func (s *Service) DeleteLeadByEmail(email string) error {
	return s.store.DeleteLeadByEmail(email)
}

// QueueStatements spools the uploaded statement PDFs for a lead and
// inserts a pending credit record to be picked up by the poll pass.
func (s *Service) QueueStatements(ctx context.Context, leadID int64, statements [][]byte) (*models.CreditRecord, error) {
	if len(statements) != StatementsPerProfile {
		return nil, fmt.Errorf("exactly %d statements are required, got %d", StatementsPerProfile, len(statements))
	}
	if _, err := s.store.FindLeadByID(leadID); err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	jobDir := filepath.Join(s.config.StatementDir, jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}
	for i, statement := range statements {
		name := filepath.Join(jobDir, fmt.Sprintf("statement_%d.pdf", i+1))
		if err := os.WriteFile(name, statement, 0o644); err != nil {
			return nil, fmt.Errorf("failed to spool statement: %w", err)
		}
	}

	record := &models.CreditRecord{LeadID: leadID, JobID: jobID}
	if err := s.store.CreateCreditRecord(record); err != nil {
		return nil, err
	}

	s.log.Infof("Statements queued for lead %d (job %s)", leadID, jobID)
	return record, nil
}

// PollCreditRecords runs the extraction pipeline for every pending
// credit record: analyze the spooled statements, store the result, then
// assess affordability and validate the lead's desired amount. Failures
// on a single record are logged and do not stop the pass.
func (s *Service) PollCreditRecords(ctx context.Context) error {
	records, err := s.store.FindPendingCreditRecords()
	if err != nil {
		return err
	}
	for i := range records {
		record := &records[i]
		if err := s.processRecord(ctx, record); err != nil {
			s.log.Errorf("Failed to process credit record %d: %v", record.ID, err)
		}
	}
	return nil
}

func (s *Service) processRecord(ctx context.Context, record *models.CreditRecord) error {
	statements, err := s.readSpooledStatements(record.JobID)
	if err != nil {
		return err
	}

	analysis, err := s.analyzer.Analyze(ctx, statements)
	if err != nil {
		return err
	}
	if err := s.store.UpdateCreditRecordResult(record.ID, analysis); err != nil {
		return err
	}
	record.Result = analysis

	return s.assessRecord(record)
}

func (s *Service) readSpooledStatements(jobID string) ([][]byte, error) {
	statements := make([][]byte, 0, StatementsPerProfile)
	for i := 1; i <= StatementsPerProfile; i++ {
		name := filepath.Join(s.config.StatementDir, jobID, fmt.Sprintf("statement_%d.pdf", i))
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read spooled statement: %w", err)
		}
		statements = append(statements, data)
	}
	return statements, nil
}

// assessRecord derives the payment envelope from the stored analysis,
// persists it and kicks off validation of the lead's desired amount.
func (s *Service) assessRecord(record *models.CreditRecord) error {
	if record.Result == nil {
		return fmt.Errorf("credit record %d has no analysis result", record.ID)
	}

	env, err := s.assessor.Assess(record.Result.MonthlySummaries)
	if err != nil {
		return fmt.Errorf("affordability assessment failed: %w", err)
	}
	env.CreditRecordID = record.ID
	if err := s.store.CreateEnvelope(env); err != nil {
		return err
	}
	s.log.Infof("Envelope computed for credit record %d: min %.2f max %.2f ceiling %.2f",
		record.ID, *env.MinPayment, *env.MaxPayment, *env.MaximumCredit)

	// Validation and notification are fire-and-forget: the envelope is
	// already persisted, so a failure here only loses the eager email.
	if _, err := s.ValidateCreditRecord(record.ID); err != nil {
		s.log.Warnf("Eager validation for credit record %d skipped: %v", record.ID, err)
	}
	return nil
}

// GetEnvelope retrieves the stored payment envelope for a credit record
func (s *Service) GetEnvelope(creditRecordID int64) (*models.PaymentEnvelope, error) {
	return s.store.FindEnvelopeByCreditRecordID(creditRecordID)
}

// ValidateCreditRecord validates the lead's desired amount against the
// stored envelope and notifies the applicant on approval.
func (s *Service) ValidateCreditRecord(creditRecordID int64) (*models.ApprovalVerdict, error) {
	env, err := s.store.FindEnvelopeByCreditRecordID(creditRecordID)
	if err != nil {
		return nil, err
	}
	lead, err := s.store.FindLeadByCreditRecordID(creditRecordID)
	if err != nil {
		return nil, err
	}
	if lead.DesiredAmount == nil {
		return nil, ErrNoDesiredAmount
	}

	verdict, err := s.validator.Validate(env, *lead.DesiredAmount)
	if err != nil {
		return nil, err
	}

	if verdict.Approved {
		s.log.Infof("Credit record %d pre-approved (payment %.2f)", creditRecordID, verdict.MonthlyPayment)
		if lead.Email != "" && lead.Name != "" {
			if err := s.notifier.SendPreApprovalEmail(lead.Email, lead.Name); err != nil {
				s.log.Errorf("Failed to notify lead %d: %v", lead.ID, err)
			}
		}
	} else {
		s.log.Infof("Credit record %d rejected, additional upfront %.2f", creditRecordID, verdict.AdditionalUpfront)
	}
	return verdict, nil
}

// IsNotFound reports whether an error represents an expected missing-data
// outcome rather than a failure.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, ErrNoDesiredAmount) ||
		errors.Is(err, finance.ErrIncompleteEnvelope)
}
