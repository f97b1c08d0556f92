package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/clubcashin/credit-service/internal/models"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("not found")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new back-office user in the database
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRow(query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a back-office user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE email = $1`
	err := r.db.QueryRow(query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateLead inserts a new lead
func (r *Repository) CreateLead(lead *models.Lead) error {
	query := `
		INSERT INTO leads (name, email, phone, desired_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query, lead.Name, nullString(lead.Email), nullString(lead.Phone), lead.DesiredAmount).
		Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

// ListLeads returns all leads
func (r *Repository) ListLeads() ([]models.Lead, error) {
	query := `
		SELECT id, name, email, phone, desired_amount, created_at, updated_at
		FROM leads
		ORDER BY id`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

// FindLeadByID retrieves a lead by id
func (r *Repository) FindLeadByID(id int64) (*models.Lead, error) {
	return r.findLead("id = $1", id)
}

// FindLeadByPhone retrieves a lead by phone number
func (r *Repository) FindLeadByPhone(phone string) (*models.Lead, error) {
	return r.findLead("phone = $1", phone)
}

// FindLeadByEmail retrieves a lead by email
func (r *Repository) FindLeadByEmail(email string) (*models.Lead, error) {
	return r.findLead("email = $1", email)
}

func (r *Repository) findLead(where string, arg interface{}) (*models.Lead, error) {
	query := `
		SELECT id, name, email, phone, desired_amount, created_at, updated_at
		FROM leads
		WHERE ` + where
	lead, err := scanLead(r.db.QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find lead: %w", err)
	}
	return lead, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row scanner) (*models.Lead, error) {
	lead := &models.Lead{}
	var email, phone sql.NullString
	var desired sql.NullFloat64
	err := row.Scan(&lead.ID, &lead.Name, &email, &phone, &desired, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}
	lead.Email = email.String
	lead.Phone = phone.String
	if desired.Valid {
		lead.DesiredAmount = &desired.Float64
	}
	return lead, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// DeleteLead removes a lead by id
func (r *Repository) DeleteLead(id int64) error {
	return r.deleteLead("id = $1", id)
}

// DeleteLeadByPhone removes a lead by phone number
func (r *Repository) DeleteLeadByPhone(phone string) error {
	return r.deleteLead("phone = $1", phone)
}

// DeleteLeadByEmail removes a lead by email
func (r *Repository) DeleteLeadByEmail(email string) error {
	return r.deleteLead("email = $1", email)
}

func (r *Repository) deleteLead(where string, arg interface{}) error {
	res, err := r.db.Exec(`DELETE FROM leads WHERE `+where, arg)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateCreditRecord inserts a pending extraction job for a lead
func (r *Repository) CreateCreditRecord(record *models.CreditRecord) error {
	query := `
		INSERT INTO credit_records (lead_id, job_id, result, created_at, updated_at)
		VALUES ($1, $2, NULL, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query, record.LeadID, record.JobID).
		Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create credit record: %w", err)
	}
	return nil
}

// FindPendingCreditRecords returns all credit records without a stored
// extraction result
func (r *Repository) FindPendingCreditRecords() ([]models.CreditRecord, error) {
	query := `
		SELECT id, lead_id, job_id, result, created_at, updated_at
		FROM credit_records
		WHERE result IS NULL
		ORDER BY id`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending credit records: %w", err)
	}
	defer rows.Close()

	var records []models.CreditRecord
	for rows.Next() {
		record, err := scanCreditRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit record: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// FindCreditRecordByID retrieves a credit record by id
func (r *Repository) FindCreditRecordByID(id int64) (*models.CreditRecord, error) {
	query := `
		SELECT id, lead_id, job_id, result, created_at, updated_at
		FROM credit_records
		WHERE id = $1`
	record, err := scanCreditRecord(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find credit record: %w", err)
	}
	return record, nil
}

func scanCreditRecord(row scanner) (*models.CreditRecord, error) {
	record := &models.CreditRecord{}
	var result []byte
	err := row.Scan(&record.ID, &record.LeadID, &record.JobID, &result, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if result != nil {
		record.Result = &models.StatementAnalysis{}
		if err := json.Unmarshal(result, record.Result); err != nil {
			return nil, fmt.Errorf("failed to decode analysis result: %w", err)
		}
	}
	return record, nil
}

// UpdateCreditRecordResult stores the extraction result for a record
func (r *Repository) UpdateCreditRecordResult(id int64, result *models.StatementAnalysis) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis result: %w", err)
	}
	query := `
		UPDATE credit_records
		SET result = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.db.Exec(query, id, payload); err != nil {
		return fmt.Errorf("failed to update credit record: %w", err)
	}
	return nil
}

// CreateEnvelope persists a payment envelope for a credit record
func (r *Repository) CreateEnvelope(env *models.PaymentEnvelope) error {
	query := `
		INSERT INTO credit_record_results
			(credit_record_id, min_payment, max_payment, max_adjusted_payment, maximum_credit, cash_flow_tier, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRow(query,
		env.CreditRecordID, env.MinPayment, env.MaxPayment,
		env.MaxAdjustedPayment, env.MaximumCredit, env.CashFlowTier).
		Scan(&env.ID, &env.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create envelope: %w", err)
	}
	return nil
}

// FindEnvelopeByCreditRecordID retrieves the latest envelope computed for
// a credit record
func (r *Repository) FindEnvelopeByCreditRecordID(creditRecordID int64) (*models.PaymentEnvelope, error) {
	env := &models.PaymentEnvelope{}
	var minPayment, maxPayment, maxAdjusted, maximumCredit sql.NullFloat64
	var tier sql.NullString
	query := `
		SELECT id, credit_record_id, min_payment, max_payment, max_adjusted_payment, maximum_credit, cash_flow_tier, created_at
		FROM credit_record_results
		WHERE credit_record_id = $1
		ORDER BY id DESC
		LIMIT 1`
	err := r.db.QueryRow(query, creditRecordID).
		Scan(&env.ID, &env.CreditRecordID, &minPayment, &maxPayment, &maxAdjusted, &maximumCredit, &tier, &env.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find envelope: %w", err)
	}
	if minPayment.Valid {
		env.MinPayment = &minPayment.Float64
	}
	if maxPayment.Valid {
		env.MaxPayment = &maxPayment.Float64
	}
	if maxAdjusted.Valid {
		env.MaxAdjustedPayment = &maxAdjusted.Float64
	}
	if maximumCredit.Valid {
		env.MaximumCredit = &maximumCredit.Float64
	}
	env.CashFlowTier = tier.String
	return env, nil
}

// FindLeadByCreditRecordID retrieves the lead a credit record belongs to
func (r *Repository) FindLeadByCreditRecordID(creditRecordID int64) (*models.Lead, error) {
	query := `
		SELECT l.id, l.name, l.email, l.phone, l.desired_amount, l.created_at, l.updated_at
		FROM leads l
		INNER JOIN credit_records cr ON cr.lead_id = l.id
		WHERE cr.id = $1`
	lead, err := scanLead(r.db.QueryRow(query, creditRecordID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find lead for credit record: %w", err)
	}
	return lead, nil
}
