package models

// MonthlyCashFlow decomposes one month's income or expenses into
// fixed and variable components.
type MonthlyCashFlow struct {
	Fixed    float64 `json:"fixed"`
	Variable float64 `json:"variable"`
}

// MonthlySummary is one calendar month of bank-account activity as
// extracted from a statement. The extractor asserts that fixed+variable
// income matches total credits (and likewise for expenses); the core does
// not re-check it.
type MonthlySummary struct {
	Month          string          `json:"month"`
	OpeningBalance float64         `json:"opening_balance"`
	TotalDebits    float64         `json:"total_debits"`
	TotalCredits   float64         `json:"total_credits"`
	ClosingBalance float64         `json:"closing_balance"`
	Income         MonthlyCashFlow `json:"income"`
	Expenses       MonthlyCashFlow `json:"expenses"`
}

// AccountInfo identifies the statement's account holder.
type AccountInfo struct {
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	AccountType   string `json:"account_type"`
}

// MonthlyAverages are the extractor's own per-month averages across the
// statement period.
type MonthlyAverages struct {
	FixedIncome      float64 `json:"fixed_income"`
	VariableIncome   float64 `json:"variable_income"`
	FixedExpenses    float64 `json:"fixed_expenses"`
	VariableExpenses float64 `json:"variable_expenses"`
	NetAvailability  float64 `json:"net_availability"`
}

// StatementAnalysis is the full structured output of the document-analysis
// service for one applicant's three bank statements.
type StatementAnalysis struct {
	GeneralInfo      AccountInfo      `json:"general_info"`
	MonthlySummaries []MonthlySummary `json:"monthly_summaries"`
	MonthlyAverages  MonthlyAverages  `json:"monthly_averages"`
}
