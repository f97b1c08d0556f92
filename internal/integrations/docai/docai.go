package docai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clubcashin/credit-service/internal/config"
	"github.com/clubcashin/credit-service/internal/models"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const prompt = `You are a payment-capacity analyst for a lender financing vehicle purchases.
Analyze the applicant's bank statements and extract the information needed to
evaluate payment capacity. Respond in JSON with these fields:

1. general_info: account_holder (full name), account_number, account_type.
2. monthly_summaries: one entry per month with month, opening_balance,
   total_debits, total_credits, closing_balance, income (fixed + variable,
   e.g. salaries and rents vs bonuses and commissions) and expenses (fixed +
   variable, e.g. rent and memberships vs purchases and mobile payments).
   The sum of income.fixed and income.variable must equal total_credits, and
   the sum of expenses.fixed and expenses.variable must equal total_debits.
3. monthly_averages: fixed_income, variable_income, fixed_expenses,
   variable_expenses and net_availability, where net_availability is the
   average of total_credits minus the average of total_debits across the
   three months.

Make sure the figures reconcile.`

// Analyzer runs bank-statement analysis through the Gemini API.
type Analyzer struct {
	apiKey string
	model  string
	log    *logrus.Logger
}

// NewAnalyzer initializes a new statement analyzer
func NewAnalyzer(cfg *config.Config, log *logrus.Logger) *Analyzer {
	return &Analyzer{
		apiKey: cfg.GeminiAPIKey,
		model:  cfg.GeminiModel,
		log:    log,
	}
}

// Analyze extracts the structured financial summary from the given PDF
// statements.
func (a *Analyzer) Analyze(ctx context.Context, statements [][]byte) (*models.StatementAnalysis, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  a.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	parts := []*genai.Part{{Text: prompt}}
	for _, statement := range statements {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: "application/pdf",
				Data:     statement,
			},
		})
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0)),
		ResponseMIMEType: "application/json",
		ResponseSchema:   analysisSchema(),
	}

	result, err := client.Models.GenerateContent(
		ctx,
		a.model,
		[]*genai.Content{{Parts: parts}},
		cfg,
	)
	if err != nil {
		return nil, fmt.Errorf("statement analysis failed: %w", err)
	}

	text := result.Text()
	a.log.Debugf("Statement analysis response: %s", text)

	analysis := &models.StatementAnalysis{}
	if err := json.Unmarshal([]byte(text), analysis); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}
	return analysis, nil
}

func analysisSchema() *genai.Schema {
	cashFlow := func() *genai.Schema {
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"fixed":    {Type: genai.TypeNumber},
				"variable": {Type: genai.TypeNumber},
			},
			Required: []string{"fixed", "variable"},
		}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"general_info": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"account_holder": {Type: genai.TypeString},
					"account_number": {Type: genai.TypeString},
					"account_type":   {Type: genai.TypeString},
				},
				Required: []string{"account_holder", "account_number", "account_type"},
			},
			"monthly_summaries": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"month":           {Type: genai.TypeString},
						"opening_balance": {Type: genai.TypeNumber},
						"total_debits":    {Type: genai.TypeNumber},
						"total_credits":   {Type: genai.TypeNumber},
						"closing_balance": {Type: genai.TypeNumber},
						"income":          cashFlow(),
						"expenses":        cashFlow(),
					},
					Required: []string{
						"month", "opening_balance", "total_debits",
						"total_credits", "closing_balance", "income", "expenses",
					},
				},
			},
			"monthly_averages": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"fixed_income":      {Type: genai.TypeNumber},
					"variable_income":   {Type: genai.TypeNumber},
					"fixed_expenses":    {Type: genai.TypeNumber},
					"variable_expenses": {Type: genai.TypeNumber},
					"net_availability":  {Type: genai.TypeNumber},
				},
				Required: []string{
					"fixed_income", "variable_income", "fixed_expenses",
					"variable_expenses", "net_availability",
				},
			},
		},
		Required: []string{"general_info", "monthly_summaries", "monthly_averages"},
	}
}
