package models

// IdentityRecord holds the demographic fields returned by the national
// identity registry for a DPI lookup.
type IdentityRecord struct {
	DPI               string `json:"dpi"`
	FirstName         string `json:"first_name"`
	SecondName        string `json:"second_name"`
	ThirdName         string `json:"third_name"`
	FirstLastName     string `json:"first_last_name"`
	SecondLastName    string `json:"second_last_name"`
	MarriedLastName   string `json:"married_last_name"`
	Picture           string `json:"picture"`
	BirthDate         string `json:"birth_date"`
	Gender            string `json:"gender"`
	CivilStatus       string `json:"civil_status"`
	Nationality       string `json:"nationality"`
	BornIn            string `json:"born_in"`
	DeathDate         string `json:"death_date,omitempty"`
	Occupation        string `json:"occupation"`
	DocumentExpiresAt string `json:"document_expires_at"`
}
