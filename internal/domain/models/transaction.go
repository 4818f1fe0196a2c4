package models

const (
	DirectionExpense = 0
	DirectionIncome  = 1
)

const (
	RegularityOneTime = 0
	RegularityRegular = 1
)

type TransactionType struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Direction  int    `json:"direction"`
	Regularity int    `json:"regularity"`
}

// Frequency is a dictionary entry shared by transaction frequencies and repayment plans.
type Frequency struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Transaction covers one-time payments and regular income/expense schedules.
// Regular-only fields are zero for one-time transactions.
type Transaction struct {
	ID                int64   `json:"id,omitempty"`
	EstateID          int64   `json:"estate_id"`
	TransactionTypeID int64   `json:"transaction_type_id"`
	Amount            float64 `json:"amount"`
	Description       string  `json:"description,omitempty"`
	Regularity        int     `json:"regularity"`
	Direction         int     `json:"direction"`
	Date              string  `json:"date,omitempty"`

	StartDate             string  `json:"start_date,omitempty"`
	PaymentDay            int     `json:"payment_day,omitempty"`
	FrequencyID           int64   `json:"frequency_id,omitempty"`
	ContractDuration      string  `json:"contract_duration,omitempty"`
	IndexationRate        float64 `json:"indexation_rate,omitempty"`
	IndexationFrequencyID int64   `json:"indexation_frequency_id,omitempty"`
	LoanAmount            float64 `json:"loan_amount,omitempty"`
	LoanTerm              int     `json:"loan_term,omitempty"`
	InterestRate          float64 `json:"interest_rate,omitempty"`
	RepaymentPlanID       int64   `json:"repayment_plan_id,omitempty"`
	EarlyRepaymentDate    string  `json:"early_repayment_date,omitempty"`
	EarlyRepaymentAmount  float64 `json:"early_repayment_amount,omitempty"`
}

// CalendarTransaction is a dated payment as listed for the calendar.
type CalendarTransaction struct {
	ID                  int64   `json:"id"`
	EstateID            int64   `json:"estate_id"`
	EstateName          string  `json:"estate_name,omitempty"`
	TransactionTypeName string  `json:"transaction_type_name,omitempty"`
	Amount              float64 `json:"amount"`
	Direction           int     `json:"direction"`
	Date                string  `json:"date"`
	Description         string  `json:"description,omitempty"`
}

type TransactionFilter struct {
	EstateID  int64  `json:"estate_id"`
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	DateStart string `json:"date_start,omitempty"`
	DateEnd   string `json:"date_end,omitempty"`
	Direction *int   `json:"direction,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

type TransactionPage struct {
	Data []Transaction `json:"data"`
	Pagination
}

type CalendarTransactionPage struct {
	Data       []CalendarTransaction `json:"data"`
	TotalItems int                   `json:"total_items"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int                   `json:"total_pages"`
}
