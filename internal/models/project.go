package models

import "time"

// Project is one active project in the pipeline.
type Project struct {
	ID           string    `json:"project"`
	DueDate      time.Time `json:"due_date"`
	Revenue      int       `json:"revenue"`
	GrossMargin  float64   `json:"gm_pct"`
	WIP          int       `json:"wip_pct"`
	BudgetSpent  int       `json:"budget_spent_pct"`
	Stage        string    `json:"stage"`
	Manager      string    `json:"pm"`
	PaymentTerm  int       `json:"payment_term_days"`
	CashflowDate time.Time `json:"cashflow_date"`
}

type Activity struct {
	CreatedAt   time.Time `json:"created_at"`
	Manager     string    `json:"pm"`
	Market      string    `json:"market"`
	Opportunity string    `json:"opportunity"`
}

type SalesOrder struct {
	Activity
	Revenue     int     `json:"revenue"`
	GrossMargin float64 `json:"gm_pct"`
}

type ComplianceTask struct {
	Activity
	TaskType string `json:"task_type"`
}

type MarketTurnover struct {
	Market    string `json:"market"`
	QuoteDays int    `json:"quote_days"`
	CloseDays int    `json:"close_days"`
	TotalDays int    `json:"total_days"`
}

// Snapshot is the full record set of one generation run.
type Snapshot struct {
	ID              string           `json:"id"`
	Seed            uint64           `json:"seed"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Projects        []Project        `json:"projects"`
	Activities      []Activity       `json:"activities"`
	SalesOrders     []SalesOrder     `json:"sales_orders"`
	ComplianceTasks []ComplianceTask `json:"compliance_tasks"`
	MarketTurnover  []MarketTurnover `json:"market_turnover"`
}
