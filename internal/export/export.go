package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"projects-dashboard/internal/models"
)

const dateLayout = "2006-01-02"

type Format string

const (
	CSV     Format = "csv"
	JSON    Format = "json"
	Parquet Format = "parquet"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, JSON, Parquet:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q, must be one of: csv, json, parquet", s)
	}
}

type ProjectRow struct {
	Project      string  `json:"project" parquet:"project"`
	DueDate      string  `json:"due_date" parquet:"due_date"`
	Revenue      int64   `json:"revenue" parquet:"revenue"`
	GrossMargin  float64 `json:"gm_pct" parquet:"gm_pct"`
	WIP          int64   `json:"wip_pct" parquet:"wip_pct"`
	BudgetSpent  int64   `json:"budget_spent_pct" parquet:"budget_spent_pct"`
	Stage        string  `json:"stage" parquet:"stage"`
	PM           string  `json:"pm" parquet:"pm"`
	PaymentTerm  int64   `json:"payment_term_days" parquet:"payment_term_days"`
	CashflowDate string  `json:"cashflow_date" parquet:"cashflow_date"`
}

type ActivityRow struct {
	CreatedAt   string `json:"created_at" parquet:"created_at"`
	PM          string `json:"pm" parquet:"pm"`
	Market      string `json:"market" parquet:"market"`
	Opportunity string `json:"opportunity" parquet:"opportunity"`
}

type SalesOrderRow struct {
	CreatedAt   string  `json:"created_at" parquet:"created_at"`
	PM          string  `json:"pm" parquet:"pm"`
	Market      string  `json:"market" parquet:"market"`
	Opportunity string  `json:"opportunity" parquet:"opportunity"`
	Revenue     int64   `json:"revenue" parquet:"revenue"`
	GrossMargin float64 `json:"gm_pct" parquet:"gm_pct"`
}

type ComplianceRow struct {
	CreatedAt   string `json:"created_at" parquet:"created_at"`
	PM          string `json:"pm" parquet:"pm"`
	Market      string `json:"market" parquet:"market"`
	Opportunity string `json:"opportunity" parquet:"opportunity"`
	TaskType    string `json:"task_type" parquet:"task_type"`
}

type MarketRow struct {
	Market    string `json:"market" parquet:"market"`
	QuoteDays int64  `json:"quote_days" parquet:"quote_days"`
	CloseDays int64  `json:"close_days" parquet:"close_days"`
	TotalDays int64  `json:"total_days" parquet:"total_days"`
}

// table binds a row type to its file name and CSV encoding.
type table[T any] struct {
	name   string
	header []string
	rows   []T
	record func(T) []string
}

// WriteSnapshot writes one file per record set into dir and returns the
// paths written.
func WriteSnapshot(ctx context.Context, dir string, format Format, snap *models.Snapshot) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	var paths []string
	steps := []func() (string, error){
		func() (string, error) { return writeTable(dir, format, projectTable(snap.Projects)) },
		func() (string, error) { return writeTable(dir, format, activityTable(snap.Activities)) },
		func() (string, error) { return writeTable(dir, format, salesOrderTable(snap.SalesOrders)) },
		func() (string, error) { return writeTable(dir, format, complianceTable(snap.ComplianceTasks)) },
		func() (string, error) { return writeTable(dir, format, marketTable(snap.MarketTurnover)) },
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path, err := step()
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeTable[T any](dir string, format Format, t table[T]) (string, error) {
	path := filepath.Join(dir, t.name+"."+string(format))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	switch format {
	case CSV:
		w := csv.NewWriter(file)
		if err := w.Write(t.header); err != nil {
			return "", fmt.Errorf("write %s header: %w", t.name, err)
		}
		for _, row := range t.rows {
			if err := w.Write(t.record(row)); err != nil {
				return "", fmt.Errorf("write %s row: %w", t.name, err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", fmt.Errorf("flush %s: %w", t.name, err)
		}

	case JSON:
		enc := json.NewEncoder(file)
		enc.SetIndent("", "  ")
		rows := t.rows
		if rows == nil {
			rows = []T{}
		}
		if err := enc.Encode(rows); err != nil {
			return "", fmt.Errorf("encode %s: %w", t.name, err)
		}

	case Parquet:
		w := parquet.NewGenericWriter[T](file)
		if _, err := w.Write(t.rows); err != nil {
			return "", fmt.Errorf("write %s parquet: %w", t.name, err)
		}
		if err := w.Close(); err != nil {
			return "", fmt.Errorf("close %s parquet: %w", t.name, err)
		}

	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}

	return path, file.Close()
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func projectTable(projects []models.Project) table[ProjectRow] {
	rows := make([]ProjectRow, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, ProjectRow{
			Project:      p.ID,
			DueDate:      p.DueDate.Format(dateLayout),
			Revenue:      int64(p.Revenue),
			GrossMargin:  p.GrossMargin,
			WIP:          int64(p.WIP),
			BudgetSpent:  int64(p.BudgetSpent),
			Stage:        p.Stage,
			PM:           p.Manager,
			PaymentTerm:  int64(p.PaymentTerm),
			CashflowDate: p.CashflowDate.Format(dateLayout),
		})
	}
	return table[ProjectRow]{
		name:   "projects",
		header: []string{"Project", "Due Date", "Revenue", "GM%", "WIP%", "Budget Spent%", "Stage", "PM", "Payment Term", "Cashflow Date"},
		rows:   rows,
		record: func(r ProjectRow) []string {
			return []string{r.Project, r.DueDate, itoa(r.Revenue), ftoa(r.GrossMargin), itoa(r.WIP), itoa(r.BudgetSpent), r.Stage, r.PM, itoa(r.PaymentTerm), r.CashflowDate}
		},
	}
}

func activityRow(a models.Activity) ActivityRow {
	return ActivityRow{
		CreatedAt:   a.CreatedAt.Format(dateLayout),
		PM:          a.Manager,
		Market:      a.Market,
		Opportunity: a.Opportunity,
	}
}

func activityTable(activities []models.Activity) table[ActivityRow] {
	rows := make([]ActivityRow, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, activityRow(a))
	}
	return table[ActivityRow]{
		name:   "activities",
		header: []string{"Created", "PM", "Market", "Opportunity"},
		rows:   rows,
		record: func(r ActivityRow) []string {
			return []string{r.CreatedAt, r.PM, r.Market, r.Opportunity}
		},
	}
}

func salesOrderTable(orders []models.SalesOrder) table[SalesOrderRow] {
	rows := make([]SalesOrderRow, 0, len(orders))
	for _, o := range orders {
		a := activityRow(o.Activity)
		rows = append(rows, SalesOrderRow{
			CreatedAt:   a.CreatedAt,
			PM:          a.PM,
			Market:      a.Market,
			Opportunity: a.Opportunity,
			Revenue:     int64(o.Revenue),
			GrossMargin: o.GrossMargin,
		})
	}
	return table[SalesOrderRow]{
		name:   "sales_orders",
		header: []string{"Created", "PM", "Market", "Opportunity", "Revenue", "GM%"},
		rows:   rows,
		record: func(r SalesOrderRow) []string {
			return []string{r.CreatedAt, r.PM, r.Market, r.Opportunity, itoa(r.Revenue), ftoa(r.GrossMargin)}
		},
	}
}

func complianceTable(tasks []models.ComplianceTask) table[ComplianceRow] {
	rows := make([]ComplianceRow, 0, len(tasks))
	for _, t := range tasks {
		a := activityRow(t.Activity)
		rows = append(rows, ComplianceRow{
			CreatedAt:   a.CreatedAt,
			PM:          a.PM,
			Market:      a.Market,
			Opportunity: a.Opportunity,
			TaskType:    t.TaskType,
		})
	}
	return table[ComplianceRow]{
		name:   "compliance_tasks",
		header: []string{"Created", "PM", "Market", "Opportunity", "Task Type"},
		rows:   rows,
		record: func(r ComplianceRow) []string {
			return []string{r.CreatedAt, r.PM, r.Market, r.Opportunity, r.TaskType}
		},
	}
}

func marketTable(records []models.MarketTurnover) table[MarketRow] {
	rows := make([]MarketRow, 0, len(records))
	for _, m := range records {
		rows = append(rows, MarketRow{
			Market:    m.Market,
			QuoteDays: int64(m.QuoteDays),
			CloseDays: int64(m.CloseDays),
			TotalDays: int64(m.TotalDays),
		})
	}
	return table[MarketRow]{
		name:   "market_turnover",
		header: []string{"Market", "Quote Days", "Close Days", "Total Days"},
		rows:   rows,
		record: func(r MarketRow) []string {
			return []string{r.Market, itoa(r.QuoteDays), itoa(r.CloseDays), itoa(r.TotalDays)}
		},
	}
}
