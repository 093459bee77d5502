package services

import (
	"slices"

	"projects-dashboard/internal/generator"
	"projects-dashboard/internal/models"
)

// View answers dashboard queries over a single snapshot. It is immutable
// and safe to share between goroutines.
type View struct {
	snap *models.Snapshot
}

func NewView(snap *models.Snapshot) *View {
	if snap == nil {
		snap = &models.Snapshot{}
	}
	return &View{snap: snap}
}

func (v *View) Snapshot() *models.Snapshot {
	return v.snap
}

// Ready reports whether the view holds a generated snapshot.
func (v *View) Ready() bool {
	return v.snap.ID != ""
}

// Managers returns the distinct project managers, sorted.
func (v *View) Managers() []string {
	managers := make([]string, 0, len(generator.Managers))
	for _, p := range v.snap.Projects {
		if !slices.Contains(managers, p.Manager) {
			managers = append(managers, p.Manager)
		}
	}
	slices.Sort(managers)
	return managers
}

func (v *View) IsKnownManager(manager string) bool {
	if manager == "" || manager == AllManagers {
		return true
	}
	return slices.ContainsFunc(v.snap.Projects, func(p models.Project) bool { return p.Manager == manager })
}

func (v *View) Projects(manager string) []models.Project {
	return filterByManager(v.snap.Projects, manager, func(p models.Project) string { return p.Manager })
}

func (v *View) Summary(manager string) models.Summary {
	return Summarize(v.Projects(manager))
}

func (v *View) Cashflow(manager string) []models.MonthlyData {
	return CashflowByMonth(v.Projects(manager))
}

func (v *View) Activities(manager string) []models.Activity {
	return filterByManager(v.snap.Activities, manager, func(act models.Activity) string { return act.Manager })
}

func (v *View) ActivityKPIs(manager string) models.ActivityKPIs {
	return SummarizeActivities(v.Activities(manager))
}

func (v *View) salesOrders(manager string) []models.SalesOrder {
	return filterByManager(v.snap.SalesOrders, manager, func(o models.SalesOrder) string { return o.Manager })
}

func (v *View) Sales(manager string) models.SalesOverview {
	return SummarizeSales(v.salesOrders(manager))
}

func (v *View) RevenueForecast(manager string) []models.MonthlyData {
	return RevenueForecast(v.salesOrders(manager))
}

func (v *View) Compliance(manager string) models.ComplianceOverview {
	tasks := filterByManager(v.snap.ComplianceTasks, manager, func(t models.ComplianceTask) string { return t.Manager })
	return SummarizeCompliance(tasks)
}

// MarketTurnover has no manager attribute and is never filtered.
func (v *View) MarketTurnover() models.MarketOverview {
	return SummarizeMarkets(v.snap.MarketTurnover)
}
