package services

import (
	"maps"
	"slices"
	"time"

	"projects-dashboard/internal/models"
)

const monthLayout = "2006-01"

// AllManagers is the filter value that keeps every row.
const AllManagers = "All"

func filterByManager[T any](rows []T, manager string, pm func(T) string) []T {
	if manager == "" || manager == AllManagers {
		return rows
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if pm(row) == manager {
			out = append(out, row)
		}
	}
	return out
}

// Group results are ordered by key, ascending.

func groupCount[T any](rows []T, key func(T) string) []models.CategoryCount {
	groups := make(map[string]int)
	for _, row := range rows {
		groups[key(row)]++
	}

	result := make([]models.CategoryCount, 0, len(groups))
	for _, k := range slices.Sorted(maps.Keys(groups)) {
		result = append(result, models.CategoryCount{Category: k, Count: groups[k]})
	}
	return result
}

func groupSum[T any](rows []T, key func(T) string, value func(T) float64) []models.CategoryValue {
	groups := make(map[string]float64)
	for _, row := range rows {
		groups[key(row)] += value(row)
	}

	result := make([]models.CategoryValue, 0, len(groups))
	for _, k := range slices.Sorted(maps.Keys(groups)) {
		result = append(result, models.CategoryValue{Category: k, Value: groups[k]})
	}
	return result
}

func groupMean[T any](rows []T, key func(T) string, value func(T) float64) []models.CategoryValue {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, row := range rows {
		k := key(row)
		sums[k] += value(row)
		counts[k]++
	}

	result := make([]models.CategoryValue, 0, len(sums))
	for _, k := range slices.Sorted(maps.Keys(sums)) {
		result = append(result, models.CategoryValue{Category: k, Value: sums[k] / float64(counts[k])})
	}
	return result
}

func sumByMonth[T any](rows []T, date func(T) time.Time, value func(T) float64) []models.MonthlyData {
	groups := groupSum(rows, func(row T) string { return date(row).Format(monthLayout) }, value)

	result := make([]models.MonthlyData, 0, len(groups))
	for _, g := range groups {
		result = append(result, models.MonthlyData{Month: g.Category, Value: g.Value})
	}
	return result
}

func mean(total float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

func Summarize(projects []models.Project) models.Summary {
	var revenue, gm, wip, budget float64
	for _, p := range projects {
		revenue += float64(p.Revenue)
		gm += p.GrossMargin
		wip += float64(p.WIP)
		budget += float64(p.BudgetSpent)
	}

	return models.Summary{
		Projects:       len(projects),
		TotalRevenue:   revenue,
		AvgGrossMargin: mean(gm, len(projects)),
		AvgWIP:         mean(wip, len(projects)),
		AvgBudgetSpent: mean(budget, len(projects)),
	}
}

func CashflowByMonth(projects []models.Project) []models.MonthlyData {
	return sumByMonth(projects,
		func(p models.Project) time.Time { return p.CashflowDate },
		func(p models.Project) float64 { return float64(p.Revenue) })
}

func SummarizeActivities(activities []models.Activity) models.ActivityKPIs {
	return models.ActivityKPIs{
		Total:     len(activities),
		ByManager: groupCount(activities, func(a models.Activity) string { return a.Manager }),
		ByMarket:  groupCount(activities, func(a models.Activity) string { return a.Market }),
	}
}

func SummarizeSales(orders []models.SalesOrder) models.SalesOverview {
	var revenue, gm float64
	for _, o := range orders {
		revenue += float64(o.Revenue)
		gm += o.GrossMargin
	}

	return models.SalesOverview{
		Orders:         orders,
		TotalRevenue:   revenue,
		AvgGrossMargin: mean(gm, len(orders)),
		ByManager: groupSum(orders,
			func(o models.SalesOrder) string { return o.Manager },
			func(o models.SalesOrder) float64 { return float64(o.Revenue) }),
	}
}

func RevenueForecast(orders []models.SalesOrder) []models.MonthlyData {
	return sumByMonth(orders,
		func(o models.SalesOrder) time.Time { return o.CreatedAt },
		func(o models.SalesOrder) float64 { return float64(o.Revenue) })
}

func SummarizeCompliance(tasks []models.ComplianceTask) models.ComplianceOverview {
	return models.ComplianceOverview{
		Tasks:     tasks,
		ByType:    groupCount(tasks, func(t models.ComplianceTask) string { return t.TaskType }),
		ByManager: groupCount(tasks, func(t models.ComplianceTask) string { return t.Manager }),
	}
}

func SummarizeMarkets(records []models.MarketTurnover) models.MarketOverview {
	return models.MarketOverview{
		Records: records,
		ByMarket: groupMean(records,
			func(m models.MarketTurnover) string { return m.Market },
			func(m models.MarketTurnover) float64 { return float64(m.TotalDays) }),
	}
}
