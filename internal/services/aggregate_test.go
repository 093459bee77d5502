package services

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"projects-dashboard/internal/generator"
	"projects-dashboard/internal/models"
)

func TestGroupTotals_MatchRows(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := generator.New(rapid.Uint64().Draw(t, "seed"), fixedNow)
		projects := g.Projects(rapid.IntRange(0, 80).Draw(t, "projects"))
		orders := g.SalesOrders(rapid.IntRange(0, 80).Draw(t, "orders"))
		tasks := g.ComplianceTasks(rapid.IntRange(0, 80).Draw(t, "tasks"))

		var revenue int
		for _, p := range projects {
			revenue += p.Revenue
		}
		var cashflow float64
		for _, m := range CashflowByMonth(projects) {
			cashflow += m.Value
		}
		if cashflow != float64(revenue) || Summarize(projects).TotalRevenue != float64(revenue) {
			t.Fatalf("cashflow %.0f / summary %.0f != revenue %d", cashflow, Summarize(projects).TotalRevenue, revenue)
		}

		var orderRevenue int
		for _, o := range orders {
			orderRevenue += o.Revenue
		}
		var byManager, byMonth float64
		for _, v := range SummarizeSales(orders).ByManager {
			byManager += v.Value
		}
		for _, v := range RevenueForecast(orders) {
			byMonth += v.Value
		}
		if byManager != float64(orderRevenue) || byMonth != float64(orderRevenue) {
			t.Fatalf("sales totals %.0f / %.0f != %d", byManager, byMonth, orderRevenue)
		}

		var taskCount int
		for _, c := range SummarizeCompliance(tasks).ByType {
			taskCount += c.Count
		}
		if taskCount != len(tasks) {
			t.Fatalf("compliance count %d != %d", taskCount, len(tasks))
		}
	})
}

func TestGroupKeys_Sorted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := generator.New(rapid.Uint64().Draw(t, "seed"), fixedNow)
		activities := g.Activities(rapid.IntRange(0, 80).Draw(t, "activities"))
		kpis := SummarizeActivities(activities)

		keys := make([]string, 0, len(kpis.ByMarket))
		for _, c := range kpis.ByMarket {
			keys = append(keys, c.Category)
		}
		if !slices.IsSorted(keys) {
			t.Fatalf("market keys not sorted: %v", keys)
		}

		months := make([]string, 0)
		for _, m := range CashflowByMonth(g.Projects(20)) {
			months = append(months, m.Month)
		}
		if !slices.IsSorted(months) {
			t.Fatalf("months not sorted: %v", months)
		}
	})
}

func TestMarketMeans_WithinBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := generator.New(rapid.Uint64().Draw(t, "seed"), fixedNow)
		overview := SummarizeMarkets(g.MarketTurnover(rapid.IntRange(1, 80).Draw(t, "n")))

		lo := float64(generator.MinQuoteDays + generator.MinCloseDays)
		hi := float64(generator.MaxQuoteDays + generator.MaxCloseDays)
		for _, m := range overview.ByMarket {
			if m.Value < lo || m.Value > hi {
				t.Fatalf("mean turnover %.2f for %s outside [%.0f, %.0f]", m.Value, m.Category, lo, hi)
			}
		}
	})
}

func TestFilterByManager(t *testing.T) {
	rows := []models.Activity{
		{Manager: "Alice", CreatedAt: time.Now()},
		{Manager: "Bob"},
		{Manager: "Alice"},
	}
	pm := func(a models.Activity) string { return a.Manager }

	assert.Len(t, filterByManager(rows, "", pm), 3)
	assert.Len(t, filterByManager(rows, AllManagers, pm), 3)
	assert.Len(t, filterByManager(rows, "Alice", pm), 2)
	assert.Empty(t, filterByManager(rows, "Zed", pm))
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.AvgGrossMargin)
	assert.Zero(t, s.AvgWIP)
	assert.Zero(t, s.TotalRevenue)
	assert.Empty(t, CashflowByMonth(nil))
	assert.Empty(t, SummarizeMarkets(nil).ByMarket)
}
