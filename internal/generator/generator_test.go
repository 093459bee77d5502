package generator

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var testNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func TestNew_TruncatesToday(t *testing.T) {
	g := New(42, testNow)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), g.Today())
}

func TestProjects_Labels(t *testing.T) {
	projects := New(7, testNow).Projects(3)
	require.Len(t, projects, 3)
	assert.Equal(t, "Project 1", projects[0].ID)
	assert.Equal(t, "Project 3", projects[2].ID)
}

func TestGenerator_NonPositiveCounts(t *testing.T) {
	g := New(7, testNow)
	assert.Empty(t, g.Projects(0))
	assert.Empty(t, g.Activities(-1))
	assert.Empty(t, g.SalesOrders(0))
	assert.Empty(t, g.ComplianceTasks(-5))
	assert.Empty(t, g.MarketTurnover(0))
}

func TestProjects_Ranges(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Uint64().Draw(t, "seed")
		n := rapid.IntRange(0, 60).Draw(t, "n")

		g := New(seed, testNow)
		for _, p := range g.Projects(n) {
			if p.Revenue < MinRevenue || p.Revenue >= MaxRevenue {
				t.Fatalf("revenue %d out of range", p.Revenue)
			}
			if p.GrossMargin < MinGrossMargin || p.GrossMargin > MaxGrossMargin {
				t.Fatalf("gross margin %.2f out of range", p.GrossMargin)
			}
			if p.WIP < 0 || p.WIP > MaxWIP {
				t.Fatalf("wip %d out of range", p.WIP)
			}
			if p.BudgetSpent != p.WIP {
				t.Fatalf("budget spent %d != wip %d", p.BudgetSpent, p.WIP)
			}
			days := int(p.DueDate.Sub(g.Today()).Hours() / 24)
			if days < MinDueDays || days >= MaxDueDays {
				t.Fatalf("due date offset %d out of range", days)
			}
			if !slices.Contains(PaymentTerms, p.PaymentTerm) {
				t.Fatalf("unexpected payment term %d", p.PaymentTerm)
			}
			if !p.CashflowDate.Equal(p.DueDate.AddDate(0, 0, p.PaymentTerm)) {
				t.Fatalf("cashflow date %s does not follow due date %s", p.CashflowDate, p.DueDate)
			}
			if !slices.Contains(Stages, p.Stage) || !slices.Contains(Managers, p.Manager) {
				t.Fatalf("unexpected stage %q or manager %q", p.Stage, p.Manager)
			}
		}
	})
}

func TestActivityRecords_Ranges(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Uint64().Draw(t, "seed")
		n := rapid.IntRange(0, 60).Draw(t, "n")
		g := New(seed, testNow)
		earliest := g.Today().AddDate(0, 0, -LookbackDays)

		for _, o := range g.SalesOrders(n) {
			if o.CreatedAt.After(g.Today()) || !o.CreatedAt.After(earliest) {
				t.Fatalf("created at %s out of range", o.CreatedAt)
			}
			if o.Revenue < MinRevenue || o.Revenue >= MaxRevenue {
				t.Fatalf("revenue %d out of range", o.Revenue)
			}
			if o.GrossMargin < MinGrossMargin || o.GrossMargin > MaxGrossMargin {
				t.Fatalf("gross margin %.2f out of range", o.GrossMargin)
			}
			if !slices.Contains(Markets, o.Market) {
				t.Fatalf("unexpected market %q", o.Market)
			}
		}
		for _, task := range g.ComplianceTasks(n) {
			if !slices.Contains(TaskTypes, task.TaskType) {
				t.Fatalf("unexpected task type %q", task.TaskType)
			}
		}
	})
}

func TestMarketTurnover_Ranges(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Uint64().Draw(t, "seed")
		n := rapid.IntRange(0, 60).Draw(t, "n")

		for _, m := range New(seed, testNow).MarketTurnover(n) {
			if m.QuoteDays < MinQuoteDays || m.QuoteDays > MaxQuoteDays {
				t.Fatalf("quote days %d out of range", m.QuoteDays)
			}
			if m.CloseDays < MinCloseDays || m.CloseDays > MaxCloseDays {
				t.Fatalf("close days %d out of range", m.CloseDays)
			}
			if m.TotalDays != m.QuoteDays+m.CloseDays {
				t.Fatalf("total %d != %d + %d", m.TotalDays, m.QuoteDays, m.CloseDays)
			}
		}
	})
}

func TestSnapshot_Counts(t *testing.T) {
	counts := DefaultCounts()
	snap, err := Snapshot(context.Background(), 99, testNow, counts)
	require.NoError(t, err)

	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, uint64(99), snap.Seed)
	assert.Equal(t, testNow, snap.GeneratedAt)
	assert.Len(t, snap.Projects, counts.Projects)
	assert.Len(t, snap.Activities, counts.Activities)
	assert.Len(t, snap.SalesOrders, counts.SalesOrders)
	assert.Len(t, snap.ComplianceTasks, counts.ComplianceTasks)
	assert.Len(t, snap.MarketTurnover, counts.Markets)
}

func TestSnapshot_SeedIsReproducible(t *testing.T) {
	a, err := Snapshot(context.Background(), 1234, testNow, DefaultCounts())
	require.NoError(t, err)
	b, err := Snapshot(context.Background(), 1234, testNow, DefaultCounts())
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Projects, b.Projects)
	assert.Equal(t, a.SalesOrders, b.SalesOrders)
	assert.Equal(t, a.MarketTurnover, b.MarketTurnover)
}

func TestSnapshot_ZeroSeedIsReplaced(t *testing.T) {
	snap, err := Snapshot(context.Background(), 0, testNow, DefaultCounts())
	require.NoError(t, err)
	assert.NotZero(t, snap.Seed)
}

func TestSnapshot_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Snapshot(ctx, 5, testNow, DefaultCounts())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_ZeroSeedDrawsFreshStream(t *testing.T) {
	assert.Equal(t, uint64(5), resolveSeed(5))
	assert.NotZero(t, resolveSeed(0))

	a := New(0, testNow).Projects(10)
	b := New(0, testNow).Projects(10)
	assert.NotEqual(t, a, b, "zero seed should not replay a fixed stream")

	assert.Equal(t, New(3, testNow).Projects(10), New(3, testNow).Projects(10))
}
