package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"projects-dashboard/internal/models"
)

var (
	Stages       = []string{"Approved", "Permitting", "Manufacturing", "Installation", "Invoicing"}
	PaymentTerms = []int{30, 45, 60}
	Managers     = []string{"Alice", "Bob", "Charlie", "David", "Eve"}
	Markets      = []string{"Residential", "Commercial", "Industrial", "Government"}
	TaskTypes    = []string{"Invoice Review", "Tax Filing", "Audit Preparation", "Payroll Reconciliation", "Insurance Renewal"}
)

// Upper bounds are exclusive unless noted.
const (
	MinRevenue     = 2500
	MaxRevenue     = 150000
	MinGrossMargin = 30.0
	MaxGrossMargin = 40.0 // inclusive after rounding
	MaxWIP         = 100  // inclusive
	MinDueDays     = 10
	MaxDueDays     = 60
	LookbackDays   = 90
	MinQuoteDays   = 1
	MaxQuoteDays   = 30 // inclusive
	MinCloseDays   = 5
	MaxCloseDays   = 90 // inclusive
)

const (
	streamProjects uint64 = iota + 1
	streamActivities
	streamSalesOrders
	streamCompliance
	streamMarkets
)

type Counts struct {
	Projects        int `yaml:"projects"`
	Activities      int `yaml:"activities"`
	SalesOrders     int `yaml:"sales_orders"`
	ComplianceTasks int `yaml:"compliance_tasks"`
	Markets         int `yaml:"markets"`
}

func DefaultCounts() Counts {
	return Counts{
		Projects:        15,
		Activities:      40,
		SalesOrders:     25,
		ComplianceTasks: 20,
		Markets:         30,
	}
}

// Generator draws records from a single PCG stream. It is not safe for
// concurrent use; Snapshot gives each record set its own Generator.
type Generator struct {
	rng   *rand.Rand
	today time.Time
}

// New returns a generator over a single stream. A zero seed draws a fresh
// one, so only a non-zero seed is reproducible.
func New(seed uint64, now time.Time) *Generator {
	return newStream(resolveSeed(seed), 0, now)
}

func resolveSeed(seed uint64) uint64 {
	if seed == 0 {
		return rand.Uint64() | 1
	}
	return seed
}

func newStream(seed, stream uint64, now time.Time) *Generator {
	return &Generator{
		rng:   rand.New(rand.NewPCG(seed, stream)),
		today: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}
}

func (g *Generator) Today() time.Time {
	return g.today
}

func (g *Generator) Projects(n int) []models.Project {
	projects := make([]models.Project, 0, max(n, 0))
	for i := 0; i < n; i++ {
		wip := g.intn(0, MaxWIP+1)
		due := g.today.AddDate(0, 0, g.intn(MinDueDays, MaxDueDays))
		term := pick(g, PaymentTerms)

		projects = append(projects, models.Project{
			ID:           fmt.Sprintf("Project %d", i+1),
			DueDate:      due,
			Revenue:      g.intn(MinRevenue, MaxRevenue),
			GrossMargin:  g.grossMargin(),
			WIP:          wip,
			BudgetSpent:  wip,
			Stage:        pick(g, Stages),
			Manager:      pick(g, Managers),
			PaymentTerm:  term,
			CashflowDate: due.AddDate(0, 0, term),
		})
	}
	return projects
}

func (g *Generator) Activities(n int) []models.Activity {
	activities := make([]models.Activity, 0, max(n, 0))
	for i := 0; i < n; i++ {
		activities = append(activities, g.activity(i))
	}
	return activities
}

func (g *Generator) SalesOrders(n int) []models.SalesOrder {
	orders := make([]models.SalesOrder, 0, max(n, 0))
	for i := 0; i < n; i++ {
		orders = append(orders, models.SalesOrder{
			Activity:    g.activity(i),
			Revenue:     g.intn(MinRevenue, MaxRevenue),
			GrossMargin: g.grossMargin(),
		})
	}
	return orders
}

func (g *Generator) ComplianceTasks(n int) []models.ComplianceTask {
	tasks := make([]models.ComplianceTask, 0, max(n, 0))
	for i := 0; i < n; i++ {
		tasks = append(tasks, models.ComplianceTask{
			Activity: g.activity(i),
			TaskType: pick(g, TaskTypes),
		})
	}
	return tasks
}

func (g *Generator) MarketTurnover(n int) []models.MarketTurnover {
	records := make([]models.MarketTurnover, 0, max(n, 0))
	for i := 0; i < n; i++ {
		quote := g.intn(MinQuoteDays, MaxQuoteDays+1)
		closing := g.intn(MinCloseDays, MaxCloseDays+1)
		records = append(records, models.MarketTurnover{
			Market:    pick(g, Markets),
			QuoteDays: quote,
			CloseDays: closing,
			TotalDays: quote + closing,
		})
	}
	return records
}

func (g *Generator) activity(i int) models.Activity {
	return models.Activity{
		CreatedAt:   g.today.AddDate(0, 0, -g.intn(0, LookbackDays)),
		Manager:     pick(g, Managers),
		Market:      pick(g, Markets),
		Opportunity: fmt.Sprintf("Opportunity %d", i+1),
	}
}

// intn returns an int in [lo, hi).
func (g *Generator) intn(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo)
}

func (g *Generator) grossMargin() float64 {
	v := MinGrossMargin + g.rng.Float64()*(MaxGrossMargin-MinGrossMargin)
	return math.Round(v*100) / 100
}

func pick[T any](g *Generator, items []T) T {
	return items[g.rng.IntN(len(items))]
}

// Snapshot draws every record set for one run. A zero seed is replaced by a
// random one, so the default run is not reproducible.
func Snapshot(ctx context.Context, seed uint64, now time.Time, counts Counts) (*models.Snapshot, error) {
	seed = resolveSeed(seed)

	snap := &models.Snapshot{
		ID:          uuid.NewString(),
		Seed:        seed,
		GeneratedAt: now,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap.Projects = newStream(seed, streamProjects, now).Projects(counts.Projects)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap.Activities = newStream(seed, streamActivities, now).Activities(counts.Activities)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap.SalesOrders = newStream(seed, streamSalesOrders, now).SalesOrders(counts.SalesOrders)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap.ComplianceTasks = newStream(seed, streamCompliance, now).ComplianceTasks(counts.ComplianceTasks)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap.MarketTurnover = newStream(seed, streamMarkets, now).MarketTurnover(counts.Markets)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("generate snapshot: %w", err)
	}
	return snap, nil
}
