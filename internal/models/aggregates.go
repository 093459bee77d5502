package models

type Summary struct {
	Projects       int     `json:"projects"`
	TotalRevenue   float64 `json:"total_revenue"`
	AvgGrossMargin float64 `json:"avg_gm_pct"`
	AvgWIP         float64 `json:"avg_wip_pct"`
	AvgBudgetSpent float64 `json:"avg_budget_spent_pct"`
}

type MonthlyData struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type CategoryValue struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

type ActivityKPIs struct {
	Total     int             `json:"total"`
	ByManager []CategoryCount `json:"by_manager"`
	ByMarket  []CategoryCount `json:"by_market"`
}

type SalesOverview struct {
	Orders         []SalesOrder    `json:"orders"`
	TotalRevenue   float64         `json:"total_revenue"`
	AvgGrossMargin float64         `json:"avg_gm_pct"`
	ByManager      []CategoryValue `json:"by_manager"`
}

type ComplianceOverview struct {
	Tasks     []ComplianceTask `json:"tasks"`
	ByType    []CategoryCount  `json:"by_type"`
	ByManager []CategoryCount  `json:"by_manager"`
}

type MarketOverview struct {
	Records  []MarketTurnover `json:"records"`
	ByMarket []CategoryValue  `json:"avg_total_days_by_market"`
}
