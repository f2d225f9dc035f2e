package entity

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod falls back to PeriodDay for anything unrecognised.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodWeek:
		return PeriodWeek
	case PeriodMonth:
		return PeriodMonth
	default:
		return PeriodDay
	}
}

type ChartPoint struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

type Statistics struct {
	TotalOrders     int          `json:"totalOrders"`
	PaidOrders      int          `json:"paidOrders"`
	CancelledOrders int          `json:"cancelledOrders"`
	OpenOrders      int          `json:"openOrders"`
	TotalRevenue    float64      `json:"totalRevenue"`
	ChartData       []ChartPoint `json:"chartData"`
}
