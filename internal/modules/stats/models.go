package stats

import (
	"time"

	"github.com/ankitjgd/xirrcalc/internal/modules/benchmark"
)

// Record is the complete performance summary for one account (or a combined
// portfolio). Percentage fields are x100 of the underlying decimal rate.
// XIRRPct is nil when the solver failed; XIRRFailureReason then explains why
// and the caller falls back to SimpleReturnPct.
type Record struct {
	Label             string            `json:"label"`
	FirstDate         time.Time         `json:"first_date"`
	DaysInvested      int               `json:"days_invested"`
	YearsInvested     float64           `json:"years_invested"`
	TotalInvested     float64           `json:"total_invested"`
	TotalWithdrawn    float64           `json:"total_withdrawn"`
	CurrentValue      float64           `json:"current_value"`
	NetGain           float64           `json:"net_gain"`
	SimpleReturnPct   float64           `json:"simple_return_pct"`
	XIRRPct           *float64          `json:"xirr_pct"`
	XIRRFailureReason string            `json:"xirr_failure_reason,omitempty"`
	CountOutflows     int               `json:"count_outflows"`
	CountInflows      int               `json:"count_inflows"`
	Benchmark         *benchmark.Result `json:"benchmark,omitempty"`
}
