package videogen

import (
	"fmt"
	"math"
)

// testRenderCapSeconds caps the duration a test render is billed at.
const testRenderCapSeconds = 10

// EstimateCost prices a render of the requested duration on a provider.
// Durations outside the provider's [min, max] window are clamped to the
// nearest bound rather than rejected: an out-of-bounds request is billed at
// the nearest valid duration.
func EstimateCost(providerID string, requestedSeconds int) (float64, error) {
	meta, err := GetProvider(providerID)
	if err != nil {
		return 0, err
	}
	seconds := requestedSeconds
	if seconds < meta.MinDurationSeconds {
		seconds = meta.MinDurationSeconds
	}
	if seconds > meta.MaxDurationSeconds {
		seconds = meta.MaxDurationSeconds
	}
	return round2(float64(seconds) * meta.CostPerSecond), nil
}

// EstimateTestRenderCost prices a low-cost test render. Providers without
// test-render support return 0, which callers must read as "not applicable"
// rather than "free".
func EstimateTestRenderCost(providerID string) (float64, error) {
	meta, err := GetProvider(providerID)
	if err != nil {
		return 0, err
	}
	if !meta.SupportsTestRender {
		return 0, nil
	}
	seconds := min(testRenderCapSeconds, meta.MaxDurationSeconds)
	return round2(float64(seconds) * meta.CostPerSecond * meta.TestRenderMultiplier), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BudgetError indicates a render's cost estimate exceeds the workspace cap.
type BudgetError struct {
	ProviderID    string
	EstimatedCost float64
	Budget        float64
}

// Error implements the error interface.
func (e *BudgetError) Error() string {
	return fmt.Sprintf("render on %s estimated at $%.2f exceeds the workspace budget of $%.2f",
		e.ProviderID, e.EstimatedCost, e.Budget)
}
