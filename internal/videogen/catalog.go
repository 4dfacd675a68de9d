// Package videogen holds the static video provider catalog, the cost model
// over it, and the render job lifecycle shared by every provider.
package videogen

import "fmt"

// ProviderStatus gates whether a provider is offered to workspaces.
type ProviderStatus string

const (
	StatusActive   ProviderStatus = "active"
	StatusInactive ProviderStatus = "inactive"
)

// ProviderCategory groups providers by the kind of footage they produce.
type ProviderCategory string

const (
	CategoryCinematic ProviderCategory = "cinematic"
	CategoryAvatar    ProviderCategory = "avatar"
	CategoryAnimation ProviderCategory = "animation"
)

// ProviderMeta is a static catalog entry for one video-generation provider.
// The catalog is code-defined and immutable at runtime; the only derived
// mutable value is a computed cost.
type ProviderMeta struct {
	ID                 string
	Name               string
	Category           ProviderCategory
	Status             ProviderStatus
	CostPerSecond      float64
	MinDurationSeconds int
	MaxDurationSeconds int
	Resolutions        []string
	SupportsTestRender bool

	// TestRenderMultiplier discounts the per-second cost for test renders.
	// Meaningful only when SupportsTestRender is true.
	TestRenderMultiplier float64
}

// Catalog is the closed provider set, ordered by display priority.
var Catalog = []ProviderMeta{
	{
		ID:                   "runway",
		Name:                 "Runway Gen-3",
		Category:             CategoryCinematic,
		Status:               StatusActive,
		CostPerSecond:        0.75,
		MinDurationSeconds:   5,
		MaxDurationSeconds:   40,
		Resolutions:          []string{"1280x768", "1920x1080"},
		SupportsTestRender:   true,
		TestRenderMultiplier: 0.25,
	},
	{
		ID:                 "luma",
		Name:               "Luma Dream Machine",
		Category:           CategoryCinematic,
		Status:             StatusActive,
		CostPerSecond:      0.50,
		MinDurationSeconds: 5,
		MaxDurationSeconds: 120,
		Resolutions:        []string{"1280x720", "1920x1080"},
	},
	{
		ID:                   "heygen",
		Name:                 "HeyGen Avatar",
		Category:             CategoryAvatar,
		Status:               StatusActive,
		CostPerSecond:        0.30,
		MinDurationSeconds:   10,
		MaxDurationSeconds:   300,
		Resolutions:          []string{"1080x1920", "1920x1080"},
		SupportsTestRender:   true,
		TestRenderMultiplier: 0.5,
	},
	{
		ID:                 "pika",
		Name:               "Pika Animation",
		Category:           CategoryAnimation,
		Status:             StatusActive,
		CostPerSecond:      0.20,
		MinDurationSeconds: 3,
		MaxDurationSeconds: 15,
		Resolutions:        []string{"1024x576"},
	},
	{
		ID:                 "modelscope",
		Name:               "ModelScope Legacy",
		Category:           CategoryAnimation,
		Status:             StatusInactive,
		CostPerSecond:      0.05,
		MinDurationSeconds: 2,
		MaxDurationSeconds: 8,
		Resolutions:        []string{"512x512"},
	},
}

var catalogByID = func() map[string]*ProviderMeta {
	index := make(map[string]*ProviderMeta, len(Catalog))
	for i := range Catalog {
		index[Catalog[i].ID] = &Catalog[i]
	}
	return index
}()

// GetProvider looks up a provider by id.
func GetProvider(id string) (*ProviderMeta, error) {
	meta, ok := catalogByID[id]
	if !ok {
		return nil, fmt.Errorf("videogen: unknown provider %q", id)
	}
	return meta, nil
}

// ActiveProviders returns the providers currently offered to workspaces.
func ActiveProviders() []ProviderMeta {
	var active []ProviderMeta
	for _, meta := range Catalog {
		if meta.Status == StatusActive {
			active = append(active, meta)
		}
	}
	return active
}

// ProvidersByCategory returns the active providers in one category.
func ProvidersByCategory(category ProviderCategory) []ProviderMeta {
	var matched []ProviderMeta
	for _, meta := range Catalog {
		if meta.Status == StatusActive && meta.Category == category {
			matched = append(matched, meta)
		}
	}
	return matched
}
