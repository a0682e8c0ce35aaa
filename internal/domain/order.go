package domain

// Size selects the portion multiplier applied to every ingredient target.
type Size int

const (
	SizeSmall Size = iota
	SizeMedium
	SizeLarge
)

var sizeMultipliers = [...]float64{0.75, 1, 1.25}

// Multiplier returns the portion factor for the size. Unknown sizes pour
// as Medium.
func (s Size) Multiplier() float64 {
	if s < SizeSmall || s > SizeLarge {
		return 1
	}
	return sizeMultipliers[s]
}

// String returns a human-readable size.
func (s Size) String() string {
	switch s {
	case SizeSmall:
		return "small"
	case SizeMedium:
		return "medium"
	case SizeLarge:
		return "large"
	default:
		return "unknown"
	}
}

// Category classifies an order for statistics.
type Category int

const (
	CategoryNone Category = iota
	CategoryPreset
	CategoryCustom
	CategoryRandom
)

// String returns a human-readable category.
func (c Category) String() string {
	switch c {
	case CategoryPreset:
		return "preset"
	case CategoryCustom:
		return "custom"
	case CategoryRandom:
		return "random"
	default:
		return "none"
	}
}

// Candidate is the recipe and size currently staged for dispensing.
type Candidate struct {
	Recipe Recipe
	Size   Size
}

// Selected reports whether the candidate refers to something pourable.
func (c Candidate) Selected() bool {
	return c.Recipe.Name != UnselectedName && c.Recipe.Name != ""
}

// Category derives the statistics category from the candidate identity.
func (c Candidate) Category() Category {
	switch c.Recipe.Name {
	case UnselectedName, "":
		return CategoryNone
	case CustomName:
		return CategoryCustom
	case RandomName:
		return CategoryRandom
	default:
		return CategoryPreset
	}
}

// Target returns the scaled target volume for ingredient i.
func (c Candidate) Target(i int) float64 {
	return float64(c.Recipe.Amounts[i]) * c.Size.Multiplier()
}

// Outcome is the terminal result of an order or a single pour.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeCancelled
	OutcomeTimeout
)

// String returns a human-readable outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}
