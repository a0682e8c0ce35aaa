package domain

import "context"

// WeightSensor is the load cell under the cup. Calibration is the driver's
// concern.
type WeightSensor interface {
	// ReadWeight returns the average of samples consecutive readings in grams.
	ReadWeight(samples int) float64
	Ready() bool
}

// ActuatorBank switches the ingredient pumps.
type ActuatorBank interface {
	SetActuator(index int, on bool)
}

// InputSource yields one touch sample per call. It must not block.
type InputSource interface {
	Poll() Touch
}

// Repository persists the appliance records. Implementations can be
// in-memory, SQLite, or flash-backed.
type Repository interface {
	LoadCatalog(ctx context.Context) (Catalog, error)
	SaveCatalog(ctx context.Context, catalog Catalog) error
	LoadStock(ctx context.Context) (Stock, error)
	SaveStock(ctx context.Context, stock Stock) error
	LoadStats(ctx context.Context) (Stats, error)
	SaveStats(ctx context.Context, stats Stats) error
}

// Notifier delivers messages to the user. Implementations can write to
// the console, beep, or both.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}
