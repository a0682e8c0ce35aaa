package domain

// Stats holds the persisted order counters.
type Stats struct {
	OrdersCompleted int                  `json:"orders_completed"`
	RandomOrders    int                  `json:"random_drink_orders"`
	PresetOrders    int                  `json:"preset_drink_orders"`
	OrdersTimedOut  int                  `json:"orders_timed_out"`
	OrdersCancelled int                  `json:"orders_cancelled"`
	CustomOrders    int                  `json:"custom_drink_orders"`
	PresetCounts    [CatalogCapacity]int `json:"preset_cocktail_order_counts"`
}

// Ranked is one entry of the popularity ranking.
type Ranked struct {
	Slot  int
	Name  string
	Count int
}
