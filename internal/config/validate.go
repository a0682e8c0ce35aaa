package config

import (
	"errors"
	"fmt"
)

var validLevels = map[string]bool{
	"off": true, "quiet": true,
	"normal":  true,
	"verbose": true, "debug": true,
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(validLevels[c.Log.Level], "log.level %q must be off, normal or verbose", c.Log.Level)
	check(c.Storage.Path != "", "storage.path is required")
	check(c.Storage.LoadRetry > 0, "storage.load_retry must be > 0")
	check(c.Storage.SaveTimeout > 0, "storage.save_timeout must be > 0")

	check(c.MQTT.QoS <= 2, "mqtt.qos must be 0, 1 or 2")
	check(c.MQTT.ReadvertiseDelay >= 0, "mqtt.readvertise_delay must be >= 0")
	check(c.MQTT.InboxSize > 0, "mqtt.inbox_size must be > 0")
	if c.MQTT.Broker != "" {
		check(c.MQTT.TopicPrefix != "", "mqtt.topic_prefix is required when a broker is set")
	}

	check(c.Inventory.SafetyMargin >= 0, "inventory.safety_margin_ml must be >= 0")
	check(c.Order.AdjustStep > 0, "order.adjust_step_ml must be > 0")
	check(c.Order.PerDrinkCap > 0, "order.per_drink_cap_ml must be > 0")
	check(c.Order.RandomMax > 0, "order.random_max_ml must be > 0")

	d := c.Dispense
	check(d.PresenceThreshold > 0, "dispense.presence_threshold_g must be > 0")
	check(d.PresenceSamples > 0, "dispense.presence_samples must be > 0")
	check(d.BaseSamples > 0, "dispense.base_samples must be > 0")
	check(d.LoopSamples > 0, "dispense.loop_samples must be > 0")
	check(d.StallLimit > 0, "dispense.stall_limit must be > 0")
	check(d.NoiseThreshold >= 0, "dispense.noise_threshold_g must be >= 0")
	check(d.PollInterval > 0, "dispense.poll_interval must be > 0")

	check(c.Menu.LongPressSamples > 0, "menu.long_press_samples must be > 0")
	check(c.Menu.CleanDuration > 0, "menu.clean_duration must be > 0")
	check(c.Watcher.Interval > 0, "watcher.interval must be > 0")
	check(c.Watcher.LowStock >= 0, "watcher.low_stock_ml must be >= 0")

	check(c.Rig.FlowRate > 0, "rig.flow_rate_ml_s must be > 0")
	check(c.Rig.Noise >= 0, "rig.noise_g must be >= 0")
	check(c.Audio.Volume >= 0 && c.Audio.Volume <= 1, "audio.volume must be within [0, 1]")

	return errors.Join(errs...)
}
