package storage

import (
	"fmt"

	"github.com/hammamikhairi/ottobar/internal/domain"
)

var errInjected = fmt.Errorf("memory repository: injected failure: %w", domain.ErrUnavailable)
