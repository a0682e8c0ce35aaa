// Package notify delivers appliance messages to the person at the machine:
// printed to the terminal, played as a chime, or both.
package notify

import (
	"context"
	"fmt"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*Console)(nil)

// ANSI escape codes for terminal formatting.
const (
	reset = "\033[0m"
	bold  = "\033[1m"
	red   = "\033[31m"
	cyan  = "\033[36m"
)

// PrintFunc prints one formatted line. Matches display.UI.Printf.
type PrintFunc func(format string, a ...any)

// Console writes notifications through a PrintFunc with ANSI formatting.
type Console struct {
	log     *logger.Logger
	printFn PrintFunc
}

// NewConsole creates a terminal notifier.
// If printFn is nil, fmt.Printf is used.
func NewConsole(log *logger.Logger, printFn PrintFunc) *Console {
	if printFn == nil {
		printFn = func(format string, a ...any) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &Console{log: log, printFn: printFn}
}

// Notify prints a normal notification.
func (n *Console) Notify(ctx context.Context, message string) error {
	n.log.Debug("notify: %s", message)
	n.printFn("%s%s%s%s", cyan, bold, message, reset)
	return nil
}

// NotifyUrgent prints an urgent notification in bold red.
func (n *Console) NotifyUrgent(ctx context.Context, message string) error {
	n.log.Debug("notify-urgent: %s", message)
	n.printFn("%s%s%s%s", red, bold, message, reset)
	return nil
}
