// Package gateway implements the sync protocol used by the companion app
// to read and replace the menu, the stock and the statistics.
//
// A command is one line:
//
//	REQUEST <Menu|Stats|Stock>
//	POST <Menu|Stock> <json>
//
// REQUEST answers with the resource as JSON on the value channel. POST
// replaces the resource and sends nothing back.
package gateway

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hammamikhairi/ottobar/internal/domain"
)

// Verb is the command prefix.
type Verb int

const (
	VerbRequest Verb = iota
	VerbPost
)

// String returns the wire form of the verb.
func (v Verb) String() string {
	if v == VerbPost {
		return "POST"
	}
	return "REQUEST"
}

// Resource names understood by the appliance.
const (
	ResourceMenu  = "Menu"
	ResourceStats = "Stats"
	ResourceStock = "Stock"
)

// Command is one parsed protocol line.
type Command struct {
	Verb     Verb
	Resource string
	Payload  []byte // POST only
}

// String renders the command without its payload, for logs.
func (c Command) String() string {
	if c.Verb == VerbPost {
		return fmt.Sprintf("%s %s (%d bytes)", c.Verb, c.Resource, len(c.Payload))
	}
	return fmt.Sprintf("%s %s", c.Verb, c.Resource)
}

var (
	requestPattern = regexp.MustCompile(`^REQUEST (.+)$`)
	postPattern    = regexp.MustCompile(`(?s)^POST (\S+) (.+)$`)
)

// Parse splits a command line. Resource names are not checked here: an
// unknown REQUEST resource still gets an answer.
func Parse(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	if m := requestPattern.FindStringSubmatch(line); m != nil {
		return Command{Verb: VerbRequest, Resource: m[1]}, nil
	}
	if m := postPattern.FindStringSubmatch(line); m != nil {
		return Command{Verb: VerbPost, Resource: m[1], Payload: []byte(m[2])}, nil
	}
	if strings.HasPrefix(line, "POST ") {
		return Command{}, fmt.Errorf("post without payload: %w", domain.ErrMalformedPayload)
	}
	return Command{}, fmt.Errorf("%q: %w", truncate(line, 32), domain.ErrUnknownCommand)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
