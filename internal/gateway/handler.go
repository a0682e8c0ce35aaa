package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

// fillerSize is the length of the answer to an unknown REQUEST. Peers use
// it to probe the link.
const fillerSize = 512

// Backend is the appliance state the gateway reads and replaces. All calls
// happen on the dispatch loop.
type Backend interface {
	Catalog() domain.Catalog
	Stock() domain.Stock
	Stats() domain.Stats
	ReplaceCatalog(domain.Catalog)
	ReplaceStock(domain.Stock)
}

// menuEntry is one recipe on the wire.
type menuEntry struct {
	Name    string `json:"name"`
	Amounts []int  `json:"amounts"`
}

// stockEntry is one ingredient on the wire. Outbound amounts are whole ml.
type stockEntry struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Handler answers commands against a backend.
type Handler struct {
	backend Backend
	log     *logger.Logger
}

// NewHandler creates a handler.
func NewHandler(backend Backend, log *logger.Logger) *Handler {
	return &Handler{backend: backend, log: log}
}

// Handle executes cmd. REQUEST returns the reply payload; POST returns nil
// on success. A rejected POST leaves the backend untouched.
func (h *Handler) Handle(cmd Command) ([]byte, error) {
	switch cmd.Verb {
	case VerbRequest:
		return h.request(cmd.Resource)
	case VerbPost:
		return nil, h.post(cmd.Resource, cmd.Payload)
	default:
		return nil, fmt.Errorf("verb %d: %w", cmd.Verb, domain.ErrUnknownCommand)
	}
}

func (h *Handler) request(resource string) ([]byte, error) {
	switch resource {
	case ResourceMenu:
		return EncodeMenu(h.backend.Catalog())
	case ResourceStats:
		return EncodeStats(h.backend.Stats())
	case ResourceStock:
		return EncodeStock(h.backend.Stock())
	default:
		h.log.Debug("unknown resource %q, sending filler", truncate(resource, 32))
		return Filler(), nil
	}
}

func (h *Handler) post(resource string, payload []byte) error {
	switch resource {
	case ResourceMenu:
		catalog, received, err := DecodeMenu(payload)
		if err != nil {
			return err
		}
		if received > catalog.Len() {
			h.log.Warn("menu has %d entries, keeping the first %d", received, catalog.Len())
		}
		h.backend.ReplaceCatalog(catalog)
		return nil
	case ResourceStock:
		entries, err := decodeArray[stockEntry](payload)
		if err != nil {
			return err
		}
		stock := h.backend.Stock()
		for i := 0; i < min(len(entries), domain.IngredientCount); i++ {
			stock[i].Name = entries[i].Name
			stock[i].Remaining = max(0, entries[i].Amount)
		}
		h.backend.ReplaceStock(stock)
		return nil
	default:
		return fmt.Errorf("post %q: %w", truncate(resource, 32), domain.ErrUnknownResource)
	}
}

// Filler returns the fixed answer to an unknown REQUEST.
func Filler() []byte {
	const pattern = "0123456789ABCDEF"
	out := make([]byte, fillerSize)
	for i := range out {
		out[i] = pattern[i%len(pattern)]
	}
	return out
}

// EncodeMenu renders the named recipes of the catalog.
func EncodeMenu(c domain.Catalog) ([]byte, error) {
	entries := make([]menuEntry, 0, c.Len())
	for _, r := range c.Recipes() {
		if r.Name == "" {
			continue
		}
		entries = append(entries, menuEntry{Name: r.Name, Amounts: r.Amounts[:]})
	}
	return json.Marshal(entries)
}

// EncodeStock renders every ingredient slot with its level in whole ml.
func EncodeStock(s domain.Stock) ([]byte, error) {
	entries := make([]stockEntry, len(s))
	for i, ing := range s {
		entries[i] = stockEntry{Name: ing.Name, Amount: float64(int(ing.Remaining))}
	}
	return json.Marshal(entries)
}

// EncodeStats renders the counters.
func EncodeStats(s domain.Stats) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeMenu parses a menu payload and reports how many entries it held.
// Entries beyond the catalog capacity are dropped, amounts beyond the
// ingredient count are ignored and short amount lists are zero-filled.
func DecodeMenu(payload []byte) (domain.Catalog, int, error) {
	entries, err := decodeArray[menuEntry](payload)
	if err != nil {
		return domain.Catalog{}, 0, err
	}
	received := len(entries)
	if len(entries) > domain.CatalogCapacity {
		entries = entries[:domain.CatalogCapacity]
	}
	recipes := make([]domain.Recipe, len(entries))
	for i, e := range entries {
		recipes[i].Name = e.Name
		copy(recipes[i].Amounts[:], e.Amounts)
		for j := range recipes[i].Amounts {
			recipes[i].Amounts[j] = max(0, recipes[i].Amounts[j])
		}
	}
	catalog, err := domain.NewCatalog(recipes...)
	return catalog, received, err
}

// DecodeStats parses a stats payload.
func DecodeStats(payload []byte) (domain.Stats, error) {
	var s domain.Stats
	if err := json.Unmarshal(payload, &s); err != nil {
		return s, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	return s, nil
}

// decodeArray requires payload to be a well-formed JSON array of T.
func decodeArray[T any](payload []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", domain.ErrMalformedPayload)
	}
	var out []T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	return out, nil
}
