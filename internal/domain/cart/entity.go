// internal/domain/cart/entity.go
package cart

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrInvalidCart = errors.New("cart: invalid")
)

// StorageKey is the scoped key the ledger is persisted under.
const StorageKey = "cart"

// Line is one product in the cart.
// The price is never stored here; it is always read from the live catalog.
type Line struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Cart is a client-local quantity ledger.
//   - a product appears at most once
//   - every quantity is >= 1
//   - lines keep insertion order
type Cart struct {
	Lines []Line `json:"lines"`
}

// New returns a cart built from lines, merging duplicates and dropping invalid entries.
func New(lines []Line) *Cart {
	return &Cart{Lines: normalizeAndMerge(lines)}
}

// Add increments the quantity for productID by one, creating the line if needed.
func (c *Cart) Add(productID string) error {
	if c == nil {
		return ErrInvalidCart
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return ErrInvalidCart
	}

	if idx := c.indexOf(pid); idx >= 0 {
		c.Lines[idx].Quantity++
		return nil
	}
	c.Lines = append(c.Lines, Line{ProductID: pid, Quantity: 1})
	return nil
}

// SetQty sets the quantity for productID.
// If qty <= 0, it removes the line.
func (c *Cart) SetQty(productID string, qty int) error {
	if c == nil {
		return ErrInvalidCart
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return ErrInvalidCart
	}

	idx := c.indexOf(pid)
	if qty <= 0 {
		if idx >= 0 {
			c.Lines = removeIndex(c.Lines, idx)
		}
		return nil
	}

	if idx >= 0 {
		c.Lines[idx].Quantity = qty
	} else {
		c.Lines = append(c.Lines, Line{ProductID: pid, Quantity: qty})
	}
	return nil
}

// Remove deletes the line for productID. Absent lines are a no-op.
func (c *Cart) Remove(productID string) error {
	return c.SetQty(productID, 0)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	if c == nil {
		return
	}
	c.Lines = []Line{}
}

// ItemCount is the sum of quantities.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Quantity returns the quantity for productID (0 when absent).
func (c *Cart) Quantity(productID string) int {
	if c == nil {
		return 0
	}
	if idx := c.indexOf(strings.TrimSpace(productID)); idx >= 0 {
		return c.Lines[idx].Quantity
	}
	return 0
}

// Snapshot returns a copy of the lines.
func (c *Cart) Snapshot() []Line {
	if c == nil || len(c.Lines) == 0 {
		return []Line{}
	}
	out := make([]Line, len(c.Lines))
	copy(out, c.Lines)
	return out
}

// ----------------------------
// Persistence shape
// ----------------------------

// Marshal encodes the ledger as the persisted JSON array [{productId, quantity}].
func (c *Cart) Marshal() (string, error) {
	b, err := json.Marshal(c.Snapshot())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Unmarshal decodes a persisted ledger. Empty input is an empty cart.
// Malformed entries are dropped; malformed JSON is an error.
func Unmarshal(raw string) (*Cart, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return New(nil), nil
	}
	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, errors.Join(ErrInvalidCart, err)
	}
	return New(lines), nil
}

// ----------------------------
// Helpers
// ----------------------------

func (c *Cart) indexOf(pid string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == pid {
			return i
		}
	}
	return -1
}

func removeIndex(lines []Line, idx int) []Line {
	if idx < 0 || idx >= len(lines) {
		return lines
	}
	return append(lines[:idx], lines[idx+1:]...)
}

func normalizeAndMerge(src []Line) []Line {
	out := make([]Line, 0, len(src))
	pos := map[string]int{}

	for _, l := range src {
		pid := strings.TrimSpace(l.ProductID)
		if pid == "" || l.Quantity <= 0 {
			continue
		}
		if i, ok := pos[pid]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		pos[pid] = len(out)
		out = append(out, Line{ProductID: pid, Quantity: l.Quantity})
	}
	return out
}
