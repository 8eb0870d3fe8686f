// Package cart is the shopping cart kept in the session cookie:
// product id -> quantity.
package cart

import (
	"sort"

	json "github.com/goccy/go-json"
)

// MaxQuantity caps a single line, matching the 1..10 quantity picker.
const MaxQuantity = 10

type Cart map[uint]int

// Decode never fails: a corrupt cookie yields an empty cart.
func Decode(s string) Cart {
	c := Cart{}
	if s == "" {
		return c
	}
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return Cart{}
	}
	for id, q := range c {
		if q <= 0 {
			delete(c, id)
		} else if q > MaxQuantity {
			c[id] = MaxQuantity
		}
	}
	return c
}

func (c Cart) Encode() string {
	b, err := json.Marshal(map[uint]int(c))
	if err != nil {
		return ""
	}
	return string(b)
}

// Add increases a line by qty (at least 1), capped at MaxQuantity.
func (c Cart) Add(id uint, qty int) {
	if qty <= 0 {
		qty = 1
	}
	c[id] = clamp(c[id] + qty)
}

// Set replaces a line; qty <= 0 removes it.
func (c Cart) Set(id uint, qty int) {
	if qty <= 0 {
		delete(c, id)
		return
	}
	c[id] = clamp(qty)
}

func (c Cart) Remove(ids ...uint) {
	for _, id := range ids {
		delete(c, id)
	}
}

func (c Cart) Clear() {
	for id := range c {
		delete(c, id)
	}
}

// Count is the number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for _, q := range c {
		n += q
	}
	return n
}

// IDs returns the product ids in ascending order.
func (c Cart) IDs() []uint {
	ids := make([]uint, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func clamp(q int) int {
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}
