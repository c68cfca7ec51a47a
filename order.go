package prefstack

import (
	"fmt"
	"strings"
)

// Order selects the statement order of emitted output.
type Order string

const (
	// OrderFirstSeen lists keys in the order they first appear across the
	// merged layers.
	OrderFirstSeen Order = "first-seen"

	// OrderLexical lists keys in byte-wise ascending order.
	OrderLexical Order = "lexical"
)

// ParseOrder converts "first-seen" or "lexical". An empty string selects
// OrderFirstSeen.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderFirstSeen:
		return OrderFirstSeen, nil
	case OrderLexical:
		return OrderLexical, nil
	}
	return "", fmt.Errorf("unknown order %q (want %q or %q)", s, OrderFirstSeen, OrderLexical)
}

// String implements pflag.Value.
func (o Order) String() string {
	if o == "" {
		return string(OrderFirstSeen)
	}
	return string(o)
}

// Set implements pflag.Value.
func (o *Order) Set(s string) error {
	v, err := ParseOrder(s)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Type implements pflag.Value.
func (o *Order) Type() string {
	return "order"
}
