package domain

import (
	"fmt"
	"strings"
)

// HopOrder decides which venue takes the first leg.
type HopOrder uint8

const (
	// RichFirst sells the loan asset on the venue paying the most for it and
	// buys it back on the cheapest.
	RichFirst HopOrder = iota
	// CheapFirst runs the legs the other way round.
	CheapFirst
)

func (o HopOrder) String() string {
	switch o {
	case RichFirst:
		return "rich_first"
	case CheapFirst:
		return "cheap_first"
	default:
		return fmt.Sprintf("hop_order(%d)", uint8(o))
	}
}

// ParseHopOrder parses "rich_first" or "cheap_first". Empty means RichFirst.
func ParseHopOrder(s string) (HopOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rich_first":
		return RichFirst, nil
	case "cheap_first":
		return CheapFirst, nil
	default:
		return 0, fmt.Errorf("unknown hop order %q", s)
	}
}
