package model

import (
	"fmt"
	"strings"
)

// Policy is the rebalancing cadence of a run.
type Policy int

const (
	Yearly Policy = iota
	Quarterly
	BuyAndHold
)

func (p Policy) String() string {
	switch p {
	case Yearly:
		return "yearly"
	case Quarterly:
		return "quarterly"
	case BuyAndHold:
		return "buy-and-hold"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Valid reports whether p is one of the known policies.
func (p Policy) Valid() bool { return p >= Yearly && p <= BuyAndHold }

// ParsePolicy parses a policy name, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yearly", "year", "y", "annual":
		return Yearly, nil
	case "quarterly", "quarter", "q":
		return Quarterly, nil
	case "none", "hold", "buyandhold", "buy-and-hold", "buy_and_hold", "bh":
		return BuyAndHold, nil
	default:
		return Yearly, fmt.Errorf("unknown rebalance policy %q", s)
	}
}

// MarshalText encodes the policy by name so it reads well in JSON and YAML.
func (p Policy) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid policy %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a policy name.
func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
