package model

// Bucket identifies one of the three fixed sleeves of the portfolio.
type Bucket int

const (
	RealEstate Bucket = iota
	Stocks
	Cash
)

func (b Bucket) String() string {
	switch b {
	case RealEstate:
		return "real_estate"
	case Stocks:
		return "stocks"
	case Cash:
		return "cash"
	default:
		return "unknown"
	}
}

// Holdings is the cash-equivalent value of each bucket at one point of a run.
// Values are never mutated in place: every transition returns a new Holdings.
type Holdings struct {
	RE   float64
	STK  float64
	Cash float64
}

// EqualThirds splits capital into three equal buckets.
func EqualThirds(capital float64) Holdings {
	third := capital / 3
	return Holdings{RE: third, STK: third, Cash: third}
}

// Total returns the sum of the three buckets.
func (h Holdings) Total() float64 { return h.RE + h.STK + h.Cash }

// Grow applies one day of simple returns to each bucket.
func (h Holdings) Grow(retRE, retSTK, retCash float64) Holdings {
	return Holdings{
		RE:   h.RE * (1 + retRE),
		STK:  h.STK * (1 + retSTK),
		Cash: h.Cash * (1 + retCash),
	}
}

// Rebalanced resets every bucket to a third of total.
func (h Holdings) Rebalanced(total float64) Holdings {
	return EqualThirds(total)
}

// Weights divides each bucket by total.
func (h Holdings) Weights(total float64) Weights {
	return Weights{RE: h.RE / total, STK: h.STK / total, Cash: h.Cash / total}
}

// Weights is the fraction of total equity held in each bucket.
type Weights struct {
	RE   float64 `json:"re"`
	STK  float64 `json:"stk"`
	Cash float64 `json:"cash"`
}
