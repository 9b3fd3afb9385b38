// Package pricing computes laundry order prices, machine allocations and
// Premium quota consumption. Everything here is pure: no I/O, no shared state.
package pricing

type Engine struct {
	rates Rates
}

func NewEngine(rates Rates) (*Engine, error) {
	if err := rates.Validate(); err != nil {
		return nil, err
	}

	return &Engine{rates: rates}, nil
}
