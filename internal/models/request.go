package models

import (
	"strings"
	"time"
)

// Request describes one analysis task handed to the council.
// It is immutable after construction and shared by reference
// across every pipeline stage.
type Request struct {
	Symbol        string    `json:"symbol"`
	Horizon       string    `json:"horizon"`
	MarketContext string    `json:"market_context"`
	AsOf          time.Time `json:"as_of"`
}

// NewRequest builds a request with a normalized upper-case symbol.
// AsOf defaults to the construction time when zero.
func NewRequest(symbol, horizon, marketContext string) *Request {
	return NewRequestAt(symbol, horizon, marketContext, time.Now().UTC())
}

// NewRequestAt builds a request pinned to an explicit as-of date,
// used for offline and batch replays.
func NewRequestAt(symbol, horizon, marketContext string, asOf time.Time) *Request {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	if horizon == "" {
		horizon = "1d"
	}
	if marketContext == "" {
		marketContext = "general market conditions"
	}
	return &Request{
		Symbol:        strings.ToUpper(strings.TrimSpace(symbol)),
		Horizon:       horizon,
		MarketContext: marketContext,
		AsOf:          asOf,
	}
}

// TradeDate renders the as-of date the way data tools expect it.
func (r *Request) TradeDate() string {
	return r.AsOf.Format("2006-01-02")
}
