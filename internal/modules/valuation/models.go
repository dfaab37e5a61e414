package valuation

// Inputs are the quote fields a valuation works from. Every field is
// optional; each heuristic only fires when the fields it needs are present.
type Inputs struct {
	Current   *float64 `json:"current,omitempty"`
	High      *float64 `json:"high,omitempty"`
	Low       *float64 `json:"low,omitempty"`
	Open      *float64 `json:"open,omitempty"`
	PrevClose *float64 `json:"prev_close,omitempty"`
	AvgCost   *float64 `json:"avg_cost,omitempty"`
}

// FairValueEstimate is the multi-method fair-value average with its ±10%
// range and the number of candidate methods that contributed
type FairValueEstimate struct {
	Value      float64 `json:"value"`
	RangeLow   float64 `json:"range_low"`
	RangeHigh  float64 `json:"range_high"`
	Candidates int     `json:"candidates"`
}

// ZoneStrength ranks a buy zone
type ZoneStrength string

const (
	ZoneStrong   ZoneStrength = "STRONG"
	ZoneModerate ZoneStrength = "MODERATE"
	ZoneWeak     ZoneStrength = "WEAK"
)

// BuyZone is a heuristically-identified entry price level
type BuyZone struct {
	Price    float64      `json:"price"`
	Strength ZoneStrength `json:"strength"`
	Source   string       `json:"source"`
}

// Recommendation is the discrete decision-support signal
type Recommendation string

const (
	StrongBuy  Recommendation = "STRONG_BUY"
	Buy        Recommendation = "BUY"
	Hold       Recommendation = "HOLD"
	Sell       Recommendation = "SELL"
	StrongSell Recommendation = "STRONG_SELL"
)

// Report is the full valuation answer for one symbol
type Report struct {
	Symbol         string             `json:"symbol"`
	Inputs         Inputs             `json:"inputs"`
	FairValue      *FairValueEstimate `json:"fair_value,omitempty"`
	BuyZones       []BuyZone          `json:"buy_zones"`
	Recommendation Recommendation     `json:"recommendation"`
	RSI            *float64           `json:"rsi,omitempty"`
	Volatility     *float64           `json:"volatility,omitempty"`
}
