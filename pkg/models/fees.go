package models

// FeeTier is the maker/taker schedule the account currently pays.
type FeeTier struct {
	PricingTier  string `json:"pricing_tier"`
	USDFrom      Number `json:"usd_from"`
	USDTo        Number `json:"usd_to"`
	TakerFeeRate Number `json:"taker_fee_rate"`
	MakerFeeRate Number `json:"maker_fee_rate"`

	Extra Extra `json:"-"`
}

func (f *FeeTier) UnmarshalJSON(data []byte) error {
	type alias FeeTier
	return decodeObject(data, "FeeTier", (*alias)(f), &f.Extra)
}

// MarginRate is the account margin rate.
type MarginRate struct {
	Value Number `json:"value"`

	Extra Extra `json:"-"`
}

func (m *MarginRate) UnmarshalJSON(data []byte) error {
	type alias MarginRate
	return decodeObject(data, "MarginRate", (*alias)(m), &m.Extra)
}

// GoodsAndServicesTax applies to fees in some jurisdictions.
type GoodsAndServicesTax struct {
	Rate Number `json:"rate"`
	Type string `json:"type"`

	Extra Extra `json:"-"`
}

func (g *GoodsAndServicesTax) UnmarshalJSON(data []byte) error {
	type alias GoodsAndServicesTax
	return decodeObject(data, "GoodsAndServicesTax", (*alias)(g), &g.Extra)
}

// TransactionsSummary aggregates volume and fees over a window.
type TransactionsSummary struct {
	TotalVolume             Number               `json:"total_volume"`
	TotalFees               Number               `json:"total_fees"`
	FeeTier                 *FeeTier             `json:"fee_tier"`
	MarginRate              *MarginRate          `json:"margin_rate"`
	GoodsAndServicesTax     *GoodsAndServicesTax `json:"goods_and_services_tax"`
	AdvancedTradeOnlyVolume Number               `json:"advanced_trade_only_volume"`
	AdvancedTradeOnlyFees   Number               `json:"advanced_trade_only_fees"`
	CoinbaseProVolume       Number               `json:"coinbase_pro_volume"`
	CoinbaseProFees         Number               `json:"coinbase_pro_fees"`
	TotalBalance            Number               `json:"total_balance"`
	HasPromoFee             bool                 `json:"has_promo_fee"`

	Extra Extra `json:"-"`
}

func (s *TransactionsSummary) UnmarshalJSON(data []byte) error {
	type alias TransactionsSummary
	return decodeObject(data, "TransactionsSummary", (*alias)(s), &s.Extra)
}
