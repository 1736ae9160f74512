package models

// FuturesPosition is an open futures position.
type FuturesPosition struct {
	ProductID       string              `json:"product_id"`
	ContractSize    Number              `json:"contract_size"`
	Side            FuturesPositionSide `json:"side"`
	Amount          Number              `json:"amount"`
	AvgEntryPrice   Number              `json:"avg_entry_price"`
	CurrentPrice    Number              `json:"current_price"`
	UnrealizedPnL   Number              `json:"unrealized_pnl"`
	Expiry          Time                `json:"expiry"`
	UnderlyingAsset string              `json:"underlying_asset"`
	AssetImgURL     string              `json:"asset_img_url"`
	ProductName     string              `json:"product_name"`
	Venue           string              `json:"venue"`
	NotionalValue   Number              `json:"notional_value"`
	MarginType      MarginType          `json:"margin_type,omitempty"`

	Extra Extra `json:"-"`
}

func (p *FuturesPosition) UnmarshalJSON(data []byte) error {
	type alias FuturesPosition
	return decodeObject(data, "FuturesPosition", (*alias)(p), &p.Extra, "product_id")
}
