package models

import (
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/coachpo/coinbase-advanced/internal/numeric"
)

// Product is a tradable pair.
type Product struct {
	ProductID                 string          `json:"product_id"`
	Price                     Number          `json:"price"`
	PricePercentageChange24h  string          `json:"price_percentage_change_24h"`
	Volume24h                 Number          `json:"volume_24h"`
	VolumePercentageChange24h string          `json:"volume_percentage_change_24h"`
	BaseIncrement             Number          `json:"base_increment"`
	QuoteIncrement            Number          `json:"quote_increment"`
	QuoteMinSize              Number          `json:"quote_min_size"`
	QuoteMaxSize              Number          `json:"quote_max_size"`
	BaseMinSize               Number          `json:"base_min_size"`
	BaseMaxSize               Number          `json:"base_max_size"`
	BaseName                  string          `json:"base_name"`
	QuoteName                 string          `json:"quote_name"`
	Watched                   bool            `json:"watched"`
	IsDisabled                bool            `json:"is_disabled"`
	New                       bool            `json:"new"`
	Status                    string          `json:"status"`
	CancelOnly                bool            `json:"cancel_only"`
	LimitOnly                 bool            `json:"limit_only"`
	PostOnly                  bool            `json:"post_only"`
	TradingDisabled           bool            `json:"trading_disabled"`
	AuctionMode               bool            `json:"auction_mode"`
	ProductType               ProductType     `json:"product_type"`
	QuoteCurrencyID           string          `json:"quote_currency_id"`
	BaseCurrencyID            string          `json:"base_currency_id"`
	MidMarketPrice            Number          `json:"mid_market_price"`
	FCMTradingSessionDetails  json.RawMessage `json:"fcm_trading_session_details,omitempty"`
	Alias                     string          `json:"alias"`
	AliasTo                   []string        `json:"alias_to"`
	BaseDisplaySymbol         string          `json:"base_display_symbol"`
	QuoteDisplaySymbol        string          `json:"quote_display_symbol"`

	Extra Extra `json:"-"`
}

func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	return decodeObject(data, "Product", (*alias)(p), &p.Extra, "product_id")
}

// QuantizeBase rounds size down to the product's base increment. Sizes are
// returned unchanged when the increment is unknown.
func (p Product) QuantizeBase(size decimal.Decimal) decimal.Decimal {
	if !p.BaseIncrement.Valid {
		return size
	}
	return numeric.Quantize(size, p.BaseIncrement.Decimal)
}

// QuantizeQuote rounds size down to the product's quote increment.
func (p Product) QuantizeQuote(size decimal.Decimal) decimal.Decimal {
	if !p.QuoteIncrement.Valid {
		return size
	}
	return numeric.Quantize(size, p.QuoteIncrement.Decimal)
}

// ProductsPage is the body of ListProducts.
type ProductsPage struct {
	Products    []Product `json:"products"`
	NumProducts int       `json:"num_products"`

	Extra Extra `json:"-"`
}

func (p *ProductsPage) UnmarshalJSON(data []byte) error {
	type alias ProductsPage
	return decodeObject(data, "ProductsPage", (*alias)(p), &p.Extra, "products")
}

// Candle is one OHLCV bucket. Start is in unix seconds.
type Candle struct {
	Start  Seconds `json:"start"`
	Low    Number  `json:"low"`
	High   Number  `json:"high"`
	Open   Number  `json:"open"`
	Close  Number  `json:"close"`
	Volume Number  `json:"volume"`

	Extra Extra `json:"-"`
}

func (c *Candle) UnmarshalJSON(data []byte) error {
	type alias Candle
	return decodeObject(data, "Candle", (*alias)(c), &c.Extra, "start")
}

// CandlesPage is the body of GetProductCandles.
type CandlesPage struct {
	Candles []Candle `json:"candles"`

	Extra Extra `json:"-"`
}

func (p *CandlesPage) UnmarshalJSON(data []byte) error {
	type alias CandlesPage
	return decodeObject(data, "CandlesPage", (*alias)(p), &p.Extra, "candles")
}

// Trade is one public market trade.
type Trade struct {
	TradeID   string `json:"trade_id"`
	ProductID string `json:"product_id"`
	Price     Number `json:"price"`
	Size      Number `json:"size"`
	Time      Time   `json:"time"`
	Side      Side   `json:"side"`
	Bid       Number `json:"bid"`
	Ask       Number `json:"ask"`

	Extra Extra `json:"-"`
}

func (t *Trade) UnmarshalJSON(data []byte) error {
	type alias Trade
	return decodeObject(data, "Trade", (*alias)(t), &t.Extra, "trade_id")
}

// TradesPage is the body of GetMarketTrades.
type TradesPage struct {
	Trades  []Trade `json:"trades"`
	BestBid Number  `json:"best_bid"`
	BestAsk Number  `json:"best_ask"`

	Extra Extra `json:"-"`
}

func (p *TradesPage) UnmarshalJSON(data []byte) error {
	type alias TradesPage
	return decodeObject(data, "TradesPage", (*alias)(p), &p.Extra, "trades")
}

// PriceLevel is one aggregated order book level.
type PriceLevel struct {
	Price Number `json:"price"`
	Size  Number `json:"size"`

	Extra Extra `json:"-"`
}

func (l *PriceLevel) UnmarshalJSON(data []byte) error {
	type alias PriceLevel
	return decodeObject(data, "PriceLevel", (*alias)(l), &l.Extra, "price", "size")
}

// ProductBook is an order book snapshot for one product.
type ProductBook struct {
	ProductID string       `json:"product_id"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Time      Time         `json:"time"`

	Extra Extra `json:"-"`
}

func (b *ProductBook) UnmarshalJSON(data []byte) error {
	type alias ProductBook
	return decodeObject(data, "ProductBook", (*alias)(b), &b.Extra, "product_id")
}

// BestBid returns the top bid, if any.
func (b ProductBook) BestBid() (PriceLevel, bool) {
	if len(b.Bids) == 0 {
		return PriceLevel{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the top ask, if any.
func (b ProductBook) BestAsk() (PriceLevel, bool) {
	if len(b.Asks) == 0 {
		return PriceLevel{}, false
	}
	return b.Asks[0], true
}

// BidAsksPage is the body of GetBestBidAsk.
type BidAsksPage struct {
	Pricebooks []ProductBook `json:"pricebooks"`

	Extra Extra `json:"-"`
}

func (p *BidAsksPage) UnmarshalJSON(data []byte) error {
	type alias BidAsksPage
	return decodeObject(data, "BidAsksPage", (*alias)(p), &p.Extra, "pricebooks")
}
