package models

import (
	"github.com/coachpo/coinbase-advanced/errs"
)

// Envelope is the header every WebSocket frame carries.
type Envelope struct {
	ChannelName Channel `json:"channel"`
	ClientID    string  `json:"client_id"`
	Timestamp   Time    `json:"timestamp"`
	SequenceNum int64   `json:"sequence_num"`
}

// Channel returns the channel the frame arrived on.
func (e Envelope) Channel() Channel { return e.ChannelName }

// Event is a decoded WebSocket frame.
type Event interface {
	Channel() Channel
}

// HeartbeatEvent is built from the first entry of a heartbeats frame.
type HeartbeatEvent struct {
	Envelope
	CurrentTime      string `json:"current_time"`
	HeartbeatCounter int64  `json:"heartbeat_counter"`

	Extra Extra `json:"-"`
}

type heartbeatPayload struct {
	CurrentTime      string `json:"current_time"`
	HeartbeatCounter int64  `json:"heartbeat_counter"`

	Extra Extra `json:"-"`
}

func (p *heartbeatPayload) UnmarshalJSON(data []byte) error {
	type alias heartbeatPayload
	return decodeObject(data, "HeartbeatEvent", (*alias)(p), &p.Extra)
}

func (h *HeartbeatEvent) UnmarshalJSON(data []byte) error {
	var frame struct {
		Envelope
		Events []heartbeatPayload `json:"events"`
	}
	var extra Extra
	if err := decodeObject(data, "HeartbeatEvent", &frame, &extra, "events"); err != nil {
		return err
	}
	if len(frame.Events) == 0 {
		return errs.Decode("decode", "HeartbeatEvent.events", errMissing)
	}
	first := frame.Events[0]
	*h = HeartbeatEvent{
		Envelope:         frame.Envelope,
		CurrentTime:      first.CurrentTime,
		HeartbeatCounter: first.HeartbeatCounter,
		Extra:            first.Extra,
	}
	return nil
}

// CandleUpdate is one candle pushed on the candles channel.
type CandleUpdate struct {
	Start     Seconds `json:"start"`
	High      Number  `json:"high"`
	Low       Number  `json:"low"`
	Open      Number  `json:"open"`
	Close     Number  `json:"close"`
	Volume    Number  `json:"volume"`
	ProductID string  `json:"product_id"`

	Extra Extra `json:"-"`
}

func (c *CandleUpdate) UnmarshalJSON(data []byte) error {
	type alias CandleUpdate
	return decodeObject(data, "CandleUpdate", (*alias)(c), &c.Extra, "start", "product_id")
}

// CandlesBatch is one entry of a candles frame.
type CandlesBatch struct {
	Type    string         `json:"type"`
	Candles []CandleUpdate `json:"candles"`

	Extra Extra `json:"-"`
}

func (b *CandlesBatch) UnmarshalJSON(data []byte) error {
	type alias CandlesBatch
	return decodeObject(data, "CandlesBatch", (*alias)(b), &b.Extra)
}

// CandlesEvent is a candles frame.
type CandlesEvent struct {
	Envelope
	Events []CandlesBatch `json:"events"`

	Extra Extra `json:"-"`
}

func (e *CandlesEvent) UnmarshalJSON(data []byte) error {
	type alias CandlesEvent
	return decodeObject(data, "CandlesEvent", (*alias)(e), &e.Extra, "events")
}

// Candles flattens the candles of every batch.
func (e CandlesEvent) Candles() []CandleUpdate {
	var out []CandleUpdate
	for _, b := range e.Events {
		out = append(out, b.Candles...)
	}
	return out
}

// TradeUpdate is one trade pushed on the market_trades channel.
type TradeUpdate struct {
	TradeID   string `json:"trade_id"`
	ProductID string `json:"product_id"`
	Price     Number `json:"price"`
	Size      Number `json:"size"`
	Side      Side   `json:"side"`
	Time      Time   `json:"time"`

	Extra Extra `json:"-"`
}

func (t *TradeUpdate) UnmarshalJSON(data []byte) error {
	type alias TradeUpdate
	return decodeObject(data, "TradeUpdate", (*alias)(t), &t.Extra, "trade_id")
}

// MarketTradesBatch is one entry of a market_trades frame.
type MarketTradesBatch struct {
	Type   string        `json:"type"`
	Trades []TradeUpdate `json:"trades"`

	Extra Extra `json:"-"`
}

func (b *MarketTradesBatch) UnmarshalJSON(data []byte) error {
	type alias MarketTradesBatch
	return decodeObject(data, "MarketTradesBatch", (*alias)(b), &b.Extra)
}

// MarketTradesEvent is a market_trades frame.
type MarketTradesEvent struct {
	Envelope
	Events []MarketTradesBatch `json:"events"`

	Extra Extra `json:"-"`
}

func (e *MarketTradesEvent) UnmarshalJSON(data []byte) error {
	type alias MarketTradesEvent
	return decodeObject(data, "MarketTradesEvent", (*alias)(e), &e.Extra, "events")
}

// Trades flattens the trades of every batch.
func (e MarketTradesEvent) Trades() []TradeUpdate {
	var out []TradeUpdate
	for _, b := range e.Events {
		out = append(out, b.Trades...)
	}
	return out
}

// ProductStatus is one product pushed on the status channel.
type ProductStatus struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	ProductType    string `json:"product_type"`
	BaseCurrency   string `json:"base_currency"`
	QuoteCurrency  string `json:"quote_currency"`
	BaseIncrement  Number `json:"base_increment"`
	QuoteIncrement Number `json:"quote_increment"`
	DisplayName    string `json:"display_name"`
	StatusMessage  string `json:"status_message"`
	MinMarketFunds Number `json:"min_market_funds"`

	Extra Extra `json:"-"`
}

func (p *ProductStatus) UnmarshalJSON(data []byte) error {
	type alias ProductStatus
	return decodeObject(data, "ProductStatus", (*alias)(p), &p.Extra, "id")
}

// StatusBatch is one entry of a status frame.
type StatusBatch struct {
	Type     string          `json:"type"`
	Products []ProductStatus `json:"products"`

	Extra Extra `json:"-"`
}

func (b *StatusBatch) UnmarshalJSON(data []byte) error {
	type alias StatusBatch
	return decodeObject(data, "StatusBatch", (*alias)(b), &b.Extra)
}

// StatusEvent is a status frame.
type StatusEvent struct {
	Envelope
	Events []StatusBatch `json:"events"`

	Extra Extra `json:"-"`
}

func (e *StatusEvent) UnmarshalJSON(data []byte) error {
	type alias StatusEvent
	return decodeObject(data, "StatusEvent", (*alias)(e), &e.Extra, "events")
}

// Products flattens the products of every batch.
func (e StatusEvent) Products() []ProductStatus {
	var out []ProductStatus
	for _, b := range e.Events {
		out = append(out, b.Products...)
	}
	return out
}

// Ticker is one quote pushed on the ticker and ticker_batch channels.
type Ticker struct {
	Type               string `json:"type"`
	ProductID          string `json:"product_id"`
	Price              Number `json:"price"`
	Volume24H          Number `json:"volume_24_h"`
	Low24H             Number `json:"low_24_h"`
	High24H            Number `json:"high_24_h"`
	Low52W             Number `json:"low_52_w"`
	High52W            Number `json:"high_52_w"`
	PricePercentChg24H Number `json:"price_percent_chg_24_h"`
	BestBid            Number `json:"best_bid"`
	BestAsk            Number `json:"best_ask"`
	BestBidQuantity    Number `json:"best_bid_quantity"`
	BestAskQuantity    Number `json:"best_ask_quantity"`

	Extra Extra `json:"-"`
}

func (t *Ticker) UnmarshalJSON(data []byte) error {
	type alias Ticker
	return decodeObject(data, "Ticker", (*alias)(t), &t.Extra, "product_id")
}

// TickerBatch is one entry of a ticker frame.
type TickerBatch struct {
	Type    string   `json:"type"`
	Tickers []Ticker `json:"tickers"`

	Extra Extra `json:"-"`
}

func (b *TickerBatch) UnmarshalJSON(data []byte) error {
	type alias TickerBatch
	return decodeObject(data, "TickerBatch", (*alias)(b), &b.Extra)
}

func flattenTickers(batches []TickerBatch) []Ticker {
	var out []Ticker
	for _, b := range batches {
		out = append(out, b.Tickers...)
	}
	return out
}

// TickerEvent is a ticker frame.
type TickerEvent struct {
	Envelope
	Events []TickerBatch `json:"events"`

	Extra Extra `json:"-"`
}

func (e *TickerEvent) UnmarshalJSON(data []byte) error {
	type alias TickerEvent
	return decodeObject(data, "TickerEvent", (*alias)(e), &e.Extra, "events")
}

// Tickers flattens the tickers of every batch.
func (e TickerEvent) Tickers() []Ticker { return flattenTickers(e.Events) }

// TickerBatchEvent is a ticker_batch frame.
type TickerBatchEvent struct {
	Envelope
	Events []TickerBatch `json:"events"`

	Extra Extra `json:"-"`
}

func (e *TickerBatchEvent) UnmarshalJSON(data []byte) error {
	type alias TickerBatchEvent
	return decodeObject(data, "TickerBatchEvent", (*alias)(e), &e.Extra, "events")
}

// Tickers flattens the tickers of every batch.
func (e TickerBatchEvent) Tickers() []Ticker { return flattenTickers(e.Events) }

// L2Update is one price level change. Side is "bid" or "offer".
type L2Update struct {
	Side        string `json:"side"`
	EventTime   Time   `json:"event_time"`
	PriceLevel  Number `json:"price_level"`
	NewQuantity Number `json:"new_quantity"`

	Extra Extra `json:"-"`
}

func (u *L2Update) UnmarshalJSON(data []byte) error {
	type alias L2Update
	return decodeObject(data, "L2Update", (*alias)(u), &u.Extra, "price_level")
}

// L2Batch is one entry of an l2_data frame: a snapshot or an update.
type L2Batch struct {
	Type      string     `json:"type"`
	ProductID string     `json:"product_id"`
	Updates   []L2Update `json:"updates"`

	Extra Extra `json:"-"`
}

func (b *L2Batch) UnmarshalJSON(data []byte) error {
	type alias L2Batch
	return decodeObject(data, "L2Batch", (*alias)(b), &b.Extra)
}

// Level2Event is an l2_data frame.
type Level2Event struct {
	Envelope
	Events []L2Batch `json:"events"`

	Extra Extra `json:"-"`
}

func (e *Level2Event) UnmarshalJSON(data []byte) error {
	type alias Level2Event
	return decodeObject(data, "Level2Event", (*alias)(e), &e.Extra, "events")
}

// UserOrder is an order update pushed on the user channel. Enum-like
// fields are kept as text: the feed does not share the REST casing.
type UserOrder struct {
	AvgPrice              Number `json:"avg_price"`
	CancelReason          string `json:"cancel_reason"`
	ClientOrderID         string `json:"client_order_id"`
	CompletionPercentage  Number `json:"completion_percentage"`
	ContractExpiryType    string `json:"contract_expiry_type"`
	CumulativeQuantity    Number `json:"cumulative_quantity"`
	FilledValue           Number `json:"filled_value"`
	LeavesQuantity        Number `json:"leaves_quantity"`
	LimitPrice            Number `json:"limit_price"`
	NumberOfFills         Number `json:"number_of_fills"`
	OrderID               string `json:"order_id"`
	OrderSide             string `json:"order_side"`
	OrderType             string `json:"order_type"`
	OutstandingHoldAmount Number `json:"outstanding_hold_amount"`
	PostOnly              Flag   `json:"post_only"`
	ProductID             string `json:"product_id"`
	ProductType           string `json:"product_type"`
	RejectReason          string `json:"reject_reason"`
	RetailPortfolioID     string `json:"retail_portfolio_id"`
	RiskManagedBy         string `json:"risk_managed_by"`
	Status                string `json:"status"`
	StopPrice             Number `json:"stop_price"`
	TimeInForce           string `json:"time_in_force"`
	TotalFees             Number `json:"total_fees"`
	TotalValueAfterFees   Number `json:"total_value_after_fees"`
	TriggerStatus         string `json:"trigger_status"`
	CreationTime          Time   `json:"creation_time"`
	EndTime               Time   `json:"end_time"`
	StartTime             Time   `json:"start_time"`

	Extra Extra `json:"-"`
}

func (o *UserOrder) UnmarshalJSON(data []byte) error {
	type alias UserOrder
	return decodeObject(data, "UserOrder", (*alias)(o), &o.Extra, "order_id")
}

// UserPositions lists the futures positions of the user.
type UserPositions struct {
	PerpetualFuturesPositions []FuturesPosition `json:"perpetual_futures_positions"`
	ExpiringFuturesPositions  []FuturesPosition `json:"expiring_futures_positions"`

	Extra Extra `json:"-"`
}

func (p *UserPositions) UnmarshalJSON(data []byte) error {
	type alias UserPositions
	return decodeObject(data, "UserPositions", (*alias)(p), &p.Extra)
}

// UserBatch is one entry of a user frame.
type UserBatch struct {
	Type      string         `json:"type"`
	Orders    []UserOrder    `json:"orders"`
	Positions *UserPositions `json:"positions,omitempty"`

	Extra Extra `json:"-"`
}

func (b *UserBatch) UnmarshalJSON(data []byte) error {
	type alias UserBatch
	return decodeObject(data, "UserBatch", (*alias)(b), &b.Extra)
}

// UserEvent is a user frame.
type UserEvent struct {
	Envelope
	Events []UserBatch `json:"events"`

	Extra Extra `json:"-"`
}

func (e *UserEvent) UnmarshalJSON(data []byte) error {
	type alias UserEvent
	return decodeObject(data, "UserEvent", (*alias)(e), &e.Extra, "events")
}

// Orders flattens the orders of every batch.
func (e UserEvent) Orders() []UserOrder {
	var out []UserOrder
	for _, b := range e.Events {
		out = append(out, b.Orders...)
	}
	return out
}

// Positions returns the last positions snapshot in the frame, or an empty
// one when the frame carries none.
func (e UserEvent) Positions() UserPositions {
	var out UserPositions
	for _, b := range e.Events {
		if b.Positions != nil {
			out = *b.Positions
		}
	}
	return out
}
