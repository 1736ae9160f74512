package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coachpo/coinbase-advanced/errs"
)

// Order configuration variant keys.
const (
	VariantMarketIOC    = "market_market_ioc"
	VariantLimitGTC     = "limit_limit_gtc"
	VariantLimitGTD     = "limit_limit_gtd"
	VariantStopLimitGTC = "stop_limit_stop_limit_gtc"
	VariantStopLimitGTD = "stop_limit_stop_limit_gtd"
)

// MarketIOC is an immediate-or-cancel market order. Buys size in quote,
// sells size in base.
type MarketIOC struct {
	QuoteSize *Number `json:"quote_size,omitempty"`
	BaseSize  *Number `json:"base_size,omitempty"`

	Extra Extra `json:"-"`
}

func (c *MarketIOC) UnmarshalJSON(data []byte) error {
	type alias MarketIOC
	return decodeObject(data, "MarketIOC", (*alias)(c), &c.Extra)
}

// LimitGTC rests until cancelled.
type LimitGTC struct {
	LimitPrice *Number `json:"limit_price,omitempty"`
	BaseSize   *Number `json:"base_size,omitempty"`
	PostOnly   *bool   `json:"post_only,omitempty"`

	Extra Extra `json:"-"`
}

func (c *LimitGTC) UnmarshalJSON(data []byte) error {
	type alias LimitGTC
	return decodeObject(data, "LimitGTC", (*alias)(c), &c.Extra)
}

// LimitGTD rests until EndTime.
type LimitGTD struct {
	LimitPrice *Number `json:"limit_price,omitempty"`
	BaseSize   *Number `json:"base_size,omitempty"`
	PostOnly   *bool   `json:"post_only,omitempty"`
	EndTime    *Time   `json:"end_time,omitempty"`

	Extra Extra `json:"-"`
}

func (c *LimitGTD) UnmarshalJSON(data []byte) error {
	type alias LimitGTD
	return decodeObject(data, "LimitGTD", (*alias)(c), &c.Extra)
}

// StopLimitGTC places a limit order once the stop price trades.
type StopLimitGTC struct {
	StopPrice     *Number       `json:"stop_price,omitempty"`
	LimitPrice    *Number       `json:"limit_price,omitempty"`
	BaseSize      *Number       `json:"base_size,omitempty"`
	StopDirection StopDirection `json:"stop_direction,omitempty"`

	Extra Extra `json:"-"`
}

func (c *StopLimitGTC) UnmarshalJSON(data []byte) error {
	type alias StopLimitGTC
	return decodeObject(data, "StopLimitGTC", (*alias)(c), &c.Extra)
}

// StopLimitGTD is StopLimitGTC with an expiry.
type StopLimitGTD struct {
	StopPrice     *Number       `json:"stop_price,omitempty"`
	LimitPrice    *Number       `json:"limit_price,omitempty"`
	BaseSize      *Number       `json:"base_size,omitempty"`
	StopDirection StopDirection `json:"stop_direction,omitempty"`
	EndTime       *Time         `json:"end_time,omitempty"`

	Extra Extra `json:"-"`
}

func (c *StopLimitGTD) UnmarshalJSON(data []byte) error {
	type alias StopLimitGTD
	return decodeObject(data, "StopLimitGTD", (*alias)(c), &c.Extra)
}

// OrderConfiguration is a tagged union: exactly one variant is set. A variant
// this package does not know is kept in Extra and reported by Variant.
type OrderConfiguration struct {
	MarketIOC    *MarketIOC    `json:"market_market_ioc,omitempty"`
	LimitGTC     *LimitGTC     `json:"limit_limit_gtc,omitempty"`
	LimitGTD     *LimitGTD     `json:"limit_limit_gtd,omitempty"`
	StopLimitGTC *StopLimitGTC `json:"stop_limit_stop_limit_gtc,omitempty"`
	StopLimitGTD *StopLimitGTD `json:"stop_limit_stop_limit_gtd,omitempty"`

	Extra Extra `json:"-"`
}

func (c *OrderConfiguration) UnmarshalJSON(data []byte) error {
	type alias OrderConfiguration
	if err := decodeObject(data, "OrderConfiguration", (*alias)(c), &c.Extra); err != nil {
		return err
	}
	if isNull(data) {
		return nil
	}
	return c.Validate()
}

// Validate checks that exactly one variant is set.
func (c OrderConfiguration) Validate() error {
	names := c.variants()
	switch len(names) {
	case 1:
		return nil
	case 0:
		return errs.Decode("decode", "OrderConfiguration", fmt.Errorf("no order configuration variant set"))
	default:
		return errs.Decode("decode", "OrderConfiguration", fmt.Errorf("multiple order configuration variants set: %v", names))
	}
}

// Variant returns the key of the populated variant, or "" when none or more
// than one is set.
func (c OrderConfiguration) Variant() string {
	names := c.variants()
	if len(names) != 1 {
		return ""
	}
	return names[0]
}

func (c OrderConfiguration) variants() []string {
	var names []string
	if c.MarketIOC != nil {
		names = append(names, VariantMarketIOC)
	}
	if c.LimitGTC != nil {
		names = append(names, VariantLimitGTC)
	}
	if c.LimitGTD != nil {
		names = append(names, VariantLimitGTD)
	}
	if c.StopLimitGTC != nil {
		names = append(names, VariantStopLimitGTC)
	}
	if c.StopLimitGTD != nil {
		names = append(names, VariantStopLimitGTD)
	}
	for key, value := range c.Extra {
		if !isNull(value) {
			names = append(names, key)
		}
	}
	return names
}

// OrderError is the rejection payload of a create-order call.
type OrderError struct {
	Error                 string `json:"error"`
	Message               string `json:"message"`
	ErrorDetails          string `json:"error_details"`
	PreviewFailureReason  string `json:"preview_failure_reason"`
	NewOrderFailureReason string `json:"new_order_failure_reason"`

	Extra Extra `json:"-"`
}

func (e *OrderError) UnmarshalJSON(data []byte) error {
	type alias OrderError
	return decodeObject(data, "OrderError", (*alias)(e), &e.Extra)
}

// Order is an order as returned by create, get and list calls. Fields are
// populated depending on the endpoint. A rejected creation carries only
// OrderError.
type Order struct {
	OrderID            string              `json:"order_id"`
	ProductID          string              `json:"product_id"`
	Side               Side                `json:"side"`
	ClientOrderID      string              `json:"client_order_id"`
	OrderConfiguration *OrderConfiguration `json:"order_configuration,omitempty"`

	UserID                string               `json:"user_id,omitempty"`
	Status                OrderStatus          `json:"status,omitempty"`
	TimeInForce           string               `json:"time_in_force,omitempty"`
	CreatedTime           Time                 `json:"created_time"`
	CompletionPercentage  Number               `json:"completion_percentage"`
	FilledSize            Number               `json:"filled_size"`
	AverageFilledPrice    Number               `json:"average_filled_price"`
	Fee                   Number               `json:"fee"`
	NumberOfFills         Number               `json:"number_of_fills"`
	FilledValue           Number               `json:"filled_value"`
	PendingCancel         bool                 `json:"pending_cancel"`
	SizeInQuote           bool                 `json:"size_in_quote"`
	TotalFees             Number               `json:"total_fees"`
	SizeInclusiveOfFees   bool                 `json:"size_inclusive_of_fees"`
	TotalValueAfterFees   Number               `json:"total_value_after_fees"`
	TriggerStatus         string               `json:"trigger_status,omitempty"`
	OrderType             OrderType            `json:"order_type,omitempty"`
	RejectReason          string               `json:"reject_reason,omitempty"`
	Settled               bool                 `json:"settled"`
	ProductType           ProductType          `json:"product_type,omitempty"`
	RejectMessage         string               `json:"reject_message,omitempty"`
	CancelMessage         string               `json:"cancel_message,omitempty"`
	OrderPlacementSource  OrderPlacementSource `json:"order_placement_source,omitempty"`
	OutstandingHoldAmount Number               `json:"outstanding_hold_amount"`

	OrderError *OrderError `json:"-"`
	Extra      Extra       `json:"-"`
}

func (o *Order) UnmarshalJSON(data []byte) error {
	type alias Order
	return decodeObject(data, "Order", (*alias)(o), &o.Extra, "order_id", "product_id", "side")
}

// Rejected reports whether the exchange refused to create the order.
func (o Order) Rejected() bool {
	return o.OrderError != nil
}

// CreateOrderResponse is the raw body of a create-order call.
type CreateOrderResponse struct {
	Success            bool                `json:"success"`
	FailureReason      string              `json:"failure_reason"`
	OrderID            string              `json:"order_id"`
	SuccessResponse    *Order              `json:"success_response"`
	ErrorResponse      *OrderError         `json:"error_response"`
	OrderConfiguration *OrderConfiguration `json:"order_configuration"`

	Extra Extra `json:"-"`
}

func (r *CreateOrderResponse) UnmarshalJSON(data []byte) error {
	type alias CreateOrderResponse
	return decodeObject(data, "CreateOrderResponse", (*alias)(r), &r.Extra, "success")
}

// Order folds the response into an Order: the success payload with the
// echoed configuration, or an Order carrying only OrderError.
func (r CreateOrderResponse) Order() (Order, error) {
	if !r.Success {
		if r.ErrorResponse == nil {
			return Order{OrderError: &OrderError{Error: r.FailureReason}}, nil
		}
		return Order{OrderError: r.ErrorResponse}, nil
	}
	if r.SuccessResponse == nil {
		return Order{}, errs.Decode("decode", "CreateOrderResponse.success_response", errMissing)
	}
	order := *r.SuccessResponse
	order.OrderConfiguration = r.OrderConfiguration
	return order, nil
}

// CreateOrderRequest is the body of a create-order call.
type CreateOrderRequest struct {
	ClientOrderID      string             `json:"client_order_id"`
	ProductID          string             `json:"product_id"`
	Side               Side               `json:"side"`
	OrderConfiguration OrderConfiguration `json:"order_configuration"`
}

// OrderOption adjusts a limit or stop-limit request.
type OrderOption func(*orderOptions)

type orderOptions struct {
	cancelTime time.Time
	postOnly   *bool
}

// WithCancelTime selects the good-till-date variant expiring at t.
func WithCancelTime(t time.Time) OrderOption {
	return func(o *orderOptions) { o.cancelTime = t }
}

// WithPostOnly sets the post_only flag of a limit order.
func WithPostOnly(postOnly bool) OrderOption {
	return func(o *orderOptions) { o.postOnly = &postOnly }
}

func applyOrderOptions(opts []OrderOption) orderOptions {
	var o orderOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// MarketBuy spends quoteSize of the quote currency.
func MarketBuy(clientOrderID, productID string, quoteSize decimal.Decimal) CreateOrderRequest {
	return CreateOrderRequest{
		ClientOrderID: clientOrderID,
		ProductID:     productID,
		Side:          SideBuy,
		OrderConfiguration: OrderConfiguration{
			MarketIOC: &MarketIOC{QuoteSize: NumberPtr(quoteSize)},
		},
	}
}

// MarketSell sells baseSize of the base currency.
func MarketSell(clientOrderID, productID string, baseSize decimal.Decimal) CreateOrderRequest {
	return CreateOrderRequest{
		ClientOrderID: clientOrderID,
		ProductID:     productID,
		Side:          SideSell,
		OrderConfiguration: OrderConfiguration{
			MarketIOC: &MarketIOC{BaseSize: NumberPtr(baseSize)},
		},
	}
}

// Limit builds a limit order, GTD when WithCancelTime is given and GTC
// otherwise.
func Limit(clientOrderID, productID string, side Side, limitPrice, baseSize decimal.Decimal, opts ...OrderOption) CreateOrderRequest {
	o := applyOrderOptions(opts)
	req := CreateOrderRequest{ClientOrderID: clientOrderID, ProductID: productID, Side: side}
	if o.cancelTime.IsZero() {
		req.OrderConfiguration.LimitGTC = &LimitGTC{
			LimitPrice: NumberPtr(limitPrice),
			BaseSize:   NumberPtr(baseSize),
			PostOnly:   o.postOnly,
		}
		return req
	}
	end := NewTime(o.cancelTime.Truncate(time.Second))
	req.OrderConfiguration.LimitGTD = &LimitGTD{
		LimitPrice: NumberPtr(limitPrice),
		BaseSize:   NumberPtr(baseSize),
		PostOnly:   o.postOnly,
		EndTime:    &end,
	}
	return req
}

// StopLimit builds a stop-limit order, GTD when WithCancelTime is given and
// GTC otherwise. WithPostOnly has no effect.
func StopLimit(clientOrderID, productID string, side Side, stopPrice decimal.Decimal, direction StopDirection,
	limitPrice, baseSize decimal.Decimal, opts ...OrderOption) CreateOrderRequest {
	o := applyOrderOptions(opts)
	req := CreateOrderRequest{ClientOrderID: clientOrderID, ProductID: productID, Side: side}
	if o.cancelTime.IsZero() {
		req.OrderConfiguration.StopLimitGTC = &StopLimitGTC{
			StopPrice:     NumberPtr(stopPrice),
			LimitPrice:    NumberPtr(limitPrice),
			BaseSize:      NumberPtr(baseSize),
			StopDirection: direction,
		}
		return req
	}
	end := NewTime(o.cancelTime.Truncate(time.Second))
	req.OrderConfiguration.StopLimitGTD = &StopLimitGTD{
		StopPrice:     NumberPtr(stopPrice),
		LimitPrice:    NumberPtr(limitPrice),
		BaseSize:      NumberPtr(baseSize),
		StopDirection: direction,
		EndTime:       &end,
	}
	return req
}

// OrderCancellation is the outcome for one order of a batch cancel.
type OrderCancellation struct {
	Success       bool   `json:"success"`
	FailureReason string `json:"failure_reason"`
	OrderID       string `json:"order_id"`

	Extra Extra `json:"-"`
}

func (c *OrderCancellation) UnmarshalJSON(data []byte) error {
	type alias OrderCancellation
	return decodeObject(data, "OrderCancellation", (*alias)(c), &c.Extra, "order_id")
}

// OrderBatchCancellation is the body of a batch cancel.
type OrderBatchCancellation struct {
	Results []OrderCancellation `json:"results"`

	Extra Extra `json:"-"`
}

func (b *OrderBatchCancellation) UnmarshalJSON(data []byte) error {
	type alias OrderBatchCancellation
	return decodeObject(data, "OrderBatchCancellation", (*alias)(b), &b.Extra, "results")
}

// OrdersPage is one page of ListOrders.
type OrdersPage struct {
	Orders   []Order `json:"orders"`
	HasNext  bool    `json:"has_next"`
	Cursor   string  `json:"cursor"`
	Sequence Number  `json:"sequence"`

	Extra Extra `json:"-"`
}

func (p *OrdersPage) UnmarshalJSON(data []byte) error {
	type alias OrdersPage
	return decodeObject(data, "OrdersPage", (*alias)(p), &p.Extra, "orders")
}

// Fill is one execution against an order.
type Fill struct {
	EntryID            string `json:"entry_id"`
	TradeID            string `json:"trade_id"`
	OrderID            string `json:"order_id"`
	TradeTime          Time   `json:"trade_time"`
	TradeType          string `json:"trade_type"`
	Price              Number `json:"price"`
	Size               Number `json:"size"`
	Commission         Number `json:"commission"`
	ProductID          string `json:"product_id"`
	SequenceTimestamp  Time   `json:"sequence_timestamp"`
	LiquidityIndicator string `json:"liquidity_indicator"`
	SizeInQuote        bool   `json:"size_in_quote"`
	UserID             string `json:"user_id"`
	Side               Side   `json:"side"`

	Extra Extra `json:"-"`
}

func (f *Fill) UnmarshalJSON(data []byte) error {
	type alias Fill
	return decodeObject(data, "Fill", (*alias)(f), &f.Extra, "entry_id", "trade_id", "order_id")
}

// FillsPage is one page of ListFills. An empty cursor marks the last page.
type FillsPage struct {
	Fills  []Fill `json:"fills"`
	Cursor string `json:"cursor"`

	Extra Extra `json:"-"`
}

func (p *FillsPage) UnmarshalJSON(data []byte) error {
	type alias FillsPage
	return decodeObject(data, "FillsPage", (*alias)(p), &p.Extra, "fills")
}
