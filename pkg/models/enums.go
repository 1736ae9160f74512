package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/coachpo/coinbase-advanced/errs"
)

// enumSet is the closed set of wire values an enum accepts. The empty string
// is always accepted and means "not set".
type enumSet[T ~string] map[T]struct{}

func newEnumSet[T ~string](values ...T) enumSet[T] {
	set := make(enumSet[T], len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func (s enumSet[T]) has(v T) bool {
	_, ok := s[v]
	return ok
}

func (s enumSet[T]) decode(name string, b []byte, dst *T) error {
	if isNull(b) {
		*dst = ""
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return errs.Decode("decode", name, err)
	}
	if raw != "" && !s.has(T(raw)) {
		return errs.Decode("decode", name, fmt.Errorf("unknown %s %q", name, raw))
	}
	*dst = T(raw)
	return nil
}

// Side is the direction of an order or trade.
type Side string

const (
	SideUnknown Side = "UNKNOWN_ORDER_SIDE"
	SideBuy     Side = "BUY"
	SideSell    Side = "SELL"
)

var sides = newEnumSet(SideUnknown, SideBuy, SideSell)

// Valid reports whether s is a known wire value.
func (s Side) Valid() bool { return sides.has(s) }

// UnmarshalJSON rejects unknown values.
func (s *Side) UnmarshalJSON(b []byte) error { return sides.decode("side", b, s) }

// StopDirection selects the trigger direction of a stop order.
type StopDirection string

const (
	StopDirectionUnknown StopDirection = "UNKNOWN_STOP_DIRECTION"
	StopDirectionUp      StopDirection = "STOP_DIRECTION_STOP_UP"
	StopDirectionDown    StopDirection = "STOP_DIRECTION_STOP_DOWN"
)

var stopDirections = newEnumSet(StopDirectionUnknown, StopDirectionUp, StopDirectionDown)

// Valid reports whether d is a known wire value.
func (d StopDirection) Valid() bool { return stopDirections.has(d) }

// UnmarshalJSON rejects unknown values.
func (d *StopDirection) UnmarshalJSON(b []byte) error {
	return stopDirections.decode("stop_direction", b, d)
}

// OrderType is the execution type of an order.
type OrderType string

const (
	OrderTypeUnknown   OrderType = "UNKNOWN_ORDER_TYPE"
	OrderTypeMarket    OrderType = "MARKET"
	OrderTypeLimit     OrderType = "LIMIT"
	OrderTypeStop      OrderType = "STOP"
	OrderTypeStopLimit OrderType = "STOP_LIMIT"
	OrderTypeBracket   OrderType = "BRACKET"
)

var orderTypes = newEnumSet(OrderTypeUnknown, OrderTypeMarket, OrderTypeLimit, OrderTypeStop, OrderTypeStopLimit, OrderTypeBracket)

// Valid reports whether t is a known wire value.
func (t OrderType) Valid() bool { return orderTypes.has(t) }

// UnmarshalJSON rejects unknown values.
func (t *OrderType) UnmarshalJSON(b []byte) error { return orderTypes.decode("order_type", b, t) }

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusUnknown      OrderStatus = "UNKNOWN_ORDER_STATUS"
	OrderStatusPending      OrderStatus = "PENDING"
	OrderStatusOpen         OrderStatus = "OPEN"
	OrderStatusFilled       OrderStatus = "FILLED"
	OrderStatusCancelled    OrderStatus = "CANCELLED"
	OrderStatusExpired      OrderStatus = "EXPIRED"
	OrderStatusFailed       OrderStatus = "FAILED"
	OrderStatusQueued       OrderStatus = "QUEUED"
	OrderStatusCancelQueued OrderStatus = "CANCEL_QUEUED"
	OrderStatusEditQueued   OrderStatus = "EDIT_QUEUED"
)

var orderStatuses = newEnumSet(OrderStatusUnknown, OrderStatusPending, OrderStatusOpen, OrderStatusFilled,
	OrderStatusCancelled, OrderStatusExpired, OrderStatusFailed, OrderStatusQueued, OrderStatusCancelQueued,
	OrderStatusEditQueued)

// Valid reports whether s is a known wire value.
func (s OrderStatus) Valid() bool { return orderStatuses.has(s) }

// UnmarshalJSON rejects unknown values.
func (s *OrderStatus) UnmarshalJSON(b []byte) error { return orderStatuses.decode("status", b, s) }

// ProductType distinguishes spot and futures products.
type ProductType string

const (
	ProductTypeUnknown ProductType = "UNKNOWN_PRODUCT_TYPE"
	ProductTypeSpot    ProductType = "SPOT"
	ProductTypeFuture  ProductType = "FUTURE"
)

var productTypes = newEnumSet(ProductTypeUnknown, ProductTypeSpot, ProductTypeFuture)

// Valid reports whether t is a known wire value.
func (t ProductType) Valid() bool { return productTypes.has(t) }

// UnmarshalJSON rejects unknown values.
func (t *ProductType) UnmarshalJSON(b []byte) error { return productTypes.decode("product_type", b, t) }

// OrderPlacementSource identifies the surface an order was placed from.
type OrderPlacementSource string

const (
	OrderPlacementSourceUnknown  OrderPlacementSource = "UNKNOWN_PLACEMENT_SOURCE"
	OrderPlacementSourceSimple   OrderPlacementSource = "RETAIL_SIMPLE"
	OrderPlacementSourceAdvanced OrderPlacementSource = "RETAIL_ADVANCED"
)

var placementSources = newEnumSet(OrderPlacementSourceUnknown, OrderPlacementSourceSimple, OrderPlacementSourceAdvanced)

// Valid reports whether s is a known wire value.
func (s OrderPlacementSource) Valid() bool { return placementSources.has(s) }

// UnmarshalJSON rejects unknown values.
func (s *OrderPlacementSource) UnmarshalJSON(b []byte) error {
	return placementSources.decode("order_placement_source", b, s)
}

// PortfolioType classifies a portfolio.
type PortfolioType string

const (
	PortfolioTypeUndefined PortfolioType = "UNDEFINED"
	PortfolioTypeDefault   PortfolioType = "DEFAULT"
	PortfolioTypeConsumer  PortfolioType = "CONSUMER"
	PortfolioTypeINTX      PortfolioType = "INTX"
)

var portfolioTypes = newEnumSet(PortfolioTypeUndefined, PortfolioTypeDefault, PortfolioTypeConsumer, PortfolioTypeINTX)

// Valid reports whether t is a known wire value.
func (t PortfolioType) Valid() bool { return portfolioTypes.has(t) }

// UnmarshalJSON rejects unknown values.
func (t *PortfolioType) UnmarshalJSON(b []byte) error {
	return portfolioTypes.decode("portfolio_type", b, t)
}

// MarginType is the margin mode of a futures position.
type MarginType string

const (
	MarginTypeUnspecified MarginType = "MARGIN_TYPE_UNSPECIFIED"
	MarginTypeCross       MarginType = "MARGIN_TYPE_CROSS"
	MarginTypeIsolated    MarginType = "MARGIN_TYPE_ISOLATED"
)

var marginTypes = newEnumSet(MarginTypeUnspecified, MarginTypeCross, MarginTypeIsolated)

// Valid reports whether t is a known wire value.
func (t MarginType) Valid() bool { return marginTypes.has(t) }

// UnmarshalJSON rejects unknown values.
func (t *MarginType) UnmarshalJSON(b []byte) error { return marginTypes.decode("margin_type", b, t) }

// FuturesPositionSide is the side of a futures position.
type FuturesPositionSide string

const (
	FuturesPositionSideUnspecified FuturesPositionSide = "FUTURES_POSITION_SIDE_UNSPECIFIED"
	FuturesPositionSideLong        FuturesPositionSide = "FUTURES_POSITION_SIDE_LONG"
	FuturesPositionSideShort       FuturesPositionSide = "FUTURES_POSITION_SIDE_SHORT"
)

var positionSides = newEnumSet(FuturesPositionSideUnspecified, FuturesPositionSideLong, FuturesPositionSideShort)

// Valid reports whether s is a known wire value.
func (s FuturesPositionSide) Valid() bool { return positionSides.has(s) }

// UnmarshalJSON rejects unknown values.
func (s *FuturesPositionSide) UnmarshalJSON(b []byte) error {
	return positionSides.decode("futures_position_side", b, s)
}

// Granularity is the bucket width of a candle.
type Granularity string

const (
	GranularityUnknown       Granularity = "UNKNOWN_GRANULARITY"
	GranularityOneMinute     Granularity = "ONE_MINUTE"
	GranularityFiveMinute    Granularity = "FIVE_MINUTE"
	GranularityFifteenMinute Granularity = "FIFTEEN_MINUTE"
	GranularityThirtyMinute  Granularity = "THIRTY_MINUTE"
	GranularityOneHour       Granularity = "ONE_HOUR"
	GranularityTwoHour       Granularity = "TWO_HOUR"
	GranularitySixHour       Granularity = "SIX_HOUR"
	GranularityOneDay        Granularity = "ONE_DAY"
)

var granularityMinutes = map[Granularity]int{
	GranularityOneMinute:     1,
	GranularityFiveMinute:    5,
	GranularityFifteenMinute: 15,
	GranularityThirtyMinute:  30,
	GranularityOneHour:       60,
	GranularityTwoHour:       120,
	GranularitySixHour:       360,
	GranularityOneDay:        1440,
}

var granularities = newEnumSet(GranularityUnknown, GranularityOneMinute, GranularityFiveMinute,
	GranularityFifteenMinute, GranularityThirtyMinute, GranularityOneHour, GranularityTwoHour,
	GranularitySixHour, GranularityOneDay)

// Valid reports whether g is a known wire value.
func (g Granularity) Valid() bool { return granularities.has(g) }

// UnmarshalJSON rejects unknown values.
func (g *Granularity) UnmarshalJSON(b []byte) error { return granularities.decode("granularity", b, g) }

// Duration returns the bucket width, or 0 for UNKNOWN_GRANULARITY and
// unrecognised values.
func (g Granularity) Duration() time.Duration {
	return time.Duration(granularityMinutes[g]) * time.Minute
}

// Minutes returns the bucket width in minutes.
func (g Granularity) Minutes() int {
	return granularityMinutes[g]
}

// Channel names a WebSocket channel.
type Channel string

const (
	ChannelHeartbeats    Channel = "heartbeats"
	ChannelHeartbeat     Channel = "heartbeat"
	ChannelCandles       Channel = "candles"
	ChannelMarketTrades  Channel = "market_trades"
	ChannelStatus        Channel = "status"
	ChannelTicker        Channel = "ticker"
	ChannelTickerBatch   Channel = "ticker_batch"
	ChannelLevel2        Channel = "level2"
	ChannelL2Data        Channel = "l2_data"
	ChannelUser          Channel = "user"
	ChannelSubscriptions Channel = "subscriptions"
)

var channels = newEnumSet(ChannelHeartbeats, ChannelHeartbeat, ChannelCandles, ChannelMarketTrades,
	ChannelStatus, ChannelTicker, ChannelTickerBatch, ChannelLevel2, ChannelL2Data, ChannelUser,
	ChannelSubscriptions)

// Valid reports whether c is a known channel name.
func (c Channel) Valid() bool { return channels.has(c) }

// Inbound returns the channel name the exchange stamps on messages for a
// subscription to c. Subscribing to level2 yields l2_data frames.
func (c Channel) Inbound() Channel {
	if c == ChannelLevel2 {
		return ChannelL2Data
	}
	return c
}
