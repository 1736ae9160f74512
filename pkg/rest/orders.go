package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coachpo/coinbase-advanced/errs"
	"github.com/coachpo/coinbase-advanced/internal/observability"
	"github.com/coachpo/coinbase-advanced/internal/query"
	"github.com/coachpo/coinbase-advanced/pkg/models"
)

const (
	defaultOrdersLimit = 999
	defaultFillsLimit  = 100
)

// CreateOrder places an order. An empty ClientOrderID is replaced with a
// random UUID. A rejection reported with a 2xx status is not an error: the
// returned Order carries OrderError and Rejected() reports true.
func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error) {
	const op = "rest.CreateOrder"
	if strings.TrimSpace(req.ClientOrderID) == "" {
		req.ClientOrderID = uuid.NewString()
	}
	if strings.TrimSpace(req.ProductID) == "" {
		return models.Order{}, errs.New(op, errs.CodeInvalid, errs.WithField("product_id"), errs.WithMessage("product id required"))
	}
	if err := req.OrderConfiguration.Validate(); err != nil {
		return models.Order{}, errs.New(op, errs.CodeInvalid,
			errs.WithField("order_configuration"), errs.WithMessage("exactly one order configuration required"), errs.WithCause(err))
	}

	var resp models.CreateOrderResponse
	if err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/orders",
		body:   req,
	}, "CreateOrderResponse", &resp); err != nil {
		return models.Order{}, err
	}
	order, err := resp.Order()
	if err != nil {
		return models.Order{}, err
	}
	if order.Rejected() {
		c.logger.Info("order rejected",
			observability.F("client_order_id", req.ClientOrderID),
			observability.F("product_id", req.ProductID),
			observability.F("reason", order.OrderError.Error))
	}
	return order, nil
}

// CreateBuyMarketOrder buys with quoteSize of the quote currency.
func (c *Client) CreateBuyMarketOrder(ctx context.Context, clientOrderID, productID string, quoteSize decimal.Decimal) (models.Order, error) {
	return c.CreateOrder(ctx, models.MarketBuy(clientOrderID, productID, quoteSize))
}

// CreateSellMarketOrder sells baseSize of the base currency.
func (c *Client) CreateSellMarketOrder(ctx context.Context, clientOrderID, productID string, baseSize decimal.Decimal) (models.Order, error) {
	return c.CreateOrder(ctx, models.MarketSell(clientOrderID, productID, baseSize))
}

// CreateLimitOrder places a limit order; see models.Limit for options.
func (c *Client) CreateLimitOrder(ctx context.Context, clientOrderID, productID string, side models.Side,
	limitPrice, baseSize decimal.Decimal, opts ...models.OrderOption) (models.Order, error) {
	return c.CreateOrder(ctx, models.Limit(clientOrderID, productID, side, limitPrice, baseSize, opts...))
}

// CreateStopLimitOrder places a stop-limit order; see models.StopLimit.
func (c *Client) CreateStopLimitOrder(ctx context.Context, clientOrderID, productID string, side models.Side,
	stopPrice decimal.Decimal, direction models.StopDirection, limitPrice, baseSize decimal.Decimal,
	opts ...models.OrderOption) (models.Order, error) {
	return c.CreateOrder(ctx, models.StopLimit(clientOrderID, productID, side, stopPrice, direction, limitPrice, baseSize, opts...))
}

// CancelOrders requests cancellation of the given orders. Per-order outcomes
// are reported in the result; a failed cancellation is not an error.
func (c *Client) CancelOrders(ctx context.Context, orderIDs []string) (models.OrderBatchCancellation, error) {
	const op = "rest.CancelOrders"
	if len(orderIDs) == 0 {
		return models.OrderBatchCancellation{}, errs.New(op, errs.CodeInvalid,
			errs.WithField("order_ids"), errs.WithMessage("at least one order id required"))
	}
	var out models.OrderBatchCancellation
	err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/orders/batch_cancel/",
		body: struct {
			OrderIDs []string `json:"order_ids"`
		}{OrderIDs: orderIDs},
	}, "OrderBatchCancellation", &out)
	return out, err
}

// ListOrdersParams filters ListOrders. Zero values are omitted from the query.
type ListOrdersParams struct {
	ProductID            string
	OrderStatus          []models.OrderStatus
	Limit                int
	StartDate            time.Time
	EndDate              time.Time
	UserNativeCurrency   string
	OrderType            models.OrderType
	OrderSide            models.Side
	Cursor               string
	ProductType          models.ProductType
	OrderPlacementSource models.OrderPlacementSource
}

func (p ListOrdersParams) query() *query.Builder {
	statuses := make([]string, 0, len(p.OrderStatus))
	for _, s := range p.OrderStatus {
		statuses = append(statuses, string(s))
	}
	return query.New().
		String("product_id", p.ProductID).
		Joined("order_status", statuses).
		Int("limit", orDefault(p.Limit, defaultOrdersLimit)).
		Date("start_date", p.StartDate).
		Date("end_date", p.EndDate).
		String("user_native_currency", p.UserNativeCurrency).
		String("order_type", string(p.OrderType)).
		String("order_side", string(p.OrderSide)).
		String("cursor", p.Cursor).
		String("product_type", string(p.ProductType)).
		String("order_placement_source", string(p.OrderPlacementSource))
}

// ListOrders returns one page of historical orders.
func (c *Client) ListOrders(ctx context.Context, params ListOrdersParams) (models.OrdersPage, error) {
	var page models.OrdersPage
	err := c.do(ctx, request{
		op:     "rest.ListOrders",
		method: http.MethodGet,
		path:   "/orders/historical/batch",
		query:  params.query(),
	}, "OrdersPage", &page)
	return page, err
}

// ListOrdersAll follows has_next from params.Cursor and returns every order.
func (c *Client) ListOrdersAll(ctx context.Context, params ListOrdersParams) (models.OrdersPage, error) {
	var all models.OrdersPage
	for pages := 0; ; pages++ {
		if pages >= c.maxPages {
			return all, boundExceeded("rest.ListOrdersAll", c.maxPages)
		}
		page, err := c.ListOrders(ctx, params)
		if err != nil {
			return all, err
		}
		all.Orders = append(all.Orders, page.Orders...)
		all.Cursor = page.Cursor
		all.Sequence = page.Sequence
		if !page.HasNext {
			return all, nil
		}
		params.Cursor = page.Cursor
	}
}

// ListFillsParams filters ListFills. Zero values are omitted from the query.
type ListFillsParams struct {
	OrderID   string
	ProductID string
	StartDate time.Time
	EndDate   time.Time
	Cursor    string
	Limit     int
}

func (p ListFillsParams) query() *query.Builder {
	return query.New().
		String("order_id", p.OrderID).
		String("product_id", p.ProductID).
		Int("limit", orDefault(p.Limit, defaultFillsLimit)).
		Date("start_date", p.StartDate).
		Date("end_date", p.EndDate).
		String("cursor", p.Cursor)
}

// ListFills returns one page of fills.
func (c *Client) ListFills(ctx context.Context, params ListFillsParams) (models.FillsPage, error) {
	var page models.FillsPage
	err := c.do(ctx, request{
		op:     "rest.ListFills",
		method: http.MethodGet,
		path:   "/orders/historical/fills",
		query:  params.query(),
	}, "FillsPage", &page)
	return page, err
}

// ListFillsAll pages until the exchange returns an empty cursor.
func (c *Client) ListFillsAll(ctx context.Context, params ListFillsParams) (models.FillsPage, error) {
	var all models.FillsPage
	for pages := 0; ; pages++ {
		if pages >= c.maxPages {
			return all, boundExceeded("rest.ListFillsAll", c.maxPages)
		}
		page, err := c.ListFills(ctx, params)
		if err != nil {
			return all, err
		}
		all.Fills = append(all.Fills, page.Fills...)
		all.Cursor = page.Cursor
		if page.Cursor == "" {
			return all, nil
		}
		params.Cursor = page.Cursor
	}
}

// GetOrder returns a single historical order.
func (c *Client) GetOrder(ctx context.Context, orderID string) (models.Order, error) {
	const op = "rest.GetOrder"
	if strings.TrimSpace(orderID) == "" {
		return models.Order{}, errs.New(op, errs.CodeInvalid, errs.WithField("order_id"), errs.WithMessage("order id required"))
	}
	var body struct {
		Order *models.Order `json:"order"`
	}
	if err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/orders/historical/" + escape(orderID),
	}, "Order", &body); err != nil {
		return models.Order{}, err
	}
	if body.Order == nil {
		return models.Order{}, errs.Decode(op, "order", errMissingEnvelope)
	}
	return *body.Order, nil
}
