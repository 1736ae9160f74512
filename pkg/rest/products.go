package rest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coachpo/coinbase-advanced/errs"
	"github.com/coachpo/coinbase-advanced/internal/query"
	"github.com/coachpo/coinbase-advanced/pkg/models"
)

// candlesPerRequest is the largest bucket count the candles endpoint serves
// in one response.
const candlesPerRequest = 299

// ListProducts returns tradable products. Zero limit and offset and an empty
// product type are omitted.
func (c *Client) ListProducts(ctx context.Context, limit, offset int, productType models.ProductType) (models.ProductsPage, error) {
	var page models.ProductsPage
	err := c.do(ctx, request{
		op:     "rest.ListProducts",
		method: http.MethodGet,
		path:   "/products",
		query: query.New().
			Int("limit", limit).
			Int("offset", offset).
			String("product_type", string(productType)),
	}, "ProductsPage", &page)
	return page, err
}

// GetProduct returns a single product.
func (c *Client) GetProduct(ctx context.Context, productID string) (models.Product, error) {
	const op = "rest.GetProduct"
	if err := requireID(op, "product_id", productID); err != nil {
		return models.Product{}, err
	}
	var product models.Product
	err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/products/" + escape(productID),
	}, "Product", &product)
	return product, err
}

// GetProductCandles returns the candles of one window. The exchange serves at
// most 299 buckets per call; use GetProductCandlesAll for longer ranges.
func (c *Client) GetProductCandles(ctx context.Context, productID string, start, end time.Time,
	granularity models.Granularity) (models.CandlesPage, error) {
	const op = "rest.GetProductCandles"
	if err := requireID(op, "product_id", productID); err != nil {
		return models.CandlesPage{}, err
	}
	var page models.CandlesPage
	err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/products/" + escape(productID) + "/candles",
		query: query.New().
			Unix("start", start).
			Unix("end", end).
			String("granularity", string(granularity)),
	}, "CandlesPage", &page)
	return page, err
}

// GetProductCandlesAll covers [start, end] with consecutive non-overlapping
// windows of 299 buckets, walking backwards from end. Candles are returned in
// the order the windows were fetched.
func (c *Client) GetProductCandlesAll(ctx context.Context, productID string, start, end time.Time,
	granularity models.Granularity) (models.CandlesPage, error) {
	const op = "rest.GetProductCandlesAll"
	minutes := granularity.Minutes()
	if minutes <= 0 {
		return models.CandlesPage{}, errs.New(op, errs.CodeInvalid, errs.WithField("granularity"),
			errs.WithMessage(fmt.Sprintf("unsupported granularity %q", granularity)))
	}
	step := time.Duration(minutes) * time.Minute
	window := step * candlesPerRequest

	var all models.CandlesPage
	for cursor := end; cursor.After(start); {
		begin := cursor.Add(-window)
		if begin.Before(start) {
			begin = start
		}
		page, err := c.GetProductCandles(ctx, productID, begin, cursor, granularity)
		if err != nil {
			return all, err
		}
		all.Candles = append(all.Candles, page.Candles...)
		cursor = begin.Add(-step)
	}
	return all, nil
}

// GetMarketTrades returns the latest public trades of a product together with
// the current best bid and ask.
func (c *Client) GetMarketTrades(ctx context.Context, productID string, limit int) (models.TradesPage, error) {
	const op = "rest.GetMarketTrades"
	if err := requireID(op, "product_id", productID); err != nil {
		return models.TradesPage{}, err
	}
	var page models.TradesPage
	err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/products/" + escape(productID) + "/ticker",
		query:  query.New().Int("limit", limit),
	}, "TradesPage", &page)
	return page, err
}

// GetProductBook returns an aggregated order book snapshot.
func (c *Client) GetProductBook(ctx context.Context, productID string, limit int) (models.ProductBook, error) {
	const op = "rest.GetProductBook"
	if err := requireID(op, "product_id", productID); err != nil {
		return models.ProductBook{}, err
	}
	var body struct {
		Pricebook *models.ProductBook `json:"pricebook"`
	}
	if err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/product_book",
		query:  query.New().String("product_id", productID).Int("limit", limit),
	}, "ProductBook", &body); err != nil {
		return models.ProductBook{}, err
	}
	if body.Pricebook == nil {
		return models.ProductBook{}, errs.Decode(op, "pricebook", errMissingEnvelope)
	}
	return *body.Pricebook, nil
}

// GetBestBidAsk returns the top of book for each product. An empty list asks
// for every product the account can trade.
func (c *Client) GetBestBidAsk(ctx context.Context, productIDs []string) (models.BidAsksPage, error) {
	var page models.BidAsksPage
	err := c.do(ctx, request{
		op:     "rest.GetBestBidAsk",
		method: http.MethodGet,
		path:   "/best_bid_ask",
		query:  query.New().Repeated("product_ids", productIDs),
	}, "BidAsksPage", &page)
	return page, err
}

func requireID(op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errs.New(op, errs.CodeInvalid, errs.WithField(field), errs.WithMessage(field+" required"))
	}
	return nil
}
