package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/coachpo/coinbase-advanced/internal/query"
	"github.com/coachpo/coinbase-advanced/pkg/models"
)

const defaultNativeCurrency = "USD"

// TransactionsSummaryParams filters GetTransactionsSummary.
type TransactionsSummaryParams struct {
	StartDate          time.Time
	EndDate            time.Time
	UserNativeCurrency string
	ProductType        models.ProductType
}

// GetTransactionsSummary returns volume, fees and the fee tier over a window.
// UserNativeCurrency defaults to USD.
func (c *Client) GetTransactionsSummary(ctx context.Context, params TransactionsSummaryParams) (models.TransactionsSummary, error) {
	currency := params.UserNativeCurrency
	if currency == "" {
		currency = defaultNativeCurrency
	}
	var summary models.TransactionsSummary
	err := c.do(ctx, request{
		op:     "rest.GetTransactionsSummary",
		method: http.MethodGet,
		path:   "/transaction_summary",
		query: query.New().
			Date("start_date", params.StartDate).
			Date("end_date", params.EndDate).
			String("user_native_currency", currency).
			String("product_type", string(params.ProductType)),
	}, "TransactionsSummary", &summary)
	return summary, err
}
