package rest

import (
	"context"
	"net/http"

	"github.com/coachpo/coinbase-advanced/pkg/models"
)

// GetUnixTime returns the exchange clock. The endpoint is public.
func (c *Client) GetUnixTime(ctx context.Context) (models.UnixTime, error) {
	var out models.UnixTime
	err := c.do(ctx, request{
		op:     "rest.GetUnixTime",
		method: http.MethodGet,
		path:   "/time",
	}, "UnixTime", &out)
	return out, err
}
