package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/coachpo/coinbase-advanced/errs"
	"github.com/coachpo/coinbase-advanced/internal/query"
	"github.com/coachpo/coinbase-advanced/pkg/models"
)

type portfolioBody struct {
	Name string `json:"name"`
}

type portfolioEnvelope struct {
	Portfolio *models.Portfolio `json:"portfolio"`
}

// ListPortfolios returns the user's portfolios, optionally filtered by type.
func (c *Client) ListPortfolios(ctx context.Context, portfolioType models.PortfolioType) (models.PortfoliosPage, error) {
	var page models.PortfoliosPage
	err := c.do(ctx, request{
		op:     "rest.ListPortfolios",
		method: http.MethodGet,
		path:   "/portfolios",
		query:  query.New().String("portfolio_type", string(portfolioType)),
	}, "PortfoliosPage", &page)
	return page, err
}

// CreatePortfolio creates a portfolio named name.
func (c *Client) CreatePortfolio(ctx context.Context, name string) (models.Portfolio, error) {
	const op = "rest.CreatePortfolio"
	if strings.TrimSpace(name) == "" {
		return models.Portfolio{}, errs.New(op, errs.CodeInvalid, errs.WithField("name"), errs.WithMessage("name required"))
	}
	return c.portfolio(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/portfolios",
		body:   portfolioBody{Name: name},
	})
}

// EditPortfolio renames a portfolio.
func (c *Client) EditPortfolio(ctx context.Context, portfolioID, name string) (models.Portfolio, error) {
	const op = "rest.EditPortfolio"
	if err := requirePortfolioID(op, portfolioID); err != nil {
		return models.Portfolio{}, err
	}
	if strings.TrimSpace(name) == "" {
		return models.Portfolio{}, errs.New(op, errs.CodeInvalid, errs.WithField("name"), errs.WithMessage("name required"))
	}
	return c.portfolio(ctx, request{
		op:     op,
		method: http.MethodPut,
		path:   "/portfolios/" + escape(portfolioID),
		body:   portfolioBody{Name: name},
	})
}

// DeletePortfolio deletes a portfolio. The exchange answers with an empty
// body.
func (c *Client) DeletePortfolio(ctx context.Context, portfolioID string) (models.EmptyResponse, error) {
	const op = "rest.DeletePortfolio"
	if err := requirePortfolioID(op, portfolioID); err != nil {
		return models.EmptyResponse{}, err
	}
	var out models.EmptyResponse
	err := c.do(ctx, request{
		op:     op,
		method: http.MethodDelete,
		path:   "/portfolios/" + escape(portfolioID),
	}, "EmptyResponse", &out)
	return out, err
}

func (c *Client) portfolio(ctx context.Context, req request) (models.Portfolio, error) {
	var body portfolioEnvelope
	if err := c.do(ctx, req, "Portfolio", &body); err != nil {
		return models.Portfolio{}, err
	}
	if body.Portfolio == nil {
		return models.Portfolio{}, errs.Decode(req.op, "portfolio", errMissingEnvelope)
	}
	return *body.Portfolio, nil
}

func requirePortfolioID(op, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errs.New(op, errs.CodeInvalid, errs.WithField("portfolio_uuid"),
			errs.WithMessage("portfolio id must be a uuid"), errs.WithCause(err))
	}
	return nil
}
