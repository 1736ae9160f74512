package rest

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/coachpo/coinbase-advanced/errs"
	"github.com/coachpo/coinbase-advanced/internal/query"
	"github.com/coachpo/coinbase-advanced/pkg/models"
)

const (
	defaultAccountsLimit    = 49
	defaultAccountsAllLimit = 250
)

// ListAccounts returns one page of brokerage accounts. A non-positive limit
// uses the exchange default page size of 49.
func (c *Client) ListAccounts(ctx context.Context, limit int, cursor string) (models.AccountsPage, error) {
	var page models.AccountsPage
	err := c.do(ctx, request{
		op:     "rest.ListAccounts",
		method: http.MethodGet,
		path:   "/accounts",
		query:  query.New().Int("limit", orDefault(limit, defaultAccountsLimit)).String("cursor", cursor),
	}, "AccountsPage", &page)
	return page, err
}

// ListAccountsAll follows has_next until the last page and returns the
// concatenated accounts. On error the accounts gathered so far are returned
// alongside it.
func (c *Client) ListAccountsAll(ctx context.Context) (models.AccountsPage, error) {
	var all models.AccountsPage
	cursor := ""
	for pages := 0; ; pages++ {
		if pages >= c.maxPages {
			return all, boundExceeded("rest.ListAccountsAll", c.maxPages)
		}
		page, err := c.ListAccounts(ctx, defaultAccountsAllLimit, cursor)
		if err != nil {
			return all, err
		}
		all.Accounts = append(all.Accounts, page.Accounts...)
		all.Size += page.Size
		all.Cursor = page.Cursor
		if !page.HasNext {
			return all, nil
		}
		cursor = page.Cursor
	}
}

// GetAccount returns the account with the given UUID.
func (c *Client) GetAccount(ctx context.Context, accountID string) (models.Account, error) {
	if _, err := uuid.Parse(accountID); err != nil {
		return models.Account{}, errs.New("rest.GetAccount", errs.CodeInvalid,
			errs.WithField("account_uuid"), errs.WithMessage("account id must be a uuid"), errs.WithCause(err))
	}
	var body struct {
		Account *models.Account `json:"account"`
	}
	if err := c.do(ctx, request{
		op:     "rest.GetAccount",
		method: http.MethodGet,
		path:   "/accounts/" + escape(accountID),
	}, "Account", &body); err != nil {
		return models.Account{}, err
	}
	if body.Account == nil {
		return models.Account{}, errs.Decode("rest.GetAccount", "account", errMissingEnvelope)
	}
	return *body.Account, nil
}
