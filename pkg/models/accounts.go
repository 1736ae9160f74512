package models

import (
	"errors"

	"github.com/coachpo/coinbase-advanced/errs"
)

// Balance is an amount of a currency.
type Balance struct {
	Value    Number `json:"value"`
	Currency string `json:"currency"`

	Extra Extra `json:"-"`
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	type alias Balance
	return decodeObject(data, "Balance", (*alias)(b), &b.Extra, "value", "currency")
}

// Account is a brokerage wallet for one currency.
type Account struct {
	UUID              string   `json:"uuid"`
	Name              string   `json:"name"`
	Currency          string   `json:"currency"`
	AvailableBalance  *Balance `json:"available_balance,omitempty"`
	Hold              *Balance `json:"hold,omitempty"`
	Default           bool     `json:"default"`
	Active            bool     `json:"active"`
	CreatedAt         Time     `json:"created_at"`
	UpdatedAt         Time     `json:"updated_at"`
	DeletedAt         Time     `json:"deleted_at"`
	Type              string   `json:"type"`
	Ready             bool     `json:"ready"`
	RetailPortfolioID string   `json:"retail_portfolio_id"`

	Extra Extra `json:"-"`
}

var errBalancePair = errors.New("available_balance and hold must be present together")

func (a *Account) UnmarshalJSON(data []byte) error {
	type alias Account
	if err := decodeObject(data, "Account", (*alias)(a), &a.Extra, "uuid", "name", "currency"); err != nil {
		return err
	}
	if (a.AvailableBalance == nil) != (a.Hold == nil) {
		return errs.Decode("decode", "Account.hold", errBalancePair)
	}
	return nil
}

// AccountsPage is one page of ListAccounts.
type AccountsPage struct {
	Accounts []Account `json:"accounts"`
	HasNext  bool      `json:"has_next"`
	Cursor   string    `json:"cursor"`
	Size     int       `json:"size"`

	Extra Extra `json:"-"`
}

func (p *AccountsPage) UnmarshalJSON(data []byte) error {
	type alias AccountsPage
	return decodeObject(data, "AccountsPage", (*alias)(p), &p.Extra, "accounts")
}
