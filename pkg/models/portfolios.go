package models

// Portfolio groups accounts under one name.
type Portfolio struct {
	UUID    string        `json:"uuid"`
	Name    string        `json:"name"`
	Type    PortfolioType `json:"type"`
	Deleted bool          `json:"deleted"`

	Extra Extra `json:"-"`
}

func (p *Portfolio) UnmarshalJSON(data []byte) error {
	type alias Portfolio
	return decodeObject(data, "Portfolio", (*alias)(p), &p.Extra, "uuid", "name")
}

// PortfoliosPage is the body of ListPortfolios.
type PortfoliosPage struct {
	Portfolios []Portfolio `json:"portfolios"`

	Extra Extra `json:"-"`
}

func (p *PortfoliosPage) UnmarshalJSON(data []byte) error {
	type alias PortfoliosPage
	return decodeObject(data, "PortfoliosPage", (*alias)(p), &p.Extra, "portfolios")
}
