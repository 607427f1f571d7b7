package esimlink

import (
	"context"
	"regexp"
	"time"

	"github.com/esimlink/esimlink-go/apierror"
)

const exchangeRatesPath = "/v2/finance/exchange-rates"

// ExchangeRateQuery selects the rates to fetch. The zero value requests
// today's rates for every currency.
type ExchangeRateQuery struct {
	// Date requests historical rates, formatted 2006-01-02.
	Date string

	// To restricts the result to a comma-separated list of ISO 4217
	// currency codes, e.g. "USD,EUR".
	To string
}

var currencyList = regexp.MustCompile(`^[A-Za-z]{3}(,[A-Za-z]{3})*$`)

func (q ExchangeRateQuery) validate() error {
	if q.Date != "" {
		if _, err := time.Parse("2006-01-02", q.Date); err != nil {
			return apierror.New(apierror.CategoryConfig, "exchange rate date must be formatted 2006-01-02")
		}
	}
	if q.To != "" && !currencyList.MatchString(q.To) {
		return apierror.New(apierror.CategoryConfig,
			"exchange rate currencies must be three-letter codes separated by commas")
	}
	return nil
}

func (q ExchangeRateQuery) query() map[string]string {
	params := map[string]string{}
	if q.Date != "" {
		params["date"] = q.Date
	}
	if q.To != "" {
		params["to"] = q.To
	}
	return params
}

// ExchangeRates is a snapshot of currency conversion rates.
type ExchangeRates struct {
	Date  string             `json:"date"`
	From  string             `json:"source"`
	Rates map[string]float64 `json:"rates"`
}

// ExchangeRates fetches currency conversion rates, cached per query.
func (c *Client) ExchangeRates(ctx context.Context, q ExchangeRateQuery) (*ExchangeRates, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	var resp struct {
		Data ExchangeRates `json:"data"`
	}
	if err := c.cachedGet(ctx, exchangeRatesPath, q.query(), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
