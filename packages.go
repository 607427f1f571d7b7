package esimlink

import (
	"context"
	"strconv"
	"strings"
)

// Package catalog endpoints.
const (
	packagesPath = "/v2/packages"
	devicesPath  = "/v2/compatible-devices"
)

// PackageFilter narrows a catalog listing. The zero value lists everything.
type PackageFilter struct {
	// Type filters by package type: "local" or "global".
	Type string

	// Country filters by ISO country code. Case-insensitive.
	Country string

	// SimOnly excludes topup packages from the listing.
	SimOnly bool

	// Limit caps the total number of operator entries returned. Zero means
	// no cap.
	Limit int

	// Page selects a single result page. Zero fetches the first page;
	// AllPackages ignores it and walks every page.
	Page int
}

func (f PackageFilter) query() map[string]string {
	params := map[string]string{}
	if !f.SimOnly {
		params["include"] = "topup"
	}
	if f.Type != "" {
		params["filter[type]"] = f.Type
	}
	if f.Country != "" {
		params["filter[country]"] = strings.ToUpper(f.Country)
	}
	if f.Limit > 0 {
		params["limit"] = strconv.Itoa(f.Limit)
	}
	if f.Page > 0 {
		params["page"] = strconv.Itoa(f.Page)
	}
	return params
}

// PackageList is one page of the package catalog, grouped by country and
// operator.
type PackageList struct {
	Data []CountryPackages `json:"data"`
	Meta ListMeta          `json:"meta"`
}

// ListMeta carries pagination metadata.
type ListMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	Total       int `json:"total"`
}

// CountryPackages groups the operators available in one country.
type CountryPackages struct {
	Slug        string     `json:"slug"`
	CountryCode string     `json:"country_code"`
	Title       string     `json:"title"`
	Operators   []Operator `json:"operators"`
}

// Operator is a network operator offering packages.
type Operator struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Type             string    `json:"type"`
	IsPrepaid        bool      `json:"is_prepaid"`
	APNType          string    `json:"apn_type"`
	PlanType         string    `json:"plan_type"`
	ActivationPolicy string    `json:"activation_policy"`
	Packages         []Package `json:"packages"`
}

// Package is a purchasable data package.
type Package struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	ShortInfo   string  `json:"short_info"`
	Price       float64 `json:"price"`
	NetPrice    float64 `json:"net_price"`
	Amount      int64   `json:"amount"`
	Day         int     `json:"day"`
	Data        string  `json:"data"`
	Voice       int64   `json:"voice"`
	Text        int64   `json:"text"`
	IsUnlimited bool    `json:"is_unlimited"`
}

// FlatPackage is a package joined with its operator and country context, for
// callers that want a single flat list instead of the nested catalog.
type FlatPackage struct {
	Package

	OperatorID    int64  `json:"operator_id"`
	OperatorTitle string `json:"operator_title"`
	CountryCode   string `json:"country_code"`
	CountryTitle  string `json:"country_title"`
}

// Packages lists one page of the package catalog. Listings are served from
// the response cache when enabled.
func (c *Client) Packages(ctx context.Context, filter PackageFilter) (*PackageList, error) {
	var list PackageList
	if err := c.cachedGet(ctx, packagesPath, filter.query(), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// AllPackages walks every catalog page matching the filter and returns the
// combined country entries. Filter.Limit caps the total; Filter.Page is
// ignored.
func (c *Client) AllPackages(ctx context.Context, filter PackageFilter) ([]CountryPackages, error) {
	var all []CountryPackages

	for page := 1; ; page++ {
		filter.Page = page

		list, err := c.Packages(ctx, filter)
		if err != nil {
			return nil, err
		}
		if len(list.Data) == 0 {
			break
		}

		all = append(all, list.Data...)

		if filter.Limit > 0 && len(all) >= filter.Limit {
			all = all[:filter.Limit]
			break
		}
		if list.Meta.LastPage > 0 && page >= list.Meta.LastPage {
			break
		}
	}

	return all, nil
}

// SimPackages lists SIM-only packages, excluding topups.
func (c *Client) SimPackages(ctx context.Context, filter PackageFilter) ([]CountryPackages, error) {
	filter.SimOnly = true
	return c.AllPackages(ctx, filter)
}

// LocalPackages lists country-local packages.
func (c *Client) LocalPackages(ctx context.Context, filter PackageFilter) ([]CountryPackages, error) {
	filter.Type = "local"
	return c.AllPackages(ctx, filter)
}

// GlobalPackages lists global packages.
func (c *Client) GlobalPackages(ctx context.Context, filter PackageFilter) ([]CountryPackages, error) {
	filter.Type = "global"
	return c.AllPackages(ctx, filter)
}

// CountryPackages lists packages available in the given country.
func (c *Client) CountryPackages(ctx context.Context, countryCode string, filter PackageFilter) ([]CountryPackages, error) {
	filter.Country = countryCode
	return c.AllPackages(ctx, filter)
}

// FlatPackages lists packages matching the filter as a single flat slice,
// each entry joined with its operator and country.
func (c *Client) FlatPackages(ctx context.Context, filter PackageFilter) ([]FlatPackage, error) {
	countries, err := c.AllPackages(ctx, filter)
	if err != nil {
		return nil, err
	}
	return flatten(countries), nil
}

func flatten(countries []CountryPackages) []FlatPackage {
	var flat []FlatPackage
	for _, country := range countries {
		for _, operator := range country.Operators {
			for _, pkg := range operator.Packages {
				flat = append(flat, FlatPackage{
					Package:       pkg,
					OperatorID:    operator.ID,
					OperatorTitle: operator.Title,
					CountryCode:   country.CountryCode,
					CountryTitle:  country.Title,
				})
			}
		}
	}
	return flat
}

// Device is a handset model known to support eSIM.
type Device struct {
	Model string `json:"model"`
	OS    string `json:"os"`
	Brand string `json:"brand"`
	Name  string `json:"name"`
}

// CompatibleDevices lists devices compatible with eSIM packages.
func (c *Client) CompatibleDevices(ctx context.Context) ([]Device, error) {
	var resp struct {
		Data []Device `json:"data"`
	}
	if err := c.cachedGet(ctx, devicesPath, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
