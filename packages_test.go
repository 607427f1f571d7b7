package esimlink

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esimlink/esimlink-go/internal/testhelpers"
)

func catalogPage(countries ...string) map[string]any {
	data := make([]any, 0, len(countries))
	for _, code := range countries {
		data = append(data, map[string]any{
			"slug":         code,
			"country_code": code,
			"title":        "Country " + code,
			"operators": []any{
				map[string]any{
					"id":    1,
					"title": "Operator " + code,
					"packages": []any{
						map[string]any{"id": "pkg-" + code, "price": 9.5, "day": 7, "data": "1 GB"},
					},
				},
			},
		})
	}
	return map[string]any{"data": data}
}

func TestPackages_FilterQuery(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)

	var query map[string]string
	mock.HandleFunc("GET /v2/packages", func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{
			"include":         r.URL.Query().Get("include"),
			"filter[type]":    r.URL.Query().Get("filter[type]"),
			"filter[country]": r.URL.Query().Get("filter[country]"),
			"limit":           r.URL.Query().Get("limit"),
		}
		testhelpers.WriteJSON(w, catalogPage("SG"))
	})

	client := newTestClient(t, mock)

	list, err := client.Packages(context.Background(), PackageFilter{
		Type:    "local",
		Country: "sg",
		Limit:   25,
	})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "SG", list.Data[0].CountryCode)

	assert.Equal(t, "topup", query["include"])
	assert.Equal(t, "local", query["filter[type]"])
	assert.Equal(t, "SG", query["filter[country]"])
	assert.Equal(t, "25", query["limit"])
}

func TestPackages_SimOnlyOmitsTopups(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)

	var include string
	var hasInclude bool
	mock.HandleFunc("GET /v2/packages", func(w http.ResponseWriter, r *http.Request) {
		include = r.URL.Query().Get("include")
		hasInclude = r.URL.Query().Has("include")
		body := catalogPage("SG")
		body["meta"] = map[string]any{"current_page": 1, "last_page": 1}
		testhelpers.WriteJSON(w, body)
	})

	client := newTestClient(t, mock)

	_, err := client.SimPackages(context.Background(), PackageFilter{})
	require.NoError(t, err)
	assert.False(t, hasInclude, "sim-only listing must not request topups, got include=%q", include)
}

func TestAllPackages_WalksPages(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)

	mock.HandleFunc("GET /v2/packages", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")

		var body map[string]any
		switch page {
		case "1":
			body = catalogPage("SG", "MY")
			body["meta"] = map[string]any{"current_page": 1, "last_page": 2}
		case "2":
			body = catalogPage("TH")
			body["meta"] = map[string]any{"current_page": 2, "last_page": 2}
		default:
			body = map[string]any{"data": []any{}}
		}
		testhelpers.WriteJSON(w, body)
	})

	client := newTestClient(t, mock)

	all, err := client.AllPackages(context.Background(), PackageFilter{})
	require.NoError(t, err)

	require.Len(t, all, 3)
	assert.Equal(t, "SG", all[0].CountryCode)
	assert.Equal(t, "MY", all[1].CountryCode)
	assert.Equal(t, "TH", all[2].CountryCode)
}

func TestAllPackages_LimitTrimsResult(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)

	mock.HandleFunc("GET /v2/packages", func(w http.ResponseWriter, r *http.Request) {
		body := catalogPage("SG", "MY", "TH")
		body["meta"] = map[string]any{"current_page": 1, "last_page": 1}
		testhelpers.WriteJSON(w, body)
	})

	client := newTestClient(t, mock)

	all, err := client.AllPackages(context.Background(), PackageFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFlatPackages_JoinsOperatorAndCountry(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)
	body := catalogPage("SG")
	body["meta"] = map[string]any{"current_page": 1, "last_page": 1}
	mock.Handle("GET /v2/packages", body)

	client := newTestClient(t, mock)

	flat, err := client.FlatPackages(context.Background(), PackageFilter{})
	require.NoError(t, err)

	require.Len(t, flat, 1)
	assert.Equal(t, "pkg-SG", flat[0].ID)
	assert.Equal(t, "Operator SG", flat[0].OperatorTitle)
	assert.Equal(t, "SG", flat[0].CountryCode)
	assert.Equal(t, "Country SG", flat[0].CountryTitle)
}

func TestPackages_ResponseCacheAvoidsRepeatCalls(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)
	body := catalogPage("SG")
	body["meta"] = map[string]any{"current_page": 1, "last_page": 1}
	mock.Handle("GET /v2/packages", body)

	client := newTestClient(t, mock)

	for i := 0; i < 3; i++ {
		list, err := client.Packages(context.Background(), PackageFilter{Page: 1})
		require.NoError(t, err)
		require.Len(t, list.Data, 1)
	}

	assert.Equal(t, int32(1), mock.APIRequests.Load())
}

func TestPackages_ResponseCacheKeyedByQuery(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)
	mock.HandleFunc("GET /v2/packages", func(w http.ResponseWriter, r *http.Request) {
		testhelpers.WriteJSON(w, catalogPage(r.URL.Query().Get("filter[country]")))
	})

	client := newTestClient(t, mock)

	for i, country := range []string{"SG", "MY"} {
		list, err := client.Packages(context.Background(), PackageFilter{Country: country, Page: 1})
		require.NoError(t, err)
		require.Len(t, list.Data, 1, "query %d", i)
		assert.Equal(t, country, list.Data[0].CountryCode)
	}

	assert.Equal(t, int32(2), mock.APIRequests.Load())
}

func TestCompatibleDevices(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)
	mock.Handle("GET /v2/compatible-devices", map[string]any{
		"data": []any{
			map[string]any{"model": "A2483", "os": "ios", "brand": "Apple", "name": "iPhone 13 Pro"},
		},
	})

	client := newTestClient(t, mock)

	devices, err := client.CompatibleDevices(context.Background())
	require.NoError(t, err)

	require.Len(t, devices, 1)
	assert.Equal(t, "Apple", devices[0].Brand)
}

func TestCountryPackages_UppercasesCode(t *testing.T) {
	mock := testhelpers.SetupMockPartnerServer(t)

	var country string
	mock.HandleFunc("GET /v2/packages", func(w http.ResponseWriter, r *http.Request) {
		country = r.URL.Query().Get("filter[country]")
		body := catalogPage("JP")
		body["meta"] = map[string]any{"current_page": 1, "last_page": 1}
		testhelpers.WriteJSON(w, body)
	})

	client := newTestClient(t, mock)

	_, err := client.CountryPackages(context.Background(), "jp", PackageFilter{})
	require.NoError(t, err)
	assert.Equal(t, "JP", country)
}

func ExampleClient_FlatPackages() {
	ctx := context.Background()

	client, err := NewFromEnv(ctx)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer client.Close()

	packages, err := client.FlatPackages(ctx, PackageFilter{Country: "SG"})
	if err != nil {
		fmt.Println(err)
		return
	}

	for _, pkg := range packages {
		fmt.Printf("%s: %s for %d days\n", pkg.ID, pkg.Data, pkg.Day)
	}
}
