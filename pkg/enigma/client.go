// Package enigma wraps the Enigma GraphQL API: operating-location search and
// card-transaction metrics.
package enigma

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/peerview-cli/internal/resilience"
)

const defaultBaseURL = "https://api.enigma.com/graphql"

// Client performs Enigma API operations.
type Client interface {
	// SearchLocations finds operating locations matching a business name and
	// optional address filter.
	SearchLocations(ctx context.Context, input SearchInput) ([]OperatingLocation, error)
	// CardTransactions fetches the card-transaction observations for one
	// operating location, limited to the periods and quantity types the
	// pipeline consumes.
	CardTransactions(ctx context.Context, enigmaID string) ([]CardTransaction, error)
}

// SearchInput narrows an operating-location search. Name is required; the
// address fields are optional filters, empty fields are omitted from the
// request.
type SearchInput struct {
	Name       string
	City       string
	State      string
	PostalCode string
}

// OperatingLocation is one physical business location known to the provider.
// Name and Address carry the first reported value only; the search query asks
// for no more.
type OperatingLocation struct {
	ID      string
	Name    string
	Address Address
}

// Address is a reported business address.
type Address struct {
	FullAddress string `json:"fullAddress"`
	City        string `json:"city"`
	State       string `json:"state"`
	Zip         string `json:"zip"`
}

// CardTransaction is one card-transaction observation as the API reports it.
type CardTransaction struct {
	QuantityType      string   `json:"quantityType"`
	Period            string   `json:"period"`
	PeriodStart       string   `json:"periodStartDate"`
	PeriodEnd         string   `json:"periodEndDate"`
	RawQuantity       *float64 `json:"rawQuantity"`
	ProjectedQuantity *float64 `json:"projectedQuantity"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry overrides the default retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithRateLimit caps outbound requests per second. Zero disables the limiter.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates an Enigma API client with a 2 req/s default limit and
// retries on transient failures.
func NewClient(apiKey string, opts ...Option) Client {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("enigma", "graphql")

	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		retry:   retry,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

const searchQuery = `query SearchLocation($searchInput: SearchInput!) {
  search(searchInput: $searchInput) {
    ... on OperatingLocation {
      id
      names(first: 1) { edges { node { name } } }
      addresses(first: 1) { edges { node { city state zip fullAddress } } }
    }
  }
}`

const cardTransactionsQuery = `query GetLocationMetrics($searchInput: SearchInput!, $cardTxConditions: ConnectionConditions!) {
  search(searchInput: $searchInput) {
    ... on OperatingLocation {
      cardTransactions(first: 50, conditions: $cardTxConditions) {
        edges {
          node {
            quantityType
            rawQuantity
            projectedQuantity
            period
            periodStartDate
            periodEndDate
          }
        }
      }
    }
  }
}`

// metricPeriods and metricQuantityTypes bound the cardTransactions pull to
// what the extractor reads.
var (
	metricPeriods = []string{"3m", "12m", "2023", "2024"}

	metricQuantityTypes = []string{
		"card_revenue_amount",
		"avg_transaction_size",
		"card_transactions_count",
		"card_customers_average_daily_count",
		"refunds_amount",
		"card_revenue_yoy_growth",
		"card_revenue_prior_period_growth",
	}
)

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type edges[T any] struct {
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges"`
}

type nameNode struct {
	Name string `json:"name"`
}

type searchData struct {
	Search []struct {
		ID               string                 `json:"id"`
		Names            edges[nameNode]        `json:"names"`
		Addresses        edges[Address]         `json:"addresses"`
		CardTransactions edges[CardTransaction] `json:"cardTransactions"`
	} `json:"search"`
}

func (c *httpClient) SearchLocations(ctx context.Context, input SearchInput) ([]OperatingLocation, error) {
	searchInput := map[string]any{
		"entityType": "OPERATING_LOCATION",
		"name":       input.Name,
	}
	address := map[string]any{}
	if input.City != "" {
		address["city"] = input.City
	}
	if input.State != "" {
		address["state"] = input.State
	}
	if input.PostalCode != "" {
		address["postalCode"] = input.PostalCode
	}
	if len(address) > 0 {
		searchInput["address"] = address
	}

	var data searchData
	err := c.execute(ctx, searchQuery, map[string]any{"searchInput": searchInput}, &data)
	if err != nil {
		return nil, err
	}

	out := make([]OperatingLocation, 0, len(data.Search))
	for _, s := range data.Search {
		loc := OperatingLocation{ID: s.ID}
		if len(s.Names.Edges) > 0 {
			loc.Name = s.Names.Edges[0].Node.Name
		}
		if len(s.Addresses.Edges) > 0 {
			loc.Address = s.Addresses.Edges[0].Node
		}
		out = append(out, loc)
	}
	return out, nil
}

func (c *httpClient) CardTransactions(ctx context.Context, enigmaID string) ([]CardTransaction, error) {
	variables := map[string]any{
		"searchInput": map[string]any{
			"entityType": "OPERATING_LOCATION",
			"id":         enigmaID,
		},
		"cardTxConditions": map[string]any{
			"filter": map[string]any{"AND": []any{
				map[string]any{"IN": []any{"period", metricPeriods}},
				map[string]any{"IN": []any{"quantityType", metricQuantityTypes}},
			}},
		},
	}

	var data searchData
	if err := c.execute(ctx, cardTransactionsQuery, variables, &data); err != nil {
		return nil, err
	}
	if len(data.Search) == 0 {
		return nil, eris.Errorf("enigma: operating location %s not found", enigmaID)
	}

	txns := make([]CardTransaction, 0, len(data.Search[0].CardTransactions.Edges))
	for _, e := range data.Search[0].CardTransactions.Edges {
		txns = append(txns, e.Node)
	}
	return txns, nil
}

func (c *httpClient) execute(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return eris.Wrap(err, "enigma: marshal request")
	}

	// Each attempt waits on the limiter, so retries of a throttled call do
	// not themselves burst past the provider's rate limit.
	respBody, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "enigma: rate limit wait")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrap(err, "enigma: create request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "enigma: send request")
		}
		defer resp.Body.Close() //nolint:errcheck

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "enigma: read response")
		}
		if resp.StatusCode != http.StatusOK {
			statusErr := eris.Errorf("enigma: unexpected status %d: %s", resp.StatusCode, string(respBody))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
			}
			return nil, statusErr
		}
		return respBody, nil
	})
	if err != nil {
		return err
	}

	var gql graphqlResponse
	if err := json.Unmarshal(respBody, &gql); err != nil {
		return eris.Wrap(err, "enigma: unmarshal response")
	}
	if len(gql.Errors) > 0 {
		return eris.Errorf("enigma: graphql error: %s", gql.Errors[0].Message)
	}
	if err := json.Unmarshal(gql.Data, out); err != nil {
		return eris.Wrap(err, "enigma: unmarshal data")
	}
	return nil
}
