package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"housetrades/src/config"
	"housetrades/src/models"
	"housetrades/src/utils"
	"housetrades/src/utils/requests"

	"github.com/sethvargo/go-retry"
)

var ErrNoData = errors.New("no data returned")

type YahooClientI interface {
	GetDailyPrices(ctx context.Context, ticker string, start, end time.Time) ([]models.DailyPrice, error)
	GetDetails(ctx context.Context, ticker string) (*models.Security, error)
}

// YahooClient reads daily bars and issuer profiles from the public Yahoo
// Finance endpoints.
type YahooClient struct {
	API        *requests.ExternalAPIService
	BaseURL    string
	MaxRetries uint64
	Backoff    time.Duration
	now        func() time.Time
}

// NewClient creates a new instance of YahooClient
func NewClient(cfg *config.Config) *YahooClient {
	headers := map[string]string{}
	if ua := cfg.ExternalClients.Yahoo.UserAgent; ua != "" {
		headers["User-Agent"] = ua
	}
	return &YahooClient{
		API:        requests.NewExternalAPIService(30*time.Second, headers),
		BaseURL:    strings.TrimRight(cfg.ExternalClients.Yahoo.BaseURL, "/"),
		MaxRetries: 3,
		Backoff:    time.Second,
		now:        time.Now,
	}
}

// Symbol converts a disclosed ticker to the symbol Yahoo expects. Share
// classes use a dash there (BRK.B is BRK-B).
func Symbol(ticker string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(ticker)), ".", "-")
}

// GetDailyPrices returns the bars in [start, end). Every bar is keyed by its
// trading date in the exchange time zone and stored under ticker, not the
// Yahoo symbol.
func (c *YahooClient) GetDailyPrices(ctx context.Context, ticker string, start, end time.Time) ([]models.DailyPrice, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", c.BaseURL, url.PathEscape(Symbol(ticker)))
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("period1", strconv.FormatInt(start.Unix(), 10))
	params.Add("period2", strconv.FormatInt(end.Unix(), 10))
	params.Add("events", "history")

	var resp ChartResponse
	if err := c.getJSON(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, resp.Chart.Error
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Timestamp) == 0 {
		return nil, ErrNoData
	}
	return resp.Chart.Result[0].toDailyPrices(ticker), nil
}

// GetDetails returns the issuer metadata of ticker, stamped with today's date.
func (c *YahooClient) GetDetails(ctx context.Context, ticker string) (*models.Security, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s", c.BaseURL, url.PathEscape(Symbol(ticker)))
	params := url.Values{}
	params.Add("modules", "assetProfile,price")

	var resp QuoteSummaryResponse
	if err := c.getJSON(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteSummary.Error != nil {
		return nil, resp.QuoteSummary.Error
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, ErrNoData
	}

	today := c.now().UTC().Truncate(24 * time.Hour)
	security := resp.QuoteSummary.Result[0].toSecurity(ticker)
	security.LastUpdatedDate = &today
	return security, nil
}

// getJSON retries rate limited and server side failures with exponential
// backoff. Other errors are returned at once.
func (c *YahooClient) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	backoff := retry.WithMaxRetries(c.MaxRetries, retry.NewExponential(c.Backoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.API.GetJSON(ctx, endpoint, params, out)
		if err == nil {
			return nil
		}
		var httpErr *utils.HTTPError
		if errors.As(err, &httpErr) &&
			(httpErr.Code == http.StatusTooManyRequests || httpErr.Code >= http.StatusInternalServerError) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (r ChartResult) location() *time.Location {
	if r.Meta.ExchangeTimezoneName != "" {
		if loc, err := time.LoadLocation(r.Meta.ExchangeTimezoneName); err == nil {
			return loc
		}
	}
	return time.FixedZone("exchange", r.Meta.GMTOffset)
}

func (r ChartResult) toDailyPrices(ticker string) []models.DailyPrice {
	var quote ChartQuote
	if len(r.Indicators.Quote) > 0 {
		quote = r.Indicators.Quote[0]
	}
	loc := r.location()

	prices := make([]models.DailyPrice, 0, len(r.Timestamp))
	index := map[time.Time]int{}
	for i, ts := range r.Timestamp {
		local := time.Unix(ts, 0).In(loc)
		date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
		p := models.DailyPrice{
			Ticker: ticker,
			Date:   date,
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		}
		// The live bar of the current session can repeat the last date.
		if j, ok := index[date]; ok {
			prices[j] = p
			continue
		}
		index[date] = len(prices)
		prices = append(prices, p)
	}
	return prices
}

func at[T any](values []*T, i int) *T {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func (r QuoteSummaryResult) toSecurity(ticker string) *models.Security {
	s := &models.Security{Ticker: ticker}
	if p := r.AssetProfile; p != nil {
		s.Sector = optional(p.Sector)
		s.Industry = optional(p.Industry)
		s.Country = optional(p.Country)
		s.Website = optional(p.Website)
		s.Description = optional(p.LongBusinessSummary)
	}
	if p := r.Price; p != nil {
		s.CompanyName = optional(p.LongName)
		if s.CompanyName == nil {
			s.CompanyName = optional(p.ShortName)
		}
		s.Exchange = optional(p.ExchangeName)
		s.Currency = optional(p.Currency)
		if p.MarketCap.Raw != nil {
			mc := int64(*p.MarketCap.Raw)
			s.MarketCap = &mc
		}
	}
	return s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
