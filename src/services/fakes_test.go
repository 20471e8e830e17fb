package services_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"housetrades/src/models"
	"housetrades/src/repositories"
	"housetrades/src/services"
	"housetrades/src/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

var errUnavailable = errors.New("connection refused")

func day(s string) time.Time {
	d, err := time.Parse(utils.ShortDashDateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// store is an in-memory backing for every repository. failures makes the
// next n reads return errUnavailable.
type store struct {
	mu              sync.Mutex
	transactions    []models.Transaction
	prices          []models.DailyPrice
	securities      []models.Security
	representatives []models.Representative
	runs            []models.IngestionRun
	failures        int
	reads           int
}

func (s *store) read() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.failures > 0 {
		s.failures--
		return errUnavailable
	}
	return nil
}

func (s *store) repositories() services.Repositories {
	return services.Repositories{
		Transactions:    &fakeTransactions{s},
		Prices:          &fakePrices{s},
		Securities:      &fakeSecurities{s},
		Representatives: &fakeRepresentatives{s},
		IngestionRuns:   &fakeRuns{s},
	}
}

type fakeTransactions struct{ s *store }

func (f *fakeTransactions) List(_ context.Context, filter repositories.TransactionFilter) ([]models.Transaction, error) {
	if err := f.s.read(); err != nil {
		return nil, err
	}
	var out []models.Transaction
	for _, t := range f.s.transactions {
		if filter.Representative != "" && t.Representative != filter.Representative {
			continue
		}
		if filter.Ticker != "" && t.Ticker != filter.Ticker {
			continue
		}
		if filter.StartDate != nil && t.TransactionDate.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && t.TransactionDate.After(*filter.EndDate) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTransactions) ListTickers(context.Context) ([]string, error) {
	if err := f.s.read(); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, t := range f.s.transactions {
		if t.Ticker != "" && !seen[t.Ticker] {
			seen[t.Ticker] = true
			out = append(out, t.Ticker)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeTransactions) ListTickersWithPrices(ctx context.Context) ([]string, error) {
	tickers, err := f.ListTickers(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, ticker := range tickers {
		for _, p := range f.s.prices {
			if p.Ticker == ticker {
				out = append(out, ticker)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeTransactions) GetDateRange(context.Context) (*time.Time, *time.Time, error) {
	if err := f.s.read(); err != nil {
		return nil, nil, err
	}
	var minDate, maxDate *time.Time
	for i := range f.s.transactions {
		d := f.s.transactions[i].TransactionDate
		if minDate == nil || d.Before(*minDate) {
			minDate = &d
		}
		if maxDate == nil || d.After(*maxDate) {
			maxDate = &d
		}
	}
	return minDate, maxDate, nil
}

func (f *fakeTransactions) ReplaceAll(_ context.Context, txs []models.Transaction, _ pgx.Tx) (int64, error) {
	f.s.transactions = append([]models.Transaction(nil), txs...)
	return int64(len(txs)), nil
}

type fakePrices struct{ s *store }

func (f *fakePrices) ListByTicker(_ context.Context, ticker string) ([]models.DailyPrice, error) {
	if err := f.s.read(); err != nil {
		return nil, err
	}
	var out []models.DailyPrice
	for _, p := range f.s.prices {
		if p.Ticker == ticker {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePrices) ListCloses(_ context.Context, tickers []string) ([]models.DailyPrice, error) {
	if err := f.s.read(); err != nil {
		return nil, err
	}
	var out []models.DailyPrice
	for _, p := range f.s.prices {
		if p.Close == nil {
			continue
		}
		if tickers != nil && !contains(tickers, p.Ticker) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePrices) ReplaceForTicker(_ context.Context, ticker string, prices []models.DailyPrice) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	kept := f.s.prices[:0]
	for _, p := range f.s.prices {
		if p.Ticker != ticker {
			kept = append(kept, p)
		}
	}
	for _, p := range prices {
		p.Ticker = ticker
		kept = append(kept, p)
	}
	f.s.prices = kept
	return int64(len(prices)), nil
}

type fakeSecurities struct{ s *store }

func (f *fakeSecurities) List(_ context.Context, tickers []string) ([]models.Security, error) {
	var out []models.Security
	for _, sec := range f.s.securities {
		if tickers == nil || contains(tickers, sec.Ticker) {
			out = append(out, sec)
		}
	}
	return out, nil
}

func (f *fakeSecurities) GetSectors(context.Context) (map[string]string, error) {
	if err := f.s.read(); err != nil {
		return nil, err
	}
	out := map[string]string{}
	for _, sec := range f.s.securities {
		if sec.Sector != nil && *sec.Sector != "" {
			out[sec.Ticker] = *sec.Sector
		}
	}
	return out, nil
}

func (f *fakeSecurities) Replace(_ context.Context, securities []models.Security) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, sec := range securities {
		replaced := false
		for i := range f.s.securities {
			if f.s.securities[i].Ticker == sec.Ticker {
				f.s.securities[i] = sec
				replaced = true
			}
		}
		if !replaced {
			f.s.securities = append(f.s.securities, sec)
		}
	}
	return int64(len(securities)), nil
}

type fakeRepresentatives struct{ s *store }

func (f *fakeRepresentatives) List(context.Context) ([]models.Representative, error) {
	if err := f.s.read(); err != nil {
		return nil, err
	}
	return f.s.representatives, nil
}

func (f *fakeRepresentatives) ReplaceAll(_ context.Context, reps []models.Representative, _ pgx.Tx) error {
	f.s.representatives = append([]models.Representative(nil), reps...)
	return nil
}

type fakeRuns struct{ s *store }

func (f *fakeRuns) Start(_ context.Context, kind string) (*models.IngestionRun, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	run := models.IngestionRun{ID: uuid.New(), Kind: kind, Status: utils.IngestionStatusRunning, StartedAt: time.Now()}
	f.s.runs = append(f.s.runs, run)
	return &run, nil
}

func (f *fakeRuns) Finish(_ context.Context, run *models.IngestionRun) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	now := time.Now()
	run.FinishedAt = &now
	for i := range f.s.runs {
		if f.s.runs[i].ID == run.ID {
			f.s.runs[i] = *run
		}
	}
	return nil
}

func (f *fakeRuns) ListRecent(_ context.Context, limit int) ([]models.IngestionRun, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.IngestionRun
	for i := len(f.s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.s.runs[i])
	}
	return out, nil
}

func (f *fakeRuns) GetLast(_ context.Context, kind string) (*models.IngestionRun, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for i := len(f.s.runs) - 1; i >= 0; i-- {
		if f.s.runs[i].Kind == kind {
			run := f.s.runs[i]
			return &run, nil
		}
	}
	return nil, nil
}

// fakeConn records liveness calls. pingErr fails every ping; reconnectErr
// fails every reconnect.
type fakeConn struct {
	mu           sync.Mutex
	pingErr      error
	reconnectErr error
	pings        int
	reconnects   int
}

func (c *fakeConn) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pings++
	return c.pingErr
}

func (c *fakeConn) Reconnect(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnects++
	return c.reconnectErr
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
