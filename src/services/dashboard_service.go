package services

import (
	"context"
	"fmt"
	"time"

	"housetrades/src/models"
	"housetrades/src/utils"
	"housetrades/src/valuation"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Connection is the liveness side of the database handle.
type Connection interface {
	Ping(ctx context.Context) error
	Reconnect(ctx context.Context) error
}

type DashboardServiceI interface {
	AllRepresentatives(ctx context.Context) ([]models.Representative, error)
	AllTickers(ctx context.Context) ([]string, error)
	StocksWithPrices(ctx context.Context) ([]string, error)
	StockPrices(ctx context.Context, ticker string) ([]models.DailyPrice, error)

	RepresentativeOverview(ctx context.Context, name string) ([]valuation.HolderOverview, error)
	SectorAnalysis(ctx context.Context, name string) ([]valuation.SectorExposure, error)
	CurrentPositions(ctx context.Context, name string) ([]valuation.Position, error)
	PositionSeries(ctx context.Context, name string) ([]valuation.PositionPoint, error)
	PortfolioValue(ctx context.Context, name string) ([]valuation.PortfolioPoint, error)
	DailyActivity(ctx context.Context, name, ticker string) ([]valuation.DailyActivity, error)

	StockOverview(ctx context.Context, ticker string) ([]valuation.InstrumentOverview, error)
	StockPositions(ctx context.Context, ticker string) ([]valuation.Position, error)
	StockTradingTimeline(ctx context.Context, ticker string) ([]valuation.TimelineEntry, error)
	PartyDistribution(ctx context.Context, ticker string) ([]valuation.PartyExposure, error)
	TradingTimeline(ctx context.Context, startDate, endDate *time.Time) ([]valuation.TimelineEntry, error)
}

// DashboardService is the read surface over the stored disclosures. Every
// call probes the connection first and is retried once after a forced
// reconnect. Results are recomputed on every call.
type DashboardService struct {
	conn       Connection
	repos      Repositories
	engine     *valuation.Engine
	metrics    *utils.Metrics
	logger     *logrus.Logger
	RetryDelay time.Duration
}

func NewDashboardService(conn Connection, repos Repositories, engine *valuation.Engine, metrics *utils.Metrics, logger *logrus.Logger) *DashboardService {
	return &DashboardService{
		conn:       conn,
		repos:      repos,
		engine:     engine,
		metrics:    metrics,
		logger:     logger,
		RetryDelay: 100 * time.Millisecond,
	}
}

// query runs fn under the probe and retry policy. On final failure it returns
// an empty slice together with the error.
func query[T any](ctx context.Context, s *DashboardService, name, filter string, fn func(ctx context.Context) ([]T, error)) ([]T, error) {
	ctx, span := tracer.Start(ctx, "DashboardService."+name)
	defer span.End()
	span.SetAttributes(attribute.String("filter", filter))

	logger := s.logger.WithFields(logrus.Fields{"query": name, "filter": filter})

	if err := s.conn.Ping(ctx); err != nil {
		logger.WithError(err).Warning("Database ping failed, reconnecting")
		if err := s.conn.Reconnect(ctx); err != nil {
			logger.WithError(err).Warning("Reconnect failed")
		}
	}

	var result []T
	attempt := 0
	backoff := retry.WithMaxRetries(1, retry.NewConstant(s.RetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if attempt > 0 {
			s.metrics.QueryRetries.WithLabelValues(name).Inc()
			if err := s.conn.Reconnect(ctx); err != nil {
				return fmt.Errorf("reconnect: %w", err)
			}
		}
		attempt++

		out, err := fn(ctx)
		if err != nil {
			logger.WithError(err).Warning("Query failed")
			return retry.RetryableError(err)
		}
		result = out
		return nil
	})
	if err != nil {
		s.metrics.QueryFailures.WithLabelValues(name).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return []T{}, fmt.Errorf("%s: %w", name, err)
	}
	if result == nil {
		result = []T{}
	}
	return result, nil
}

// perHolder computes fn over every holder partition in parallel. Partitions
// come ordered by holder, so the concatenated rows keep holder order.
func perHolder[T any](snap *valuation.Snapshot, engine *valuation.Engine, fn func(*valuation.Analysis) []T) []T {
	parts := snap.PartitionByHolder()
	results := iter.Map(parts, func(part **valuation.Snapshot) []T {
		return fn(engine.Analyze(*part))
	})
	out := []T{}
	for _, rows := range results {
		out = append(out, rows...)
	}
	return out
}

func (s *DashboardService) AllRepresentatives(ctx context.Context) ([]models.Representative, error) {
	return query(ctx, s, "AllRepresentatives", "", s.repos.Representatives.List)
}

func (s *DashboardService) AllTickers(ctx context.Context) ([]string, error) {
	return query(ctx, s, "AllTickers", "", s.repos.Transactions.ListTickers)
}

func (s *DashboardService) StocksWithPrices(ctx context.Context) ([]string, error) {
	return query(ctx, s, "StocksWithPrices", "", s.repos.Transactions.ListTickersWithPrices)
}

func (s *DashboardService) StockPrices(ctx context.Context, ticker string) ([]models.DailyPrice, error) {
	return query(ctx, s, "StockPrices", ticker, func(ctx context.Context) ([]models.DailyPrice, error) {
		return s.repos.Prices.ListByTicker(ctx, valuation.NormalizeTicker(ticker))
	})
}

func (s *DashboardService) RepresentativeOverview(ctx context.Context, name string) ([]valuation.HolderOverview, error) {
	return query(ctx, s, "RepresentativeOverview", name, func(ctx context.Context) ([]valuation.HolderOverview, error) {
		snap, err := loadSnapshot(ctx, s.repos, snapshotOptions{holder: name})
		if err != nil {
			return nil, err
		}
		if name == "" {
			return perHolder(snap, s.engine, func(a *valuation.Analysis) []valuation.HolderOverview {
				return a.Summary().Overview("")
			}), nil
		}
		return s.engine.Analyze(snap).Summary().Overview(name), nil
	})
}

func (s *DashboardService) SectorAnalysis(ctx context.Context, name string) ([]valuation.SectorExposure, error) {
	return query(ctx, s, "SectorAnalysis", name, func(ctx context.Context) ([]valuation.SectorExposure, error) {
		snap, err := loadSnapshot(ctx, s.repos, snapshotOptions{holder: name})
		if err != nil {
			return nil, err
		}
		return s.engine.Analyze(snap).Summary().SectorBreakdown(name), nil
	})
}

func (s *DashboardService) CurrentPositions(ctx context.Context, name string) ([]valuation.Position, error) {
	return query(ctx, s, "CurrentPositions", name, func(ctx context.Context) ([]valuation.Position, error) {
		snap, err := loadSnapshot(ctx, s.repos, snapshotOptions{holder: name})
		if err != nil {
			return nil, err
		}
		return s.engine.Analyze(snap).Ledger().CurrentPositions(name), nil
	})
}

func (s *DashboardService) PositionSeries(ctx context.Context, name string) ([]valuation.PositionPoint, error) {
	return query(ctx, s, "PositionSeries", name, func(ctx context.Context) ([]valuation.PositionPoint, error) {
		snap, err := loadSnapshot(ctx, s.repos, snapshotOptions{holder: name})
		if err != nil {
			return nil, err
		}
		if name == "" {
			return perHolder(snap, s.engine, func(a *valuation.Analysis) []valuation.PositionPoint {
				return a.Ledger().PositionSeries("")
			}), nil
		}
		return s.engine.Analyze(snap).Ledger().PositionSeries(name), nil
	})
}

func (s *DashboardService) PortfolioValue(ctx context.Context, name string) ([]valuation.PortfolioPoint, error) {
	return query(ctx, s, "PortfolioValue", name, func(ctx context.Context) ([]valuation.PortfolioPoint, error) {
		snap, err := loadSnapshot(ctx, s.repos, snapshotOptions{holder: name})
		if err != nil {
			return nil, err
		}
		if name == "" {
			return perHolder(snap, s.engine, func(a *valuation.Analysis) []valuation.PortfolioPoint {
				return a.Portfolio().PortfolioSeries("")
			}), nil
		}
		return s.engine.Analyze(snap).Portfolio().PortfolioSeries(name), nil
	})
}

func (s *DashboardService) DailyActivity(ctx context.Context, name, ticker string) ([]valuation.DailyActivity, error) {
	ticker = valuation.NormalizeTicker(ticker)
	return query(ctx, s, "DailyActivity", name+"/"+ticker, func(ctx context.Context) ([]valuation.DailyActivity, error) {
		snap, err := loadSnapshot(ctx, s.repos, snapshotOptions{holder: name, ticker: ticker})
		if err != nil {
			return nil, err
		}
		return s.engine.Analyze(snap).Summary().DailyActivity(name, ticker), nil
	})
}

func (s *DashboardService) StockOverview(ctx context.Context, ticker string) ([]valuation.InstrumentOverview, error) {
	ticker = valuation.NormalizeTicker(ticker)
	return query(ctx, s, "StockOverview", ticker, func(ctx context.Context) ([]valuation.InstrumentOverview, error) {
		snap, err := loadSnapshot(ctx, s.repos, snapshotOptions{ticker: ticker, prices: true})
		if err != nil {
			return nil, err
		}
		return s.engine.Analyze(snap).Summary().InstrumentOverview(ticker), nil
	})
}

func (s *DashboardService) StockPositions(ctx context.Context, ticker string) ([]valuation.Position, error) {
	ticker = valuation.NormalizeTicker(ticker)
	return query(ctx, s, "StockPositions", ticker, func(ctx context.Context) ([]valuation.Position, error) {
		snap, err := loadSnapshot(ctx, s.repos, snapshotOptions{ticker: ticker})
		if err != nil {
			return nil, err
		}
		return s.engine.Analyze(snap).Ledger().InstrumentPositions(ticker), nil
	})
}

func (s *DashboardService) StockTradingTimeline(ctx context.Context, ticker string) ([]valuation.TimelineEntry, error) {
	ticker = valuation.NormalizeTicker(ticker)
	return query(ctx, s, "StockTradingTimeline", ticker, func(ctx context.Context) ([]valuation.TimelineEntry, error) {
		if ticker == "" {
			return []valuation.TimelineEntry{}, nil
		}
		snap, err := loadSnapshot(ctx, s.repos, snapshotOptions{ticker: ticker, prices: true})
		if err != nil {
			return nil, err
		}
		return s.engine.Analyze(snap).Summary().Timeline(valuation.TimelineFilter{Ticker: ticker}), nil
	})
}

func (s *DashboardService) PartyDistribution(ctx context.Context, ticker string) ([]valuation.PartyExposure, error) {
	ticker = valuation.NormalizeTicker(ticker)
	return query(ctx, s, "PartyDistribution", ticker, func(ctx context.Context) ([]valuation.PartyExposure, error) {
		snap, err := loadSnapshot(ctx, s.repos, snapshotOptions{ticker: ticker})
		if err != nil {
			return nil, err
		}
		return s.engine.Analyze(snap).Ledger().PartyDistribution(ticker), nil
	})
}

func (s *DashboardService) TradingTimeline(ctx context.Context, startDate, endDate *time.Time) ([]valuation.TimelineEntry, error) {
	return query(ctx, s, "TradingTimeline", "", func(ctx context.Context) ([]valuation.TimelineEntry, error) {
		snap, err := loadSnapshot(ctx, s.repos, snapshotOptions{start: startDate, end: endDate, prices: true})
		if err != nil {
			return nil, err
		}
		return s.engine.Analyze(snap).Summary().Timeline(valuation.TimelineFilter{Start: startDate, End: endDate}), nil
	})
}
