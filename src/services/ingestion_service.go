package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"housetrades/src/clients/housewatcher"
	"housetrades/src/clients/yahoo"
	"housetrades/src/config"
	"housetrades/src/models"
	"housetrades/src/utils"
	"housetrades/src/valuation"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"
)

const detailsBatchSize = 10

var ErrIngestionRunning = utils.Conflict("an ingestion run is already in progress")

// TxBeginner opens the database transaction shared by the transaction and
// representative replaces.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type IngestionServiceI interface {
	Run(ctx context.Context, kind string) ([]models.IngestionRun, error)
	RecentRuns(ctx context.Context, limit int) ([]models.IngestionRun, error)
}

// IngestionService refreshes the stored disclosures, prices and issuer
// details. Runs are serialised; a run requested while another is active fails
// with ErrIngestionRunning.
type IngestionService struct {
	db           TxBeginner
	repos        Repositories
	houseWatcher housewatcher.HouseWatcherClientI
	yahoo        yahoo.YahooClientI
	validation   ValidationServiceI
	metrics      *utils.Metrics
	logger       *logrus.Logger

	lookahead    time.Duration
	timeout      time.Duration
	concurrency  int
	requestDelay time.Duration

	mu sync.Mutex
}

func NewIngestionService(
	cfg *config.Config,
	db TxBeginner,
	repos Repositories,
	houseWatcher housewatcher.HouseWatcherClientI,
	yahooClient yahoo.YahooClientI,
	metrics *utils.Metrics,
	logger *logrus.Logger,
) *IngestionService {
	concurrency := cfg.ExternalClients.Yahoo.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &IngestionService{
		db:           db,
		repos:        repos,
		houseWatcher: houseWatcher,
		yahoo:        yahooClient,
		validation:   NewValidationService(repos.Transactions),
		metrics:      metrics,
		logger:       logger,
		lookahead:    time.Duration(cfg.Ingestion.PriceLookaheadDays) * 24 * time.Hour,
		timeout:      cfg.Ingestion.Timeout,
		concurrency:  concurrency,
		requestDelay: cfg.ExternalClients.Yahoo.RequestDelay,
	}
}

// Run executes one ingestion kind, or every kind in order for "all". The
// returned runs are the audit records written for this call.
func (s *IngestionService) Run(ctx context.Context, kind string) ([]models.IngestionRun, error) {
	var steps []string
	switch kind {
	case utils.IngestionKindTransactions, utils.IngestionKindPrices, utils.IngestionKindDetails:
		steps = []string{kind}
	case utils.IngestionKindAll:
		steps = []string{utils.IngestionKindTransactions, utils.IngestionKindPrices, utils.IngestionKindDetails}
	default:
		return nil, utils.BadRequest(fmt.Sprintf("unknown ingestion kind %q", kind))
	}

	if !s.mu.TryLock() {
		return nil, ErrIngestionRunning
	}
	defer s.mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	runs := make([]models.IngestionRun, 0, len(steps))
	for _, step := range steps {
		run, err := s.runStep(ctx, step)
		if run != nil {
			runs = append(runs, *run)
		}
		if err != nil {
			return runs, err
		}
	}
	return runs, nil
}

func (s *IngestionService) RecentRuns(ctx context.Context, limit int) ([]models.IngestionRun, error) {
	runs, err := s.repos.IngestionRuns.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []models.IngestionRun{}
	}
	return runs, nil
}

// stepResult is what a single ingestion step reports back to runStep.
type stepResult struct {
	records int
	failed  []string
	// attempted is the number of items the step tried; a step where every
	// attempt failed is recorded as failed rather than partial.
	attempted int
}

func (s *IngestionService) runStep(ctx context.Context, kind string) (*models.IngestionRun, error) {
	ctx, span := tracer.Start(ctx, "IngestionService."+kind)
	defer span.End()

	logger := utils.LoggerFromContext(ctx, s.logger).WithFields(logrus.Fields{"kind": kind})
	run, err := s.repos.IngestionRuns.Start(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to record %s run: %w", kind, err)
	}
	started := time.Now()
	logger = logger.WithFields(logrus.Fields{"run_id": run.ID})
	logger.Info("Ingestion started")

	var res stepResult
	switch kind {
	case utils.IngestionKindTransactions:
		res, err = s.ingestTransactions(ctx, run, logger)
	case utils.IngestionKindPrices:
		res, err = s.ingestPrices(ctx)
	case utils.IngestionKindDetails:
		res, err = s.ingestDetails(ctx)
	}

	run.Records = res.records
	run.FailedTickers = res.failed
	switch {
	case len(res.failed) > 0 && len(res.failed) == res.attempted:
		run.Status = utils.IngestionStatusFailed
	case err != nil && res.records == 0:
		run.Status = utils.IngestionStatusFailed
	case len(res.failed) > 0:
		run.Status = utils.IngestionStatusPartial
	default:
		run.Status = utils.IngestionStatusSucceeded
	}
	if err != nil {
		msg := err.Error()
		run.Error = &msg
	}

	// The step context may be past its deadline; the audit row is still written.
	if ferr := s.repos.IngestionRuns.Finish(context.WithoutCancel(ctx), run); ferr != nil {
		err = multierr.Append(err, fmt.Errorf("failed to finish %s run: %w", kind, ferr))
	}

	s.metrics.IngestedRecords.WithLabelValues(kind).Add(float64(res.records))
	s.metrics.FailedTickers.WithLabelValues(kind).Add(float64(len(res.failed)))
	s.metrics.IngestionDuration.WithLabelValues(kind, run.Status).Observe(time.Since(started).Seconds())

	entry := logger.WithFields(logrus.Fields{
		"status":         run.Status,
		"records":        run.Records,
		"failed_tickers": len(run.FailedTickers),
		"duration":       time.Since(started).String(),
	})
	if err != nil {
		entry.WithError(err).Error("Ingestion finished with errors")
	} else {
		entry.Info("Ingestion finished")
	}

	// Per ticker failures are recorded on the run and do not fail the call.
	if run.Status == utils.IngestionStatusFailed {
		return run, err
	}
	return run, nil
}

func (s *IngestionService) ingestTransactions(ctx context.Context, run *models.IngestionRun, logger *logrus.Entry) (stepResult, error) {
	records, err := s.houseWatcher.GetTransactions(ctx)
	if err != nil {
		return stepResult{}, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	report := s.validation.Validate(records)
	for _, f := range report.Fields {
		if f.Missing > 0 || f.Malformed > 0 {
			logger.WithFields(logrus.Fields{
				"field":     f.Field,
				"missing":   f.Missing,
				"malformed": f.Malformed,
			}).Warning("Feed validation")
		}
	}

	txs, skipped := NormalizeRecords(records, run)
	if skipped > 0 {
		logger.WithFields(logrus.Fields{"skipped": skipped}).Warning("Skipped records without a usable transaction date")
	}
	if unknown := CountUnknownBuckets(txs); unknown > 0 {
		s.metrics.UnknownBuckets.Add(float64(unknown))
		logger.WithFields(logrus.Fields{"records": unknown}).Warning("Records with an unknown amount bucket are valued at zero")
	}
	reps := DeriveRepresentatives(txs)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return stepResult{}, fmt.Errorf("failed to begin replace: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	n, err := s.repos.Transactions.ReplaceAll(ctx, txs, tx)
	if err != nil {
		return stepResult{}, fmt.Errorf("failed to replace transactions: %w", err)
	}
	if err = s.repos.Representatives.ReplaceAll(ctx, reps, tx); err != nil {
		return stepResult{}, fmt.Errorf("failed to replace representatives: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return stepResult{}, fmt.Errorf("failed to commit replace: %w", err)
	}
	return stepResult{records: int(n)}, nil
}

// NormalizeRecords converts feed records into stored transactions in feed
// order. Records whose transaction date cannot be parsed are dropped and
// counted.
func NormalizeRecords(records []housewatcher.TransactionRecord, run *models.IngestionRun) ([]models.Transaction, int) {
	txs := make([]models.Transaction, 0, len(records))
	skipped := 0
	for _, r := range records {
		date, err := utils.ParseFilingDate(r.TransactionDate)
		if err != nil {
			skipped++
			continue
		}
		t := models.Transaction{
			Seq:                int64(len(txs) + 1),
			DisclosureYear:     r.DisclosureYear,
			TransactionDate:    date,
			Owner:              strings.TrimSpace(r.Owner),
			Ticker:             valuation.NormalizeTicker(r.Ticker),
			AssetDescription:   strings.TrimSpace(r.AssetDescription),
			Type:               string(valuation.ParseDirection(r.Type)),
			Amount:             strings.TrimSpace(r.Amount),
			Representative:     strings.TrimSpace(r.Representative),
			District:           strings.TrimSpace(r.District),
			State:              strings.TrimSpace(r.State),
			Party:              strings.TrimSpace(r.Party),
			PtrLink:            strings.TrimSpace(r.PtrLink),
			CapGainsOver200USD: r.CapGainsOver200USD,
			Industry:           strings.TrimSpace(r.Industry),
			Sector:             strings.TrimSpace(r.Sector),
		}
		if disclosed, err := utils.ParseFilingDate(r.DisclosureDate); err == nil {
			t.DisclosureDate = &disclosed
		}
		if run != nil {
			t.IngestionRunID = run.ID
		}
		txs = append(txs, t)
	}
	return txs, skipped
}

// CountUnknownBuckets returns how many transactions carry an amount label
// outside the disclosure ranges.
func CountUnknownBuckets(txs []models.Transaction) int {
	n := 0
	for _, t := range txs {
		if !valuation.KnownBucket(t.Amount) {
			n++
		}
	}
	return n
}

// DeriveRepresentatives returns the distinct (name, district, state, party)
// tuples ordered by name.
func DeriveRepresentatives(txs []models.Transaction) []models.Representative {
	seen := map[models.Representative]struct{}{}
	reps := []models.Representative{}
	for _, t := range txs {
		if t.Representative == "" {
			continue
		}
		rep := models.Representative{Name: t.Representative, District: t.District, State: t.State, Party: t.Party}
		if _, ok := seen[rep]; ok {
			continue
		}
		seen[rep] = struct{}{}
		reps = append(reps, rep)
	}
	sort.SliceStable(reps, func(i, j int) bool {
		a, b := reps[i], reps[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.District != b.District {
			return a.District < b.District
		}
		return a.Party < b.Party
	})
	return reps
}

func (s *IngestionService) ingestPrices(ctx context.Context) (stepResult, error) {
	tickers, err := s.repos.Transactions.ListTickers(ctx)
	if err != nil {
		return stepResult{}, fmt.Errorf("failed to list tickers: %w", err)
	}
	minDate, maxDate, err := s.repos.Transactions.GetDateRange(ctx)
	if err != nil {
		return stepResult{}, fmt.Errorf("failed to read date range: %w", err)
	}
	if minDate == nil || maxDate == nil || len(tickers) == 0 {
		return stepResult{}, nil
	}
	start, end := *minDate, maxDate.Add(s.lookahead)

	var mu sync.Mutex
	res := stepResult{attempted: len(tickers)}
	var errs error
	s.forEachTicker(ctx, tickers, func(ctx context.Context, ticker string) {
		n, err := s.refreshPrices(ctx, ticker, start, end)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			res.failed = append(res.failed, ticker)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", ticker, err))
			return
		}
		res.records += int(n)
	})
	sort.Strings(res.failed)
	return res, errs
}

func (s *IngestionService) refreshPrices(ctx context.Context, ticker string, start, end time.Time) (int64, error) {
	prices, err := s.yahoo.GetDailyPrices(ctx, ticker, start, end)
	if err != nil {
		return 0, err
	}
	return s.repos.Prices.ReplaceForTicker(ctx, ticker, prices)
}

func (s *IngestionService) ingestDetails(ctx context.Context) (stepResult, error) {
	tickers, err := s.repos.Transactions.ListTickers(ctx)
	if err != nil {
		return stepResult{}, fmt.Errorf("failed to list tickers: %w", err)
	}

	res := stepResult{attempted: len(tickers)}
	var errs error
	for start := 0; start < len(tickers); start += detailsBatchSize {
		end := min(start+detailsBatchSize, len(tickers))
		batch := tickers[start:end]

		var mu sync.Mutex
		var securities []models.Security
		s.forEachTicker(ctx, batch, func(ctx context.Context, ticker string) {
			security, err := s.yahoo.GetDetails(ctx, ticker)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.failed = append(res.failed, ticker)
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", ticker, err))
				return
			}
			securities = append(securities, *security)
		})

		n, err := s.repos.Securities.Replace(ctx, securities)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to store details: %w", err))
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			continue
		}
		res.records += int(n)
	}
	sort.Strings(res.failed)
	return res, errs
}

// forEachTicker calls fn for every ticker on a bounded pool, waiting the
// configured request delay before each call. Once ctx ends the delay is cut
// short and fn sees the ended context, so the remaining tickers fail fast.
func (s *IngestionService) forEachTicker(ctx context.Context, tickers []string, fn func(ctx context.Context, ticker string)) {
	p := pool.New().WithMaxGoroutines(s.concurrency)
	for _, ticker := range tickers {
		p.Go(func() {
			if s.requestDelay > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(s.requestDelay):
				}
			}
			fn(ctx, ticker)
		})
	}
	p.Wait()
}
