package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"housetrades/src/clients/housewatcher"
	"housetrades/src/models"
	"housetrades/src/repositories"
	"housetrades/src/schemas"
	"housetrades/src/utils"
	"housetrades/src/valuation"
)

const maxValidationSamples = 5

var (
	tickerPattern = regexp.MustCompile(`^[A-Z]+$`)
	amountPattern = regexp.MustCompile(`^[\$\d,\.\- ]+$`)
	validTypes    = map[string]bool{"purchase": true, "sale": true, "exchange": true}
)

type ValidationServiceI interface {
	Validate(records []housewatcher.TransactionRecord) *schemas.ValidationReport
	ValidateStored(ctx context.Context) (*schemas.ValidationReport, error)
}

type ValidationService struct {
	transactions repositories.TransactionRepository
}

func NewValidationService(transactions repositories.TransactionRepository) *ValidationService {
	return &ValidationService{transactions: transactions}
}

type fieldRule struct {
	name  string
	value func(r record) string
	valid func(v string) bool
}

type record = housewatcher.TransactionRecord

var validationRules = []fieldRule{
	{
		name:  "ticker",
		value: func(r record) string { return r.Ticker },
		valid: func(v string) bool { return len(v) <= 5 && tickerPattern.MatchString(v) },
	},
	{
		name:  "transaction_date",
		value: func(r record) string { return r.TransactionDate },
		valid: func(v string) bool {
			_, err := time.Parse(utils.ShortDashDateLayout, v)
			return err == nil
		},
	},
	{
		name:  "type",
		value: func(r record) string { return r.Type },
		valid: func(v string) bool { return validTypes[string(valuation.ParseDirection(v))] },
	},
	{
		name:  "amount",
		value: func(r record) string { return r.Amount },
		valid: func(v string) bool { return valuation.KnownBucket(v) || amountPattern.MatchString(v) },
	},
	{
		name:  "representative",
		value: func(r record) string { return r.Representative },
		valid: func(string) bool { return true },
	},
}

// Validate counts empty values and values that break the field's format.
// Malformed counts only consider non-empty values.
func (s *ValidationService) Validate(records []housewatcher.TransactionRecord) *schemas.ValidationReport {
	report := &schemas.ValidationReport{TotalRecords: len(records)}
	for _, rule := range validationRules {
		fv := schemas.FieldValidation{Field: rule.name, Samples: []string{}}
		for _, r := range records {
			v := strings.TrimSpace(rule.value(r))
			if v == "" {
				fv.Missing++
				continue
			}
			if !rule.valid(v) {
				fv.Malformed++
				if len(fv.Samples) < maxValidationSamples {
					fv.Samples = append(fv.Samples, v)
				}
			}
		}
		report.Fields = append(report.Fields, fv)
	}
	return report
}

// ValidateStored runs Validate over the transactions currently stored.
func (s *ValidationService) ValidateStored(ctx context.Context) (*schemas.ValidationReport, error) {
	txs, err := s.transactions.List(ctx, repositories.TransactionFilter{})
	if err != nil {
		return nil, err
	}
	return s.Validate(toRecords(txs)), nil
}

func toRecords(txs []models.Transaction) []housewatcher.TransactionRecord {
	records := make([]housewatcher.TransactionRecord, 0, len(txs))
	for _, t := range txs {
		records = append(records, housewatcher.TransactionRecord{
			TransactionDate: t.TransactionDate.Format(utils.ShortDashDateLayout),
			Ticker:          t.Ticker,
			Type:            t.Type,
			Amount:          t.Amount,
			Representative:  t.Representative,
		})
	}
	return records
}
