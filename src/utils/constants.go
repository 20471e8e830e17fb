package utils

const ShortSlashDateLayout = "01/02/2006"
const ShortDashDateLayout = "2006-01-02"
const ShortDashMonthFirstLayout = "01-02-2006"

const (
	IngestionKindTransactions = "transactions"
	IngestionKindPrices       = "prices"
	IngestionKindDetails      = "details"
	IngestionKindAll          = "all"
)

const (
	IngestionStatusRunning   = "running"
	IngestionStatusSucceeded = "succeeded"
	IngestionStatusPartial   = "partial"
	IngestionStatusFailed    = "failed"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// IsIngestionKind reports whether kind names an ingestion step or "all".
func IsIngestionKind(kind string) bool {
	switch kind {
	case IngestionKindTransactions, IngestionKindPrices, IngestionKindDetails, IngestionKindAll:
		return true
	}
	return false
}
