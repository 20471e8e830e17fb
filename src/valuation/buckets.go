package valuation

import "strings"

// Disclosure amount ranges as published in periodic transaction reports.
const (
	BucketUnder1K      = "< $1,000"
	Bucket1KTo15K      = "$1,001 - $15,000"
	Bucket15KTo50K     = "$15,001 - $50,000"
	Bucket50KTo100K    = "$50,001 - $100,000"
	Bucket100KTo250K   = "$100,001 - $250,000"
	Bucket250KTo500K   = "$250,001 - $500,000"
	Bucket500KTo1M     = "$500,001 - $1,000,000"
	Bucket1MTo5M       = "$1,000,001 - $5,000,000"
	BucketOver5M       = "> $5,000,000"
	unknownBucketValue = 0.0
)

// bucketEstimates is the deployment-wide point estimate table (range midpoint + 0.5).
var bucketEstimates = map[string]float64{
	BucketUnder1K:    500,
	Bucket1KTo15K:    8000.5,
	Bucket15KTo50K:   32500.5,
	Bucket50KTo100K:  75000.5,
	Bucket100KTo250K: 175000.5,
	Bucket250KTo500K: 375000.5,
	Bucket500KTo1M:   750000.5,
	Bucket1MTo5M:     3000000.5,
	BucketOver5M:     5000000,
}

var dashReplacer = strings.NewReplacer("–", "-", "—", "-")

// NormalizeBucket canonicalises dash characters and whitespace so that labels
// copied from different filings hit the same table entry.
func NormalizeBucket(label string) string {
	return strings.Join(strings.Fields(dashReplacer.Replace(label)), " ")
}

// KnownBucket reports whether label is one of the disclosure ranges.
func KnownBucket(label string) bool {
	_, ok := bucketEstimates[NormalizeBucket(label)]
	return ok
}

// Buckets returns the known labels ordered from the smallest range to the largest.
func Buckets() []string {
	return []string{
		BucketUnder1K, Bucket1KTo15K, Bucket15KTo50K, Bucket50KTo100K, Bucket100KTo250K,
		Bucket250KTo500K, Bucket500KTo1M, Bucket1MTo5M, BucketOver5M,
	}
}

// Resolve maps a disclosure range label to its point estimate. Unknown labels are worth 0.
func Resolve(label string) float64 {
	if v, ok := bucketEstimates[NormalizeBucket(label)]; ok {
		return v
	}
	return unknownBucketValue
}

// Resolver resolves bucket labels and reports the ones it does not know.
type Resolver struct {
	onUnknown func(label string)
}

// NewResolver returns a Resolver. onUnknown may be nil.
func NewResolver(onUnknown func(label string)) *Resolver {
	return &Resolver{onUnknown: onUnknown}
}

// Estimate returns the point estimate for label.
func (r *Resolver) Estimate(label string) float64 {
	v, ok := bucketEstimates[NormalizeBucket(label)]
	if !ok {
		if r != nil && r.onUnknown != nil {
			r.onUnknown(label)
		}
		return unknownBucketValue
	}
	return v
}

// SignedValue is the estimate signed by the trade direction: positive for
// purchases, negative for sales and zero for everything else.
func (r *Resolver) SignedValue(direction Direction, label string) float64 {
	sign := direction.Sign()
	if sign == 0 {
		return 0
	}
	return float64(sign) * r.Estimate(label)
}
