package housewatcher

import (
	"context"
	"encoding/json"
	"fmt"

	"housetrades/src/config"
	aws_handler "housetrades/src/utils/aws"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type HouseWatcherClientI interface {
	GetTransactions(ctx context.Context) ([]TransactionRecord, error)
}

// HouseWatcherClient reads the House Stock Watcher dump from its public bucket.
type HouseWatcherClient struct {
	S3     s3iface.S3API
	Bucket string
	Key    string
}

// NewClient creates a client with anonymous credentials.
func NewClient(cfg *config.Config) (*HouseWatcherClient, error) {
	hw := cfg.ExternalClients.HouseWatcher
	sess, err := aws_handler.NewAnonymousSession(hw.Region, hw.Endpoint)
	if err != nil {
		return nil, err
	}
	return NewClientWithS3(s3.New(sess), hw.Bucket, hw.Key), nil
}

func NewClientWithS3(api s3iface.S3API, bucket, key string) *HouseWatcherClient {
	return &HouseWatcherClient{S3: api, Bucket: bucket, Key: key}
}

// GetTransactions downloads and decodes the full feed. Records keep their
// feed order.
func (c *HouseWatcherClient) GetTransactions(ctx context.Context) ([]TransactionRecord, error) {
	out, err := c.S3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.Bucket),
		Key:    aws.String(c.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", c.Bucket, c.Key, err)
	}
	defer out.Body.Close()

	var records []TransactionRecord
	if err := json.NewDecoder(out.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode transactions feed: %w", err)
	}
	return records, nil
}
