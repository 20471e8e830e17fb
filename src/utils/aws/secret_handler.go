package aws_handler

import (
	"context"
	"fmt"

	"housetrades/src/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
)

type SecretManager struct {
	svc secretsmanageriface.SecretsManagerAPI
}

func NewSecretManager(svc secretsmanageriface.SecretsManagerAPI) *SecretManager {
	return &SecretManager{svc: svc}
}

func (s *SecretManager) GetSecretValue(ctx context.Context, secretId string) (string, error) {
	input := &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretId),
	}

	result, err := s.svc.GetSecretValueWithContext(ctx, input)
	if err != nil {
		return "", err
	}
	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", secretId)
	}

	return *result.SecretString, nil
}

// ResolveDatabasePassword replaces the configured database password with the
// secret referenced by passwordSecretId, when one is set.
func ResolveDatabasePassword(ctx context.Context, cfg *config.Config) error {
	secretID := cfg.Databases.SQL.PasswordSecretID
	if secretID == "" {
		return nil
	}
	handler, err := NewAWSHandler(cfg.Ingestion.AWSRegion)
	if err != nil {
		return fmt.Errorf("failed to create aws session: %w", err)
	}
	password, err := handler.SecretManager.GetSecretValue(ctx, secretID)
	if err != nil {
		return fmt.Errorf("failed to read database password secret: %w", err)
	}
	cfg.Databases.SQL.Password = password
	return nil
}
