package aws_handler_test

import (
	"context"
	"errors"
	"testing"

	aws_handler "housetrades/src/utils/aws"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	secretsmanageriface.SecretsManagerAPI
	values map[string]*string
}

func (f *fakeSecrets) GetSecretValueWithContext(_ aws.Context, in *secretsmanager.GetSecretValueInput, _ ...request.Option) (*secretsmanager.GetSecretValueOutput, error) {
	v, ok := f.values[*in.SecretId]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: v}, nil
}

func TestGetSecretValue(t *testing.T) {
	sm := aws_handler.NewSecretManager(&fakeSecrets{values: map[string]*string{
		"db/password": aws.String("s3cret"),
		"db/binary":   nil,
	}})
	ctx := context.Background()

	t.Run("returns the string value", func(t *testing.T) {
		v, err := sm.GetSecretValue(ctx, "db/password")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", v)
	})

	t.Run("binary secrets are rejected", func(t *testing.T) {
		_, err := sm.GetSecretValue(ctx, "db/binary")
		assert.Error(t, err)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := sm.GetSecretValue(ctx, "nope")
		assert.Error(t, err)
	})
}
