package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"

	"plugfolio-deployer/internal/domain"
)

// ParameterStore keeps deployment parameters as plain String parameters
// in SSM Parameter Store.
type ParameterStore struct {
	svc ssmiface.SSMAPI
}

func NewParameterStore(svc ssmiface.SSMAPI) *ParameterStore {
	return &ParameterStore{svc: svc}
}

func (s *ParameterStore) Get(ctx context.Context, key string) (string, error) {
	out, err := s.svc.GetParameterWithContext(ctx, &ssm.GetParameterInput{
		Name:           aws.String(key),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		if hasCode(err, ssm.ErrCodeParameterNotFound) {
			return "", fmt.Errorf("%w: %s", domain.ErrParameterNotFound, key)
		}
		return "", fmt.Errorf("ssm get %s: %w", key, err)
	}
	if out.Parameter == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrParameterNotFound, key)
	}

	return aws.StringValue(out.Parameter.Value), nil
}

func (s *ParameterStore) Put(ctx context.Context, key, value string, overwrite bool) error {
	_, err := s.svc.PutParameterWithContext(ctx, &ssm.PutParameterInput{
		Name:      aws.String(key),
		Value:     aws.String(value),
		Type:      aws.String(ssm.ParameterTypeString),
		Overwrite: aws.Bool(overwrite),
	})
	if err != nil {
		if hasCode(err, ssm.ErrCodeParameterAlreadyExists) {
			return fmt.Errorf("%w: %s", domain.ErrParameterExists, key)
		}
		return fmt.Errorf("ssm put %s: %w", key, err)
	}
	return nil
}

func hasCode(err error, code string) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == code
}
