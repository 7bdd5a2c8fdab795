package aws

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plugfolio-deployer/internal/domain"
)

type mockSSMClient struct {
	ssmiface.SSMAPI
	params map[string]string

	putInput  *ssm.PutParameterInput
	sendInput *ssm.SendCommandInput
	sendResp  ssm.SendCommandOutput
	err       error
}

func (m *mockSSMClient) GetParameterWithContext(_ aws.Context, in *ssm.GetParameterInput, _ ...request.Option) (*ssm.GetParameterOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.params[aws.StringValue(in.Name)]
	if !ok {
		return nil, awserr.New(ssm.ErrCodeParameterNotFound, "parameter not found", nil)
	}
	return &ssm.GetParameterOutput{Parameter: &ssm.Parameter{Name: in.Name, Value: aws.String(v)}}, nil
}

func (m *mockSSMClient) PutParameterWithContext(_ aws.Context, in *ssm.PutParameterInput, _ ...request.Option) (*ssm.PutParameterOutput, error) {
	m.putInput = in
	if m.err != nil {
		return nil, m.err
	}
	name := aws.StringValue(in.Name)
	if _, ok := m.params[name]; ok && !aws.BoolValue(in.Overwrite) {
		return nil, awserr.New(ssm.ErrCodeParameterAlreadyExists, "exists", nil)
	}
	m.params[name] = aws.StringValue(in.Value)
	return &ssm.PutParameterOutput{Version: aws.Int64(2)}, nil
}

func (m *mockSSMClient) SendCommandWithContext(_ aws.Context, in *ssm.SendCommandInput, _ ...request.Option) (*ssm.SendCommandOutput, error) {
	m.sendInput = in
	if m.err != nil {
		return nil, m.err
	}
	return &m.sendResp, nil
}

func TestParameterStore_Get(t *testing.T) {
	store := NewParameterStore(&mockSSMClient{params: map[string]string{"/plugfolio/RootDomain": "plugfolio.io"}})

	v, err := store.Get(context.Background(), "/plugfolio/RootDomain")
	require.NoError(t, err)
	assert.Equal(t, "plugfolio.io", v)

	_, err = store.Get(context.Background(), "/plugfolio/LastKnownGoodTag")
	assert.ErrorIs(t, err, domain.ErrParameterNotFound)
}

func TestParameterStore_GetOtherFailure(t *testing.T) {
	store := NewParameterStore(&mockSSMClient{err: awserr.New("ThrottlingException", "slow down", nil)})

	_, err := store.Get(context.Background(), "/plugfolio/RootDomain")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrParameterNotFound)
}

func TestParameterStore_Put(t *testing.T) {
	mock := &mockSSMClient{params: map[string]string{"/plugfolio/LastKnownGoodTag": "v4"}}
	store := NewParameterStore(mock)

	err := store.Put(context.Background(), "/plugfolio/LastKnownGoodTag", "v5", false)
	assert.ErrorIs(t, err, domain.ErrParameterExists)

	require.NoError(t, store.Put(context.Background(), "/plugfolio/LastKnownGoodTag", "v5", true))
	assert.Equal(t, "v5", mock.params["/plugfolio/LastKnownGoodTag"])
	assert.Equal(t, ssm.ParameterTypeString, aws.StringValue(mock.putInput.Type))
}
