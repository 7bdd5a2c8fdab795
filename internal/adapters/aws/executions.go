package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sfn"
	"github.com/aws/aws-sdk-go/service/sfn/sfniface"
)

type executionInput struct {
	RepositoryURL string `json:"repository_url"`
}

// ExecutionStarter starts a Step Functions execution of the deploy
// state machine. The execution ARN is the execution id.
type ExecutionStarter struct {
	svc             sfniface.SFNAPI
	stateMachineARN string
}

func NewExecutionStarter(svc sfniface.SFNAPI, stateMachineARN string) *ExecutionStarter {
	return &ExecutionStarter{svc: svc, stateMachineARN: stateMachineARN}
}

func (s *ExecutionStarter) StartExecution(ctx context.Context, repoURL string) (string, error) {
	input, err := json.Marshal(executionInput{RepositoryURL: repoURL})
	if err != nil {
		return "", err
	}

	out, err := s.svc.StartExecutionWithContext(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(s.stateMachineARN),
		Input:           aws.String(string(input)),
	})
	if err != nil {
		return "", fmt.Errorf("sfn start execution: %w", err)
	}

	return aws.StringValue(out.ExecutionArn), nil
}
