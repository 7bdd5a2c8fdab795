package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"

	"plugfolio-deployer/internal/domain"
)

// CommandChannel runs an SSM document on managed instances.
type CommandChannel struct {
	svc ssmiface.SSMAPI
}

func NewCommandChannel(svc ssmiface.SSMAPI) *CommandChannel {
	return &CommandChannel{svc: svc}
}

func (c *CommandChannel) Dispatch(ctx context.Context, hostIDs []string, document string, params map[string][]string) (*domain.RemoteCommandHandle, error) {
	input := &ssm.SendCommandInput{
		InstanceIds:  aws.StringSlice(hostIDs),
		DocumentName: aws.String(document),
		Parameters:   make(map[string][]*string, len(params)),
		Comment:      aws.String("plugfolio deploy"),
	}
	for k, v := range params {
		input.Parameters[k] = aws.StringSlice(v)
	}

	out, err := c.svc.SendCommandWithContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("ssm send command: %w", err)
	}
	if out.Command == nil {
		return nil, fmt.Errorf("ssm send command: empty response")
	}

	return commandHandle(out.Command), nil
}

func commandHandle(cmd *ssm.Command) *domain.RemoteCommandHandle {
	h := &domain.RemoteCommandHandle{
		CommandID:    aws.StringValue(cmd.CommandId),
		DocumentName: aws.StringValue(cmd.DocumentName),
		HostIDs:      aws.StringValueSlice(cmd.InstanceIds),
		Status:       aws.StringValue(cmd.Status),
		RequestedAt:  formatTime(cmd.RequestedDateTime),
		ExpiresAfter: formatTime(cmd.ExpiresAfter),
	}

	if len(cmd.Parameters) > 0 {
		h.Parameters = make(map[string][]string, len(cmd.Parameters))
		for k, v := range cmd.Parameters {
			h.Parameters[k] = aws.StringValueSlice(v)
		}
	}

	return h
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return domain.FormatTimestamp(*t)
}
