// Package aws adapts the pipeline's ports to AWS: Systems Manager for
// parameters and remote commands, Route 53 for DNS and Step Functions
// for executions.
package aws

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
)

// NewSession builds a session from the default credential chain and
// shared config, pinned to region.
func NewSession(region string) (*session.Session, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            aws.Config{Region: aws.String(region)},
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return sess, nil
}
