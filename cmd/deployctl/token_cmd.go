package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"plugfolio-deployer/internal/domain"
)

type tokenOpts struct {
	*rootOpts
	subject string
	ttl     time.Duration
}

func newToken(parent *rootOpts) *tokenOpts {
	return &tokenOpts{rootOpts: parent}
}

func (opts *tokenOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a token for the stage API and the run feed",
		RunE:  opts.RunE,
	}
	cmd.Flags().StringVar(&opts.subject, "subject", "deployctl", "token subject")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func (opts *tokenOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return errorWantedNoArgs
	}
	if opts.ttl <= 0 {
		return newUsageError("--ttl must be positive")
	}

	token, err := domain.IssueToken(opts.cfg.JWTSecret, opts.subject, opts.ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
