package main

import (
	"github.com/spf13/cobra"

	"plugfolio-deployer/internal/domain"
)

// triggerResult mirrors the response envelope of the hosted trigger
// function so scripts can parse either.
type triggerResult struct {
	StatusCode int                    `json:"statusCode"`
	Body       domain.TriggerResponse `json:"body"`
}

type triggerOpts struct {
	*rootOpts
	wait bool
}

func newTrigger(parent *rootOpts) *triggerOpts {
	return &triggerOpts{rootOpts: parent}
}

func (opts *triggerOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger <clone-url>",
		Short: "Store the repository URL and start a pipeline execution",
		RunE:  opts.RunE,
	}
	cmd.Flags().BoolVar(&opts.wait, "wait", true, "with the local execution backend, wait for the run to finish")
	return cmd
}

func (opts *triggerOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return newUsageError("expected exactly one clone URL")
	}

	app, err := opts.App()
	if err != nil {
		return err
	}

	id, err := app.Trigger.Trigger(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), triggerResult{
		StatusCode: 200,
		Body:       domain.TriggerResponse{ExecutionArn: id},
	}); err != nil {
		return err
	}

	if !opts.wait {
		return nil
	}
	return opts.Close()
}
