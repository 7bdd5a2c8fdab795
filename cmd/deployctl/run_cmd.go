package main

import (
	"github.com/spf13/cobra"

	"plugfolio-deployer/internal/domain"
)

type runOpts struct {
	*rootOpts
	repoURL string
}

func newRun(parent *rootOpts) *runOpts {
	return &runOpts{rootOpts: parent}
}

func (opts *runOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the whole pipeline in this process and print the final state",
		RunE:  opts.RunE,
	}
	cmd.Flags().StringVar(&opts.repoURL, "repo-url", "", "store this repository URL before running")
	return cmd
}

func (opts *runOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return errorWantedNoArgs
	}

	app, err := opts.App()
	if err != nil {
		return err
	}
	defer opts.Close()

	if opts.repoURL != "" {
		key := domain.ParameterKey(app.Config.ParameterNamespace, domain.ParamGitRepoURL)
		if err := app.Params.Put(cmd.Context(), key, opts.repoURL, true); err != nil {
			return err
		}
	}

	in := domain.NewDeploymentState()
	in.ExecutionID = "cli"

	out, err := app.Runner.Run(cmd.Context(), in)
	if printErr := printJSON(cmd.OutOrStdout(), out); printErr != nil {
		return printErr
	}
	return err
}
