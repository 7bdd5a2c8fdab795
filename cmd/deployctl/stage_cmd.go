package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"plugfolio-deployer/internal/adapters/http/request"
	"plugfolio-deployer/internal/domain"
)

type stageOpts struct {
	*rootOpts
	statePath string
	list      bool
}

func newStage(parent *rootOpts) *stageOpts {
	return &stageOpts{rootOpts: parent}
}

func (opts *stageOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage <name>",
		Short: "Invoke a single stage with a deployment state and print the result",
		Example: makeExample(
			"deployctl stage --list",
			"deployctl stage check-health --state state.json",
			"deployctl stage resolve-config < state.json",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.statePath, "state", "s", "", "file holding the input state; read from stdin when empty")
	cmd.Flags().BoolVar(&opts.list, "list", false, "list stage names in execution order")
	return cmd
}

func (opts *stageOpts) RunE(cmd *cobra.Command, args []string) error {
	app, err := opts.App()
	if err != nil {
		return err
	}
	defer opts.Close()

	if opts.list {
		if len(args) > 0 {
			return errorWantedNoArgs
		}
		for _, name := range app.Runner.StageNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	if len(args) != 1 {
		return newUsageError("expected exactly one stage name")
	}

	in, err := opts.readState(cmd.InOrStdin())
	if err != nil {
		return err
	}

	out, err := app.Runner.RunStage(cmd.Context(), args[0], in)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func (opts *stageOpts) readState(stdin io.Reader) (domain.DeploymentState, error) {
	var (
		data []byte
		err  error
	)
	if opts.statePath != "" {
		data, err = os.ReadFile(opts.statePath)
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return domain.DeploymentState{}, err
	}
	if len(data) == 0 {
		return domain.DeploymentState{}, errNoInput
	}

	var state domain.DeploymentState
	if err := request.NewLenientJSONDecoder().DecodeBytes(data, &state); err != nil {
		return domain.DeploymentState{}, err
	}
	return state, nil
}
