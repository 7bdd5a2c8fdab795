package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"plugfolio-deployer/internal/domain"
)

type paramsOpts struct {
	*rootOpts
	overwrite bool
}

func newParams(parent *rootOpts) *paramsOpts {
	return &paramsOpts{rootOpts: parent}
}

func (opts *paramsOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Read and seed the parameter store",
	}

	get := &cobra.Command{
		Use:   "get <name>",
		Short: "Print a parameter, relative to PARAMETER_NAMESPACE",
		RunE:  opts.get,
	}

	put := &cobra.Command{
		Use:   "put <name> <value>",
		Short: "Store a parameter, relative to PARAMETER_NAMESPACE",
		RunE:  opts.put,
	}
	put.Flags().BoolVar(&opts.overwrite, "overwrite", true, "replace an existing value")

	cmd.AddCommand(get, put)
	return cmd
}

func (opts *paramsOpts) get(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return newUsageError("expected a parameter name")
	}

	app, err := opts.App()
	if err != nil {
		return err
	}
	defer opts.Close()

	v, err := app.Params.Get(cmd.Context(), domain.ParameterKey(app.Config.ParameterNamespace, args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), v)
	return nil
}

func (opts *paramsOpts) put(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return newUsageError("expected a parameter name and value")
	}

	app, err := opts.App()
	if err != nil {
		return err
	}
	defer opts.Close()

	return app.Params.Put(cmd.Context(), domain.ParameterKey(app.Config.ParameterNamespace, args[0]), args[1], opts.overwrite)
}
