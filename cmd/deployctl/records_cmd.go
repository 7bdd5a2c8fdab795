package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type recordsOpts struct {
	*rootOpts
}

func newRecords(parent *rootOpts) *recordsOpts {
	return &recordsOpts{rootOpts: parent}
}

func (opts *recordsOpts) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "List DNS records kept by the sqlite DNS backend",
		RunE:  opts.RunE,
	}
}

func (opts *recordsOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return errorWantedNoArgs
	}

	app, err := opts.App()
	if err != nil {
		return err
	}
	defer opts.Close()

	repo := app.Records()
	if repo == nil {
		return newUsageError("records needs DNS_BACKEND=sqlite")
	}

	records, err := repo.List(cmd.Context(), app.Config.HostedZoneID)
	if err != nil {
		return err
	}

	out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(out, "NAME\tTYPE\tVALUE\tTTL\tUPDATED")
	for _, r := range records {
		fmt.Fprintf(out, "%s\t%s\t%s\t%d\t%s\n", r.Name, r.Type, r.Value, r.TTL, r.UpdatedAt)
	}
	return out.Flush()
}
