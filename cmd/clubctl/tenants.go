package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexussuite/clubcore/internal/tenant"
)

func newTenantsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tenants",
		Aliases: []string{"tenant"},
		Short:   "List and administer tenants",
	}
	cmd.AddCommand(
		newTenantsListCommand(opts),
		newTenantsSuspendCommand(opts),
		newTenantsReactivateCommand(opts),
		newTenantsSyncCommand(opts),
		newTenantsDeleteCommand(opts),
	)
	return cmd
}

func newTenantsListCommand(opts *rootOptions) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tenants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			tenants, err := a.tenants.List(cmd.Context(), a.operator, limit, offset)
			if err != nil {
				return err
			}
			return a.printTenants(tenants...)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum tenants to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "tenants to skip")
	return cmd
}

func newTenantsSuspendCommand(opts *rootOptions) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "suspend TENANT_ID",
		Short: "Suspend a tenant, blocking every mutation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.tenants.Suspend(cmd.Context(), a.operator, args[0], reason)
			if err != nil {
				return err
			}
			return a.printTenants(t)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "suspension reason shown to members")
	return cmd
}

func newTenantsReactivateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reactivate TENANT_ID",
		Short: "Return a suspended tenant to active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.tenants.Reactivate(cmd.Context(), a.operator, args[0])
			if err != nil {
				return err
			}
			return a.printTenants(t)
		},
	}
}

func newTenantsSyncCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "sync-subscription TENANT_ID STATUS",
		Short:     "Apply a billing subscription status",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"trial", "active", "suspended", "canceled"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.tenants.SyncSubscription(cmd.Context(), a.operator, args[0], tenant.SubscriptionStatus(args[1]))
			if err != nil {
				return err
			}
			return a.printTenants(t)
		},
	}
}

func newTenantsDeleteCommand(opts *rootOptions) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "delete TENANT_ID",
		Short: "Permanently delete a tenant and its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("refusing to delete %s without --yes", args[0])
			}
			a, err := open(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.tenants.Delete(cmd.Context(), a.operator, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm the deletion")
	return cmd
}

func (a *app) printTenants(tenants ...*tenant.Tenant) error {
	if a.json {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(tenants)
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tSUSPENDED AT\tCREATED")
	for _, t := range tenants {
		suspended := "-"
		if t.SuspendedAt != nil {
			suspended = t.SuspendedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.SubscriptionStatus, suspended, t.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
