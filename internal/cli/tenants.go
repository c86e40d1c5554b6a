package cli

import (
	"github.com/spf13/cobra"

	"github.com/prohmpiriya/servus/internal/maintenance"
)

func newCheckCommand(opts *RootOptions, connect Connector) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report data problems without changing anything",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "tenants",
		Short: "List tenantId values that are legacy document ids or match no tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), connect, func(s *Store) error {
				checker := maintenance.NewTenantChecker(s.Tenants, s.References, s.Collections)
				report, err := checker.Check(cmd.Context())
				if err != nil {
					return err
				}
				return writeTenantReport(cmd.OutOrStdout(), opts.Output, report)
			})
		},
	})
	return cmd
}

func newFixCommand(opts *RootOptions, connect Connector) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Repair data problems",
	}

	var apply bool
	tenants := &cobra.Command{
		Use:   "tenants",
		Short: "Rewrite legacy tenantId values to the external tenant id",
		Long: `Rewrite legacy tenantId values to the external tenant id.

Without --apply the command only prints what it would change. Orphan
references are reported but never touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), connect, func(s *Store) error {
				checker := maintenance.NewTenantChecker(s.Tenants, s.References, s.Collections)
				report, err := checker.Fix(cmd.Context(), apply)
				if report != nil {
					if werr := writeTenantReport(cmd.OutOrStdout(), opts.Output, report); werr != nil && err == nil {
						err = werr
					}
				}
				return err
			})
		},
	}
	tenants.Flags().BoolVar(&apply, "apply", false, "write the changes")
	cmd.AddCommand(tenants)
	return cmd
}
