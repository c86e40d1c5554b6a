// Package cli implements servusctl, the operator tool for data repairs.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prohmpiriya/servus/internal/maintenance"
	"github.com/prohmpiriya/servus/pkg/security"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Output string // "yaml" | "text"
}

// ValidOutputs defines the allowed output formats.
var ValidOutputs = []string{"text", "yaml"}

// Store is what the maintenance commands operate on.
type Store struct {
	Tenants     maintenance.TenantLister
	References  maintenance.ReferenceStore
	Users       maintenance.UserStore
	Collections []string
	Hasher      *security.Hasher
	Close       func(ctx context.Context) error
}

// Connector opens a Store. Tests inject fakes through it.
type Connector func(ctx context.Context) (*Store, error)

// NewRootCommand creates the servusctl root command.
func NewRootCommand(connect Connector) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "servusctl",
		Short: "Servus maintenance tool",
		Long:  "Inspect and repair Servus data directly in MongoDB.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidOutput(opts.Output) {
				return fmt.Errorf("invalid output %q: must be one of %v", opts.Output, ValidOutputs)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "text", "output format (yaml|text)")

	cmd.AddCommand(newCheckCommand(opts, connect))
	cmd.AddCommand(newFixCommand(opts, connect))
	cmd.AddCommand(newUserCommand(opts, connect))

	return cmd
}

func isValidOutput(output string) bool {
	for _, o := range ValidOutputs {
		if o == output {
			return true
		}
	}
	return false
}

// withStore opens a store, runs fn and closes the store.
func withStore(ctx context.Context, connect Connector, fn func(*Store) error) error {
	store, err := connect(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if store.Close != nil {
		defer store.Close(context.WithoutCancel(ctx))
	}
	return fn(store)
}
