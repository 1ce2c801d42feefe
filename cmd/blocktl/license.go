package main

import (
	"context"
	"fmt"
	"io"

	"github.com/ZaguanLabs/blocktl/license"
	"github.com/spf13/cobra"
)

func newLicenseCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "license",
		Short: "Show or change the delivery expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLicense(cmd, global, func(ctx context.Context, m *license.Manager) (license.Info, error) {
				return m.Info(ctx)
			})
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show delivery and expiry dates",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLicense(cmd, global, func(ctx context.Context, m *license.Manager) (license.Info, error) {
					return m.Info(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "deliver",
			Short: "Mark delivery now and start the expiry countdown",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLicense(cmd, global, func(ctx context.Context, m *license.Manager) (license.Info, error) {
					return m.MarkDelivered(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "extend",
			Short: "Extend the expiry once",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLicense(cmd, global, func(ctx context.Context, m *license.Manager) (license.Info, error) {
					return m.Extend(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Delete stored keys and the expiry state immediately",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLicense(cmd, global, func(ctx context.Context, m *license.Manager) (license.Info, error) {
					if err := m.EmergencyStop(ctx); err != nil {
						return license.Info{}, err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Emergency stop executed. Keychain keys deleted.")
					return m.Info(ctx)
				})
			},
		},
	)
	return cmd
}

func runLicense(cmd *cobra.Command, global *globalOptions, fn func(context.Context, *license.Manager) (license.Info, error)) error {
	return withApp(cmd, global, func(ctx context.Context, a *app) error {
		info, err := fn(ctx, a.license)
		if err != nil {
			return err
		}
		if global.jsonOut {
			return printJSON(cmd.OutOrStdout(), info)
		}
		printLicense(cmd.OutOrStdout(), info)
		return nil
	})
}

func printLicense(out io.Writer, info license.Info) {
	if info.ExpiryDate.IsZero() {
		fmt.Fprintln(out, "Expiry:    not set")
	} else {
		fmt.Fprintf(out, "Delivered: %s\n", info.DeliveryDate.Local().Format("2006-01-02"))
		fmt.Fprintf(out, "Expires:   %s\n", info.ExpiryDate.Local().Format("2006-01-02"))
		if info.Expired {
			fmt.Fprintln(out, "Status:    expired")
		} else {
			fmt.Fprintf(out, "Status:    %d days remaining\n", info.RemainingDays)
		}
	}
	used := "available"
	if info.ExtensionUsed {
		used = "used"
	}
	fmt.Fprintf(out, "Extension: %s\n", used)
}
