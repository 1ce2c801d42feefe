package main

import (
	"context"
	"fmt"

	"github.com/ZaguanLabs/blocktl"
	"github.com/spf13/cobra"
)

type providerStatus struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Default   bool   `json:"default"`
}

func newProvidersCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List providers and whether an API key is configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, global, func(ctx context.Context, a *app) error {
				available := make(map[string]bool)
				for _, p := range a.tr.AvailableProviders() {
					available[p.ID] = true
				}
				var list []providerStatus
				for _, p := range a.tr.Providers() {
					list = append(list, providerStatus{
						ID:        p.ID,
						Name:      p.Name,
						Available: available[p.ID],
						Default:   p.ID == a.tr.DefaultProvider(),
					})
				}

				out := cmd.OutOrStdout()
				if global.jsonOut {
					return printJSON(out, list)
				}
				for _, p := range list {
					state := "no key"
					if p.Available {
						state = "ready"
					}
					marker := " "
					if p.Default {
						marker = "*"
					}
					fmt.Fprintf(out, "%s %-8s %-20s %s\n", marker, p.ID, p.Name, state)
				}
				if err := a.tr.CheckAvailable(ctx); err != nil {
					fmt.Fprintln(out, "\nTranslation is currently unavailable (expired or no key stored).")
				}
				return nil
			})
		},
	}
}

func newUsageCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show translations used today and this month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, global, func(ctx context.Context, a *app) error {
				stats, err := a.tr.UsageStats(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if global.jsonOut {
					return printJSON(out, stats)
				}
				fmt.Fprintf(out, "Today:      %s\n", formatUsage(stats.DailyUsage, stats.DailyLimit))
				fmt.Fprintf(out, "This month: %s\n", formatUsage(stats.MonthlyUsage, stats.MonthlyLimit))
				return nil
			})
		},
	}
}

func formatUsage(used, limit int64) string {
	if limit <= 0 {
		return fmt.Sprintf("%d (unlimited)", used)
	}
	return fmt.Sprintf("%d / %d", used, limit)
}

func newVersionCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := blocktl.Build()
			out := cmd.OutOrStdout()
			if global.jsonOut {
				return printJSON(out, info)
			}
			fmt.Fprintf(out, "%s %s\n", info.Name, info.Version)
			if info.GitCommit != "" {
				fmt.Fprintf(out, "  commit:  %s\n", info.GitCommit)
			}
			if info.BuildDate != "" {
				fmt.Fprintf(out, "  built:   %s\n", info.BuildDate)
			}
			fmt.Fprintf(out, "  go:      %s\n", info.GoVersion)
			return nil
		},
	}
}
