package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZaguanLabs/blocktl"
	"github.com/ZaguanLabs/blocktl/docstore"
	"github.com/spf13/cobra"
)

type docOptions struct {
	lang     string
	provider string
	show     bool
}

func newDocCmd(global *globalOptions) *cobra.Command {
	opts := &docOptions{}
	cmd := &cobra.Command{
		Use:   "doc <document-id>",
		Short: "Translate a stored document and park it for approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, global, func(ctx context.Context, a *app) error {
				if opts.show {
					pending, err := a.review.Pending(ctx, args[0])
					if err != nil {
						return err
					}
					return printPending(ctx, cmd, a, global, pending)
				}
				if opts.lang == "" {
					return fmt.Errorf("--lang is required")
				}
				pending, err := a.review.Translate(ctx, args[0], opts.lang, opts.provider)
				if err != nil {
					return err
				}
				return printPending(ctx, cmd, a, global, pending)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "", "Target language")
	cmd.Flags().StringVarP(&opts.provider, "provider", "p", "", "Provider id (default from config)")
	cmd.Flags().BoolVar(&opts.show, "show", false, "Show the pending translation instead of translating")
	return cmd
}

func printPending(ctx context.Context, cmd *cobra.Command, a *app, global *globalOptions, p *blocktl.PendingApproval) error {
	out := cmd.OutOrStdout()
	if global.jsonOut {
		return printJSON(out, p)
	}
	res := p.TranslationResult
	fmt.Fprintf(out, "Pending translation for document %s\n", p.DocumentID)
	fmt.Fprintf(out, "  Language:   %s\n", res.TargetLanguage)
	fmt.Fprintf(out, "  Provider:   %s\n", p.Provider)
	fmt.Fprintf(out, "  Quality:    %s\n", formatScore(p.QualityScore))
	if res.TranslatedTitle != "" {
		fmt.Fprintf(out, "  Title:      %s\n", res.TranslatedTitle)
	}
	if p.ComparisonID != "" {
		fmt.Fprintf(out, "  Comparison: %s\n", p.ComparisonID)
	}
	if stale, err := a.review.Stale(ctx, p); err == nil && stale {
		fmt.Fprintln(out, "  Warning:    the source document changed after this translation")
	}
	fmt.Fprintf(out, "\n%s\n", res.TranslatedContent)
	return nil
}

type compareOptions struct {
	lang    string
	history bool
}

func newCompareCmd(global *globalOptions) *cobra.Command {
	opts := &compareOptions{}
	cmd := &cobra.Command{
		Use:   "compare <document-id>",
		Short: "Translate a stored document with the first two available providers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, global, func(ctx context.Context, a *app) error {
				if opts.history {
					list, err := a.comparator.History(ctx, args[0], 0)
					if err != nil {
						return err
					}
					if global.jsonOut {
						return printJSON(cmd.OutOrStdout(), list)
					}
					for _, c := range list {
						printComparison(cmd, c)
					}
					return nil
				}
				if opts.lang == "" {
					return fmt.Errorf("--lang is required")
				}
				c, err := a.comparator.Run(ctx, args[0], opts.lang)
				if err != nil {
					return err
				}
				if global.jsonOut {
					return printJSON(cmd.OutOrStdout(), c)
				}
				printComparison(cmd, c)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "", "Target language")
	cmd.Flags().BoolVar(&opts.history, "history", false, "List recent comparisons of the document")
	return cmd
}

func printComparison(cmd *cobra.Command, c *blocktl.Comparison) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Comparison %s (document %s -> %s, %s)\n", c.ID, c.DocumentID, c.TargetLanguage, c.Status)
	for _, id := range c.Providers {
		res := c.Results[id]
		marker := " "
		if id == c.SelectedProvider {
			marker = "*"
		}
		if res.Failed() {
			fmt.Fprintf(out, " %s %-8s failed: %s\n", marker, id, res.ErrorCode)
			continue
		}
		fmt.Fprintf(out, " %s %-8s quality %s", marker, id, formatScore(res.QualityScore))
		if res.BackTranslationError != "" {
			fmt.Fprint(out, " (back-translation failed)")
		}
		fmt.Fprintln(out)
	}
}

func newSelectCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "select <comparison-id> <provider>",
		Short: "Commit one provider's comparison result as the pending translation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, global, func(ctx context.Context, a *app) error {
				pending, err := a.comparator.Select(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if global.jsonOut {
					return printJSON(cmd.OutOrStdout(), pending)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Selected %s for document %s; run approve to publish.\n", pending.Provider, pending.DocumentID)
				return nil
			})
		},
	}
}

func newApproveCmd(global *globalOptions) *cobra.Command {
	var discard bool
	cmd := &cobra.Command{
		Use:   "approve <document-id>",
		Short: "Publish the pending translation of a document as its localized page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, global, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				if discard {
					if err := a.review.Discard(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(out, "Discarded pending translation for document %s.\n", args[0])
					return nil
				}
				page, err := a.review.Approve(ctx, args[0])
				if err != nil {
					return err
				}
				if global.jsonOut {
					return printJSON(out, page)
				}
				fmt.Fprintf(out, "Published %s (%s): %s\n", page.ID, page.Language, page.Title)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&discard, "discard", false, "Discard the pending translation instead")
	return cmd
}

type importOptions struct {
	id    string
	title string
}

func newImportCmd(global *globalOptions) *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Store a block document so doc and compare can translate it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			page := &docstore.Page{ID: opts.id, Title: opts.title, Content: content}
			if page.ID == "" {
				page.ID = base
			}
			if page.Title == "" {
				page.Title = base
			}

			return withApp(cmd, global, func(ctx context.Context, a *app) error {
				created, err := a.docs.Save(ctx, page)
				if err != nil {
					return err
				}
				if global.jsonOut {
					return printJSON(cmd.OutOrStdout(), page)
				}
				verb := "Updated"
				if created {
					verb = "Imported"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s document %s (%s)\n", verb, page.ID, page.Title)

				localized, err := a.docs.Localized(ctx, page.ID)
				if err == nil && len(localized) > 0 {
					langs := make([]string, 0, len(localized))
					for _, p := range localized {
						langs = append(langs, p.Language)
					}
					sort.Strings(langs)
					fmt.Fprintf(cmd.OutOrStdout(), "  Localized: %s\n", strings.Join(langs, ", "))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.id, "id", "", "Document id (default: file name)")
	cmd.Flags().StringVar(&opts.title, "title", "", "Document title (default: file name)")
	return cmd
}
