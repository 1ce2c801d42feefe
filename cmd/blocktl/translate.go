package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ZaguanLabs/blocktl"
	"github.com/spf13/cobra"
)

type translateOptions struct {
	lang     string
	provider string
	back     bool
	evaluate bool
}

func newTranslateCmd(global *globalOptions) *cobra.Command {
	opts := &translateOptions{}
	cmd := &cobra.Command{
		Use:   "translate [text]",
		Short: "Translate a plain text (stdin when no argument is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				in, err := readInput(cmd, "")
				if err != nil {
					return err
				}
				text = in
			}
			return withApp(cmd, global, func(ctx context.Context, a *app) error {
				return runTranslate(ctx, cmd, a, global, opts, text)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "", "Target language (source language with --back)")
	cmd.Flags().StringVarP(&opts.provider, "provider", "p", "", "Provider id (default from config)")
	cmd.Flags().BoolVar(&opts.back, "back", false, "Back-translate into the source language instead")
	cmd.Flags().BoolVar(&opts.evaluate, "evaluate", false, "Back-translate the result and print a quality score")
	return cmd
}

func runTranslate(ctx context.Context, cmd *cobra.Command, a *app, global *globalOptions, opts *translateOptions, text string) error {
	out := cmd.OutOrStdout()

	if opts.back {
		res, err := a.tr.BackTranslate(ctx, text, opts.lang, opts.provider)
		if err != nil {
			return err
		}
		if global.jsonOut {
			return printJSON(out, res)
		}
		fmt.Fprintln(out, res.BackTranslatedText)
		return nil
	}

	if opts.lang == "" {
		return fmt.Errorf("--lang is required")
	}
	unit, err := a.tr.Translate(ctx, text, opts.lang, opts.provider)
	if err != nil {
		return err
	}

	var ev *blocktl.Evaluation
	if opts.evaluate {
		e := a.eval.EvaluateText(ctx, unit.OriginalText, unit.TranslatedText, unit.Provider)
		ev = &e
	}

	if global.jsonOut {
		return printJSON(out, struct {
			*blocktl.TranslationUnit
			Evaluation *blocktl.Evaluation `json:"evaluation,omitempty"`
		}{unit, ev})
	}
	fmt.Fprintln(out, unit.TranslatedText)
	if ev != nil {
		printEvaluation(cmd, *ev)
	}
	return nil
}

type blockOptions struct {
	lang     string
	provider string
	title    string
	output   string
	evaluate bool
	quiet    bool
}

func newBlockCmd(global *globalOptions) *cobra.Command {
	opts := &blockOptions{}
	cmd := &cobra.Command{
		Use:   "block [file]",
		Short: "Translate a block document file, keeping its block structure",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.lang == "" {
				return fmt.Errorf("--lang is required")
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			content, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			return withApp(cmd, global, func(ctx context.Context, a *app) error {
				return runBlock(ctx, cmd, a, global, opts, content)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "", "Target language")
	cmd.Flags().StringVarP(&opts.provider, "provider", "p", "", "Provider id (default from config)")
	cmd.Flags().StringVar(&opts.title, "title", "", "Document title to translate along")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.evaluate, "evaluate", false, "Back-translate the result and print a quality score")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress progress output")
	return cmd
}

func runBlock(ctx context.Context, cmd *cobra.Command, a *app, global *globalOptions, opts *blockOptions, content string) error {
	stderr := cmd.ErrOrStderr()
	if !opts.quiet && !global.jsonOut {
		fmt.Fprintf(stderr, "Translating to %s...\n", opts.lang)
	}

	start := time.Now()
	res, err := a.bt.TranslateContent(ctx, content, opts.title, opts.lang, opts.provider)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	elapsed := time.Since(start)

	var ev *blocktl.Evaluation
	if opts.evaluate {
		e := a.eval.Evaluate(ctx, res, res.Provider)
		ev = &e
	}

	out := cmd.OutOrStdout()
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if global.jsonOut {
		return printJSON(out, struct {
			*blocktl.DocumentTranslationResult
			Evaluation *blocktl.Evaluation `json:"evaluation,omitempty"`
			ElapsedMs  int64               `json:"elapsed_ms"`
		}{res, ev, elapsed.Milliseconds()})
	}

	fmt.Fprint(out, res.TranslatedContent)
	if opts.output == "" {
		fmt.Fprintln(out)
	}
	if !opts.quiet {
		fmt.Fprintf(stderr, "\nDone in %v\n", elapsed.Round(time.Millisecond))
		fmt.Fprintf(stderr, "  Provider:   %s\n", res.Provider)
		fmt.Fprintf(stderr, "  Blocks:     %d\n", len(res.Blocks))
		fmt.Fprintf(stderr, "  Segments:   %d\n", len(res.ChangeLog))
		if res.TranslatedTitle != "" {
			fmt.Fprintf(stderr, "  Title:      %s\n", res.TranslatedTitle)
		}
	}
	if ev != nil {
		printEvaluation(cmd, *ev)
	}
	return nil
}

func printEvaluation(cmd *cobra.Command, ev blocktl.Evaluation) {
	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "  Quality:    %.1f\n", ev.QualityScore)
	if ev.BackTranslationError != "" {
		fmt.Fprintf(stderr, "  Back-translation failed: %s\n", ev.BackTranslationError)
	}
}

func newExtractCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extract [file]",
		Short: "List the text segments a translation would send, without calling a provider",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			content, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			return withApp(cmd, global, func(ctx context.Context, a *app) error {
				segments, err := a.bt.Extract(ctx, content)
				if err != nil {
					return fmt.Errorf("extracting text: %w", err)
				}
				out := cmd.OutOrStdout()
				if global.jsonOut {
					return printJSON(out, struct {
						Count    int                      `json:"count"`
						Segments []blocktl.ChangeLogEntry `json:"segments"`
					}{len(segments), segments})
				}

				fmt.Fprintf(out, "Found %d translatable segments:\n\n", len(segments))
				for i, s := range segments {
					fmt.Fprintf(out, "%3d. %q\n", i+1, truncate(s.Original, 60))
					where := s.BlockType
					if s.Attribute != "" {
						where += " @" + s.Attribute
					}
					if where != "" {
						fmt.Fprintf(out, "     Block: %s\n", where)
					}
				}
				return nil
			})
		},
	}
}
