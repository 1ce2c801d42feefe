// Package blocktl translates block-structured editorial content with LLM
// providers while keeping markup, nesting and non-text attributes intact.
//
// The root package holds the Translator capability (provider selection,
// credentials, quota) and the shared data model. Block walking lives in
// pipeline, back-translation scoring in quality and A/B runs in compare.
//
// Basic usage:
//
//	tr := blocktl.NewTranslator(
//	    blocktl.WithProvider(provider.NewOpenAIProvider(provider.OpenAIConfig{})),
//	    blocktl.WithCredentials(credential.NewEnvStore()),
//	    blocktl.WithUsage(store.NewUsageCounter(store.NewMemoryKV(), time.Local)),
//	)
//	bt := pipeline.NewBlockTranslator(tr)
//	res, err := bt.TranslateContent(ctx, content, "", "en", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.TranslatedContent)
package blocktl
