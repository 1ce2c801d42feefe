package blocktl_test

import (
	"context"
	"strings"
	"testing"

	"github.com/ZaguanLabs/blocktl"
	"github.com/ZaguanLabs/blocktl/blocks"
	"github.com/ZaguanLabs/blocktl/credential"
	"github.com/ZaguanLabs/blocktl/pipeline"
	"github.com/ZaguanLabs/blocktl/processor"
	"github.com/ZaguanLabs/blocktl/provider"
)

// Benchmarks for performance validation

func BenchmarkHashText(b *testing.B) {
	text := "こんにちは、世界。これはハッシュ用のサンプルテキストです。"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		blocktl.HashText(text)
	}
}

func BenchmarkNormalizeText(b *testing.B) {
	text := "  こんにちは\r\n\r\n\r\n世界  \t "
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		blocktl.NormalizeText(text)
	}
}

func largeDoc(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString("<!-- wp:paragraph -->\n<p>こんにちは</p>\n<!-- /wp:paragraph -->\n\n")
		sb.WriteString(`<!-- wp:image {"id":5,"alt":"世界"} -->` + "\n")
		sb.WriteString(`<figure class="wp-block-image"><img src="a.png" alt="世界"/></figure>` + "\n")
		sb.WriteString("<!-- /wp:image -->\n\n")
	}
	return sb.String()
}

func BenchmarkBlocks_Parse(b *testing.B) {
	doc := largeDoc(50)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := blocks.Parse(doc); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBlocks_Serialize(b *testing.B) {
	list, err := blocks.Parse(largeDoc(50))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		blocks.Serialize(list)
	}
}

func BenchmarkHTMLProcessor_Extract(b *testing.B) {
	proc := processor.NewHTMLProcessor()
	html := `<div class="wp-block-group"><h2>見出し</h2>
	<p>これは<strong>段落</strong>です。</p>
	<ul><li>一つ目</li><li>二つ目</li><li>三つ目</li></ul>
	<figure><img src="cat.png" alt="猫"/><figcaption>猫の写真</figcaption></figure>
	<pre><code>fmt.Println("skip")</code></pre></div>`
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := proc.Extract(html); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTranslateContent(b *testing.B) {
	tr := blocktl.NewTranslator(
		blocktl.WithProvider(provider.NewMockProvider(provider.OpenAI)),
		blocktl.WithCredentials(credential.NewMemoryStore(map[string]string{provider.OpenAI: "sk-test"})),
	)
	bt := pipeline.NewBlockTranslator(tr)
	doc := largeDoc(20)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := bt.TranslateContent(ctx, doc, "", "en", ""); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGetLanguageName(b *testing.B) {
	langs := []string{"en", "en_US", "ja", "zh-cn", "fr"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		blocktl.GetLanguageName(langs[i%len(langs)])
	}
}
