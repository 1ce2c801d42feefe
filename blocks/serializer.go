package blocks

import "strings"

// Serialize renders a block list back into a document string.
func Serialize(list []Block) string {
	var b strings.Builder
	for i := range list {
		writeBlock(&b, &list[i])
	}
	return b.String()
}

// SerializeBlock renders a single block with its delimiters.
func SerializeBlock(block Block) string {
	var b strings.Builder
	writeBlock(&b, &block)
	return b.String()
}

func writeBlock(b *strings.Builder, block *Block) {
	content := innerContent(block)

	if block.Name == "" {
		b.WriteString(content)
		return
	}

	b.WriteString("<!-- wp:")
	b.WriteString(ShortName(block.Name))
	b.WriteByte(' ')
	if len(block.Attrs) > 0 {
		b.WriteString(block.Attrs.encode())
		b.WriteByte(' ')
	}

	if content == "" {
		b.WriteString("/-->")
		return
	}

	b.WriteString("-->")
	b.WriteString(content)
	b.WriteString("<!-- /wp:")
	b.WriteString(ShortName(block.Name))
	b.WriteString(" -->")
}

// innerContent joins the HTML chunks with the serialized children placed at
// their placeholders. A leaf without InnerContent falls back to InnerHTML.
func innerContent(block *Block) string {
	if len(block.InnerContent) == 0 {
		if len(block.InnerBlocks) == 0 {
			return block.InnerHTML
		}
		var b strings.Builder
		for i := range block.InnerBlocks {
			writeBlock(&b, &block.InnerBlocks[i])
		}
		return b.String()
	}

	var b strings.Builder
	child := 0
	for _, chunk := range block.InnerContent {
		if chunk != nil {
			b.WriteString(*chunk)
			continue
		}
		if child < len(block.InnerBlocks) {
			writeBlock(&b, &block.InnerBlocks[child])
			child++
		}
	}
	return b.String()
}
