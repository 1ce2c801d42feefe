// Command blocktl translates block-structured documents with LLM providers,
// scores them by back-translation and runs the review and A/B comparison
// workflows from the terminal or over HTTP.
package main

func main() {
	execute()
}
