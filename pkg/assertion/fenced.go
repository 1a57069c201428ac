package assertion

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// FencedBlocks returns the contents of every fenced code block in
// the markdown source whose info string names one of the given
// languages (case-insensitive). Blocks are returned in document
// order.
func FencedBlocks(source string, languages ...string) []string {
	src := []byte(source)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var blocks []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if !languageMatches(string(block.Language(src)), languages) {
			return ast.WalkSkipChildren, nil
		}

		var sb strings.Builder
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(src))
		}
		blocks = append(blocks, sb.String())
		return ast.WalkSkipChildren, nil
	})

	return blocks
}

func languageMatches(lang string, languages []string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, l := range languages {
		if lang == l {
			return true
		}
	}
	return false
}
