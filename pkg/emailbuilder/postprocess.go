package emailbuilder

import (
	"regexp"
	"strings"
)

var (
	htmlCommentPattern = regexp.MustCompile(`<!--[\s\S]*?-->`)
	whitespaceRuns     = regexp.MustCompile(`\s+`)
	interTagWhitespace = regexp.MustCompile(`>\s+<`)
)

// postProcess applies the output options to a rendered document.
func postProcess(doc string, opts RenderOptions) string {
	if opts.RemoveComments {
		doc = htmlCommentPattern.ReplaceAllString(doc, "")
	}
	if opts.Minify {
		doc = whitespaceRuns.ReplaceAllString(doc, " ")
		doc = interTagWhitespace.ReplaceAllString(doc, "><")
		doc = strings.TrimSpace(doc)
	}
	return doc
}
