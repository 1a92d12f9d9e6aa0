package acquire

import (
	"html"
	"regexp"
	"strings"
)

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag          = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	paragraphTag      = regexp.MustCompile(`(?is)<p(?:\s[^>]*)?>(.*?)</p>`)
	parserOutput      = regexp.MustCompile(`(?is)<div[^>]*class="[^"]*\bmw-parser-output\b[^"]*"[^>]*>`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	multiSpaces       = regexp.MustCompile(`[ \t]+`)
	multiNewlines     = regexp.MustCompile(`\n{3,}`)

	mdImages      = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLinks       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeadings    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdBlockquote  = regexp.MustCompile(`(?m)^>\s?`)
	mdRule        = regexp.MustCompile(`(?m)^\s*([-*_])(\s*([-*_])){2,}\s*$`)
	mdEmphasis    = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	mdCodeFence   = regexp.MustCompile("(?m)^```.*$")
	mdFrontMatter = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
)

// extractText returns the chapter prose of an HTML page.
// Paragraphs inside a MediaWiki content block are preferred, then every
// paragraph on the page, then the whole page with tags stripped.
func extractText(page string) string {
	page = removeNoise(page)

	if loc := parserOutput.FindStringIndex(page); loc != nil {
		if text := paragraphs(page[loc[1]:]); text != "" {
			return text
		}
	}
	if text := paragraphs(page); text != "" {
		return text
	}
	return stripHTML(page)
}

// paragraphs joins the text of every <p> element, one per line.
func paragraphs(page string) string {
	var out []string
	for _, m := range paragraphTag.FindAllStringSubmatch(page, -1) {
		if text := inlineText(m[1]); text != "" {
			out = append(out, text)
		}
	}
	return strings.Join(out, "\n")
}

// inlineText flattens an HTML fragment to a single line of text.
func inlineText(fragment string) string {
	fragment = brTags.ReplaceAllString(fragment, " ")
	fragment = allTags.ReplaceAllString(fragment, "")
	fragment = html.UnescapeString(fragment)
	return strings.Join(strings.Fields(fragment), " ")
}

func removeNoise(content string) string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	return htmlComments.ReplaceAllString(content, "")
}

// htmlTitle extracts the <title> of a page, or "".
func htmlTitle(page string) string {
	matches := titleTag.FindStringSubmatch(page)
	if len(matches) < 2 {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(matches[1]))
}

// stripHTML removes HTML tags and extracts readable text content.
func stripHTML(content string) string {
	content = headTag.ReplaceAllString(removeNoise(content), "")

	// Block elements become line breaks
	content = openBlockElements.ReplaceAllString(content, "\n")
	content = blockElements.ReplaceAllString(content, "\n")
	content = brTags.ReplaceAllString(content, "\n")

	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	// Trim each line and remove empty lines
	lines := strings.Split(content, "\n")
	var result []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}

// markdownTitle returns the first H1 heading, or "".
func markdownTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}

// stripMarkdown removes markup but keeps prose and paragraph breaks.
// Single underscores and asterisks are kept.
func stripMarkdown(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = mdFrontMatter.ReplaceAllString(content, "")
	content = mdCodeFence.ReplaceAllString(content, "")
	content = mdImages.ReplaceAllString(content, "")
	content = mdLinks.ReplaceAllString(content, "$1")
	content = mdHeadings.ReplaceAllString(content, "")
	content = mdRule.ReplaceAllString(content, "")
	content = mdEmphasis.ReplaceAllString(content, "$2")
	content = mdBlockquote.ReplaceAllString(content, "")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
