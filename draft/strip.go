package draft

import (
	"regexp"
	"strings"
)

var (
	// "Levkowetz                Expires September 7, 2017               [Page 3]"
	footerRe = regexp.MustCompile(`\[ *[Pp]age +[0-9ivxlcIVXLC]+ *\] *$`)
	// "Internet-Draft                    id2xml                      March 2017"
	headerPrefixRe = regexp.MustCompile(`^(?:RFC +\d+|Internet-Draft|draft-[^ ]+)\b`)
	threeColumnRe  = regexp.MustCompile(`^\S.*   +\S.*   +\S`)
)

func isPageHeader(line string) bool {
	return headerPrefixRe.MatchString(line) || threeColumnRe.MatchString(line)
}

// Strip removes page formatting from a text-format RFC or Internet-Draft:
// form feeds, the page footer before each break, the page header after it,
// and the blank lines around them, yielding continuous text. Tolerant of
// input that has no page formatting at all, which passes through unchanged.
func Strip(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	dropTrailingBlank := func() {
		for len(out) > 0 && out[len(out)-1] == "" {
			out = out[:len(out)-1]
		}
	}
	i := 0
	for i < len(lines) {
		line := strings.TrimRight(lines[i], " \r")
		if !strings.Contains(line, "\f") {
			out = append(out, line)
			i++
			continue
		}

		// Page break. Drop the footer before it and the header after it.
		dropTrailingBlank()
		if len(out) > 0 && footerRe.MatchString(out[len(out)-1]) {
			out = out[:len(out)-1]
		}
		dropTrailingBlank()
		i++
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
		if i < len(lines) && isPageHeader(strings.TrimRight(lines[i], " \r")) {
			i++
			for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
				i++
			}
		}
		if len(out) > 0 {
			out = append(out, "")
		}
	}
	return strings.Join(out, "\n")
}
