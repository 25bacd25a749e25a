// Package draft locates the references sections of text-format RFCs and
// Internet-Drafts and extracts the bracket-anchored reference blocks from
// them, in document order.
//
// Anchor uniqueness is a document-level invariant and checked here, in a
// single pass, so duplicate detection is deterministic no matter how blocks
// are processed afterwards. A duplicate anchor is the one hard error of a
// conversion; everything wrong inside an individual entry is handled by the
// tolerant reference parser instead.
package draft

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Block is the raw multi-line text of one reference entry, as extracted.
type Block struct {
	Anchor string // Citation label without the brackets, e.g. "RFC2119".
	Text   string // Entry text with the label and leading indent removed.
	Line   int    // 1-based line number in the stripped text, for diagnostics.
}

// Section is one references section, e.g. "Normative References", with its
// blocks in document order.
type Section struct {
	Title  string
	Blocks []Block
}

// DuplicateAnchorError is returned when two reference entries in one document
// share an anchor. It aborts the conversion of that document.
type DuplicateAnchorError struct {
	Anchor string
	Line   int // Line of the second occurrence.
}

func (e DuplicateAnchorError) Error() string {
	return fmt.Sprintf("duplicate reference anchor %q (line %d)", e.Anchor, e.Line)
}

// ErrNoReferences indicates the document has no recognizable references
// section.
var ErrNoReferences = errors.New("no references section found")

var (
	// "7. References", "7.1.  Normative References", "A.2. Informative References".
	referencesHeadingRe = regexp.MustCompile(`^(?:(?:\d+|[A-Z])(?:\.\d+)*\.?[ \t]+)?((?:Normative|Informative) References|References)[ \t]*$`)
	// Any other numbered section heading or end-matter heading ends the section.
	sectionEndRe = regexp.MustCompile(`^(?:(?:\d+|[A-Z])(?:\.\d+)*\.?[ \t]+\S|Appendix\b|Authors?' Addresses?\b|Author's Address\b|Acknowledg|Contributors\b|Index\b)`)
	blockStartRe = regexp.MustCompile(`^( {0,8})\[([^\]]+)\][ \t]+(\S.*)$`)
)

// References strips page formatting from text and extracts its references
// sections. The error is ErrNoReferences or a DuplicateAnchorError; malformed
// entry text is not an error, it is handed to the reference parser as is.
func References(text string) ([]Section, error) {
	lines := strings.Split(Strip(text), "\n")

	var sections []Section
	var cur *Section
	var block *Block
	anchors := map[string]bool{}

	flush := func() {
		if block != nil && cur != nil {
			cur.Blocks = append(cur.Blocks, *block)
		}
		block = nil
	}

	for i, line := range lines {
		line = strings.TrimRight(line, " \t")
		if m := referencesHeadingRe.FindStringSubmatch(line); m != nil {
			flush()
			sections = append(sections, Section{Title: m[1]})
			cur = &sections[len(sections)-1]
			continue
		}
		if cur == nil {
			continue
		}
		if sectionEndRe.MatchString(line) {
			flush()
			cur = nil
			continue
		}
		if m := blockStartRe.FindStringSubmatch(line); m != nil {
			flush()
			anchor := strings.TrimSpace(m[2])
			if anchors[anchor] {
				return nil, DuplicateAnchorError{Anchor: anchor, Line: i + 1}
			}
			anchors[anchor] = true
			block = &Block{Anchor: anchor, Text: m[3], Line: i + 1}
			continue
		}
		if block == nil {
			continue
		}
		if strings.TrimSpace(line) == "" {
			// Keep the block open: Strip joins pages with a blank line, so an
			// entry continuing on the next page resumes after one. The next
			// entry's anchor line or the section end flushes.
			continue
		}
		if strings.HasPrefix(line, " ") {
			block.Text += "\n" + strings.TrimSpace(line)
			continue
		}
		// Unindented prose, not part of the entry.
		flush()
	}
	flush()

	if len(sections) == 0 {
		return nil, ErrNoReferences
	}
	return sections, nil
}
