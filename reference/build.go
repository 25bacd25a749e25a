package reference

import (
	"fmt"
	"regexp"
	"strings"
)

// build folds classified fields into a Reference, applying fallback rules for
// incomplete or ambiguous classification. It returns warnings describing
// applied fallbacks, for operator-visible logging.
func build(anchor, text string, fields []Field) (Reference, []string) {
	rec := Reference{Anchor: anchor}
	var warnings []string
	var venue, unstructured []string

	structured := 0
	for _, f := range fields {
		switch f.Role {
		case RoleAuthor:
			rec.Authors = append(rec.Authors, parseAuthors(f.Text)...)
			structured++
		case RoleTitle:
			if rec.Title == "" {
				rec.Title = f.Text
			} else {
				// A repeated quoted span, e.g. a subtitle. Demote to venue text.
				venue = append(venue, f.Text)
				warnings = append(warnings, "extra quoted text demoted to venue")
			}
			structured++
		case RoleVenue:
			venue = append(venue, f.Text)
			structured++
		case RoleDate:
			if d, ok := parseDate(f.Text); ok && rec.Date.IsZero() {
				rec.Date = d
				structured++
			} else if !rec.Date.IsZero() {
				venue = append(venue, f.Text)
				warnings = append(warnings, "extra date demoted to venue")
			}
		case RoleLocator:
			if rec.Target == "" {
				rec.Target = f.Text
				structured++
			} else {
				unstructured = append(unstructured, f.Text)
				warnings = append(warnings, "extra locator kept as unstructured text")
			}
		case RoleSeries:
			if s, ok := parseSeries(f.Text); ok {
				rec.Series = append(rec.Series, s)
				structured++
			}
		default:
			unstructured = append(unstructured, f.Text)
		}
	}

	rec.Venue = strings.Join(venue, ", ")
	if structured == 0 {
		// Nothing recognizable. The whole entry becomes the unstructured
		// payload so no text is lost.
		rec.Unstructured = text
		rec.Degraded = true
		if text != "" {
			warnings = append(warnings, "no recognizable structure, keeping entry as unstructured text")
		}
	} else if len(unstructured) > 0 {
		rec.Unstructured = strings.Join(unstructured, ". ")
		rec.Degraded = true
		warnings = append(warnings, fmt.Sprintf("%d segment(s) not classified", len(unstructured)))
	}
	if len(fields) == 0 {
		rec.Degraded = true
	}
	return rec, warnings
}

var surnameInitialsRe = regexp.MustCompile(`^(\p{Lu}[\p{L}'’-]*(?: \p{Lu}[\p{L}'’-]*)?), ((?:\p{Lu}\.)+(?:[ -](?:\p{Lu}\.)+)*)$`)

// parseAuthors splits an author field on "and" and derives surname/initials
// from the common shapes. The comma convention writes "Surname, I.", the
// period convention also has "I. Surname" and "Firstname Lastname".
func parseAuthors(text string) []Author {
	text = etAlRe.ReplaceAllString(text, "")
	var authors []Author
	for _, part := range strings.Split(text, " and ") {
		part = strings.TrimSuffix(strings.TrimSpace(part), ",")
		if part == "" {
			continue
		}
		var a Author
		if s := editorSuffixRe.FindString(part); s != "" {
			a.Editor = true
			part = strings.TrimSpace(strings.TrimSuffix(part, s))
		}
		if m := surnameInitialsRe.FindStringSubmatch(part); m != nil {
			a.Surname = m[1]
			a.Initials = m[2]
			a.Fullname = m[2] + " " + m[1]
		} else if i := strings.LastIndexByte(part, ' '); i > 0 && initialsRe.MatchString(part[:i]) {
			a.Initials = part[:i]
			a.Surname = part[i+1:]
			a.Fullname = part
		} else {
			a.Fullname = strings.TrimSuffix(part, ".")
		}
		authors = append(authors, a)
	}
	return authors
}

var editorSuffixRe = regexp.MustCompile(`,? \(?Eds?\.\)?$`)
