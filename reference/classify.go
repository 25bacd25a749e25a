package reference

import (
	"regexp"
	"strconv"
	"strings"
)

// Classification is strictly local: shape rules are applied per segment in
// priority order, then a positional pass assigns author and venue roles based
// on where unclassified segments sit relative to the structured ones. There
// is no backtracking across the entry. An ambiguous segment stays
// unstructured: an over-confident misclassification is worse than an honest
// unstructured bucket.

// A shape rule maps a predicate to the role it assigns. First match wins.
type shapeRule struct {
	role  Role
	match func(string) bool
}

var shapeRules = []shapeRule{
	{RoleTitle, isQuoted},
	{RoleLocator, isLocator},
	{RoleDate, isDate},
	{RoleSeries, isSeries},
}

// classify assigns each segment a role and returns the resulting fields with
// normalized text, in segment order.
func classify(segs []Segment) []Field {
	// First the shape rules.
	for i := range segs {
		for _, r := range shapeRules {
			if r.match(segs[i].Text) {
				segs[i].Role = r.role
				break
			}
		}
	}

	// Positions of the structured classifications, for the positional pass.
	firstStructured := -1
	titleIdx := -1
	trailerIdx := len(segs) // First date/locator at or after the title.
	for i, s := range segs {
		switch s.Role {
		case RoleTitle:
			if firstStructured < 0 {
				firstStructured = i
			}
			if titleIdx < 0 {
				titleIdx = i
			}
		case RoleDate, RoleLocator:
			if firstStructured < 0 {
				firstStructured = i
			}
			if i > titleIdx && i < trailerIdx {
				trailerIdx = i
			}
		}
	}

	// Name-like segments before the first title/date/locator are authors.
	// Unclassified segments between the title and the date/locator are venue
	// text. Anything else stays unstructured.
	for i := range segs {
		if segs[i].Role != RoleUnknown {
			continue
		}
		switch {
		case firstStructured >= 0 && i < firstStructured && nameLike(segs[i].Text):
			segs[i].Role = RoleAuthor
		case titleIdx >= 0 && i > titleIdx && i < trailerIdx:
			segs[i].Role = RoleVenue
		default:
			segs[i].Role = RoleUnstructured
		}
	}

	fields := make([]Field, len(segs))
	for i, s := range segs {
		fields[i] = Field{s.Role, normalizeField(s.Role, s.Text)}
	}
	return fields
}

// normalizeField strips role-specific decoration: quotes around a title,
// angle brackets around a locator, trailing entry punctuation.
func normalizeField(role Role, text string) string {
	switch role {
	case RoleTitle:
		text = strings.TrimSuffix(text, ",")
		text = strings.TrimSuffix(text, ".")
		if len(text) >= 2 {
			if strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
				text = text[1 : len(text)-1]
			} else if strings.HasPrefix(text, "“") && strings.HasSuffix(text, "”") {
				text = strings.TrimSuffix(strings.TrimPrefix(text, "“"), "”")
			}
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), ",")
	case RoleLocator:
		text = strings.TrimSuffix(text, ".")
		text = strings.TrimSuffix(strings.TrimPrefix(text, "<"), ">")
	case RoleDate, RoleVenue, RoleSeries:
		text = strings.TrimSuffix(text, ".")
	}
	return strings.TrimSpace(text)
}

func isQuoted(s string) bool {
	s = strings.TrimRight(s, ".,")
	if len(s) < 2 {
		return false
	}
	return strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) ||
		strings.HasPrefix(s, "“") && strings.HasSuffix(s, "”")
}

var urlRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://\S+$`)

func isLocator(s string) bool {
	s = strings.TrimSuffix(s, ".")
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		return true
	}
	return urlRe.MatchString(s)
}

// months maps lower-cased English month names and their standard three-letter
// abbreviations to the canonical full name.
var months = map[string]string{}

func init() {
	for _, m := range []string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"} {
		months[strings.ToLower(m)] = m
		months[strings.ToLower(m[:3])] = m
	}
	months["sept"] = "September"
}

// monthName looks up a month word, tolerating an abbreviation dot.
func monthName(w string) (string, bool) {
	m, ok := months[strings.ToLower(strings.TrimSuffix(w, "."))]
	return m, ok
}

var (
	isoDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	yearRe    = regexp.MustCompile(`^(19|20)\d{2}$`)
)

func isDate(s string) bool {
	_, ok := parseDate(s)
	return ok
}

// parseDate recognizes "March 2001", "26 November 2001", "November 26, 2001",
// ISO "2001-11-26" and a bare year.
func parseDate(s string) (Date, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	s = strings.ReplaceAll(s, ",", "")
	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if mo >= 1 && mo <= 12 && d >= 1 && d <= 31 {
			return Date{Day: d, Month: monthNumberNames[mo], Year: y}, true
		}
		return Date{}, false
	}
	words := strings.Fields(s)
	switch len(words) {
	case 1:
		if yearRe.MatchString(words[0]) {
			y, _ := strconv.Atoi(words[0])
			return Date{Year: y}, true
		}
	case 2:
		// "March 2001"
		if m, ok := monthName(words[0]); ok && yearRe.MatchString(words[1]) {
			y, _ := strconv.Atoi(words[1])
			return Date{Month: m, Year: y}, true
		}
	case 3:
		// "26 November 2001" and "November 26 2001" (comma already removed).
		if m, ok := monthName(words[1]); ok {
			if d, err := strconv.Atoi(words[0]); err == nil && d >= 1 && d <= 31 && yearRe.MatchString(words[2]) {
				y, _ := strconv.Atoi(words[2])
				return Date{Day: d, Month: m, Year: y}, true
			}
		}
		if m, ok := monthName(words[0]); ok {
			if d, err := strconv.Atoi(words[1]); err == nil && d >= 1 && d <= 31 && yearRe.MatchString(words[2]) {
				y, _ := strconv.Atoi(words[2])
				return Date{Day: d, Month: m, Year: y}, true
			}
		}
	}
	return Date{}, false
}

var monthNumberNames = [...]string{"", "January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}

var (
	rfcSeriesRe = regexp.MustCompile(`^(RFC|STD|BCP|FYI)[ ]?(\d+)$`)
	doiRe       = regexp.MustCompile(`^DOI[ ](10\.\S+)$`)
	draftRe     = regexp.MustCompile(`^draft-[a-z0-9][a-z0-9-]*(?:-\d{2})?$`)
)

func isSeries(s string) bool {
	_, ok := parseSeries(s)
	return ok
}

// parseSeries recognizes well-known series info: "RFC 2119", "STD 13",
// "BCP 14", "FYI 36", "DOI 10.17487/RFC2119" and Internet-Draft names.
func parseSeries(s string) (Series, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if m := rfcSeriesRe.FindStringSubmatch(s); m != nil {
		return Series{Name: m[1], Value: m[2]}, true
	}
	if m := doiRe.FindStringSubmatch(s); m != nil {
		return Series{Name: "DOI", Value: m[1]}, true
	}
	if draftRe.MatchString(s) {
		return Series{Name: "Internet-Draft", Value: s}, true
	}
	return Series{}, false
}

var (
	// "Broersma, R." and "Smith, J., Ed.", the joined comma-convention shape.
	surnameFirstRe = regexp.MustCompile(`^\p{Lu}[\p{L}'’-]*(?: \p{Lu}[\p{L}'’-]*)?, (?:\p{Lu}\.)+(?:[ -](?:\p{Lu}\.)+)*(?:, \(?Eds?\.\)?)?$`)
	// "J. Smith" and "J.-P. Smith".
	initialsFirstRe = regexp.MustCompile(`^(?:\p{Lu}\.)+(?:[ -](?:\p{Lu}\.)+)* \p{Lu}[\p{L}'’-]+$`)
	// "John Smith".
	fullNameRe = regexp.MustCompile(`^\p{Lu}[\p{L}'’-]+ \p{Lu}[\p{L}'’-]+$`)
	etAlRe     = regexp.MustCompile(`,? et al\.?$`)
)

// nameLike reports whether text has the shape of a person name:
// surname/initials, initials-first, or "Firstname Lastname". Multiple names
// joined with "and" count if each part does.
func nameLike(s string) bool {
	s = etAlRe.ReplaceAllString(s, "")
	for _, part := range strings.Split(s, " and ") {
		part = strings.TrimSuffix(strings.TrimSpace(part), ",")
		if part == "" {
			continue
		}
		if surnameFirstRe.MatchString(part) || initialsFirstRe.MatchString(part) {
			continue
		}
		// A trailing period is sentence punctuation for the other shapes.
		if !fullNameRe.MatchString(strings.TrimSuffix(part, ".")) {
			return false
		}
	}
	return true
}
