package reference

// validate checks the minimum shape the target markup needs: a non-empty
// anchor, and at least one of title, author or unstructured payload. It never
// rejects. An entry with literally nothing left is still emitted, as an
// empty-titled stub, so the anchor stays referenceable elsewhere in the
// document.
func validate(rec Reference, warnings []string) Outcome {
	if rec.Title == "" && len(rec.Authors) == 0 && rec.Unstructured == "" {
		if rec.Venue != "" || !rec.Date.IsZero() || rec.Target != "" || len(rec.Series) > 0 {
			warnings = append(warnings, "entry has no title, author or unstructured text, emitting empty title")
		} else {
			warnings = append(warnings, "empty entry, emitting stub")
		}
		rec.Degraded = true
	}
	return Outcome{Reference: rec, Fallback: rec.Degraded, Warnings: warnings}
}
