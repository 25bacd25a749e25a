package bibxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// Parse reads all <reference> elements from r, which may hold a single
// fragment, a bibxml citation file, or a complete xml2rfc document.
func Parse(r io.Reader) ([]Reference, error) {
	dec := xml.NewDecoder(r)
	var refs []Reference
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing reference xml: %v", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "reference" {
			continue
		}
		var ref Reference
		if err := dec.DecodeElement(&ref, &se); err != nil {
			return nil, fmt.Errorf("parsing reference element: %v", err)
		}
		if ref.Anchor == "" {
			return nil, errors.New("reference element without anchor attribute")
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// ParseOne parses exactly one reference fragment.
func ParseOne(r io.Reader) (Reference, error) {
	refs, err := Parse(r)
	if err != nil {
		return Reference{}, err
	}
	if len(refs) != 1 {
		return Reference{}, fmt.Errorf("got %d reference elements, expected exactly 1", len(refs))
	}
	return refs[0], nil
}
