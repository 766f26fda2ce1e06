package mongo

import (
	"encoding/xml"
	"strings"
)

// Archived payloads are opaque parseable blobs: XML stanzas serialized as
// text. A single record may carry several top-level elements, and message
// listings must surface each one as its own item. The splitter below
// scans the token stream and cuts the raw text on top-level element
// boundaries, so fragments come back byte-for-byte as stored.

// splitFragments returns the top-level elements of payload. A payload
// that does not parse as XML is returned whole as a single fragment.
func splitFragments(payload string) []string {
	dec := xml.NewDecoder(strings.NewReader(payload))
	dec.Strict = false

	var fragments []string
	depth := 0
	var start int64
	for {
		offset := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				start = offset
			}
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 {
				fragments = append(fragments, payload[start:dec.InputOffset()])
			}
		}
	}

	if len(fragments) == 0 && strings.TrimSpace(payload) != "" {
		return []string{payload}
	}
	return fragments
}

// payloadType returns the type attribute of the payload's first top-level
// element, or "" when the payload has none.
func payloadType(payload string) string {
	dec := xml.NewDecoder(strings.NewReader(payload))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		if se, ok := tok.(xml.StartElement); ok {
			for _, attr := range se.Attr {
				if attr.Name.Local == "type" && attr.Name.Space == "" {
					return attr.Value
				}
			}
			return ""
		}
	}
}
