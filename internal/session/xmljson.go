package session

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
)

// xmlNode is a generic XML tree, decoded without a schema. No xml-to-json
// library exists anywhere in the example pack, so this transform is built
// directly on encoding/xml — the honest "stdlib is the only option" case
// (see DESIGN.md).
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}

func (n xmlNode) toMap() map[string]any {
	m := map[string]any{}
	if len(n.Attrs) > 0 {
		attrs := map[string]string{}
		for _, a := range n.Attrs {
			attrs[a.Name.Local] = a.Value
		}
		m["@attrs"] = attrs
	}
	text := strings.TrimSpace(n.Content)
	if text != "" {
		m["#text"] = text
	}
	if len(n.Children) > 0 {
		children := map[string]any{}
		for _, c := range n.Children {
			key := c.XMLName.Local
			childVal := c.toMap()
			if existing, ok := children[key]; ok {
				switch v := existing.(type) {
				case []any:
					children[key] = append(v, childVal)
				default:
					children[key] = []any{v, childVal}
				}
			} else {
				children[key] = childVal
			}
		}
		m["children"] = children
	}
	return m
}

// xmlToJSON converts raw XML text into a JSON document, mirroring
// original_source/src/resource_serde/src/ingest/mod.rs's
// XmlResource::transform_to_json, approximated with a generic element tree
// instead of the original's xml-rs-backed conversion.
func xmlToJSON(raw string) (string, error) {
	var root xmlNode
	if err := xml.Unmarshal([]byte(raw), &root); err != nil {
		return "", fmt.Errorf("session.xmlToJSON: %w", err)
	}
	doc := map[string]any{root.XMLName.Local: root.toMap()}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("session.xmlToJSON: marshal: %w", err)
	}
	return string(b), nil
}
