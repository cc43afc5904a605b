// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package xmltree

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"strings"

	"grimm.is/pfopn/internal/errors"
)

// Parse converts XML bytes into a Node tree. CDATA is folded into text,
// comments, processing instructions, and doctypes are discarded, and
// whitespace-only text is dropped. Multiple top-level elements fail.
func Parse(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	var stack []*Node
	var root *Node

	place := func(node *Node) error {
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			parent.Append(node)
			return nil
		}
		if root != nil {
			return errors.New(errors.KindValidation, "malformed XML: multiple top-level elements found")
		}
		root = node
		return nil
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.KindValidation, "failed to parse XML")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := New(t.Name.Local)
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				node.SetAttr(a.Name.Local, a.Value)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New(errors.KindValidation, "malformed XML: closing tag without open tag")
			}
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if err := place(node); err != nil {
				return nil, err
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			text := string(t)
			if strings.TrimSpace(text) == "" {
				continue
			}
			cur := stack[len(stack)-1]
			cur.Text += text
		case xml.Comment, xml.ProcInst, xml.Directive:
			// discarded
		}
	}

	if len(stack) != 0 {
		return nil, errors.New(errors.KindValidation, "malformed XML: unclosed element(s) at end of document")
	}
	if root == nil {
		return nil, errors.New(errors.KindValidation, "malformed XML: no root element found")
	}
	return root, nil
}

// ParseFile reads and parses an XML file.
func ParseFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindNotFound, "failed to read XML file %s", path)
	}
	return Parse(data)
}
