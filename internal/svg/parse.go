package svg

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrNoRoot is returned for input that contains no element at all.
var ErrNoRoot = errors.New("document has no root element")

// Parse reads a single markup document. Names are taken verbatim from the
// source; mismatched or unclosed elements are reported as errors. Documents
// that declare a non-UTF-8 encoding are transcoded.
func Parse(r io.Reader) (*Node, error) {
	d := xml.NewDecoder(r)
	d.Strict = true
	d.Entity = xml.HTMLEntity
	d.CharsetReader = charset.NewReaderLabel

	var (
		root  *Node
		stack []*Node
	)
	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: qualified(t.Name)}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("line %d: unexpected second root element <%s>", line(d), n.Name)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			name := qualified(t.Name)
			if len(stack) == 0 {
				return nil, fmt.Errorf("line %d: unexpected end element </%s>", line(d), name)
			}
			top := stack[len(stack)-1]
			if top.Name != name {
				return nil, fmt.Errorf("line %d: element <%s> closed by </%s>", line(d), top.Name, name)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 && len(bytes.TrimSpace(t)) > 0 {
				top := stack[len(stack)-1]
				if k := len(top.Children); k > 0 {
					top.Children[k-1].Tail += string(t)
				} else {
					top.Text += string(t)
				}
			}
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("unexpected end of input inside <%s>", stack[len(stack)-1].Name)
	}
	if root == nil {
		return nil, ErrNoRoot
	}
	return root, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func line(d *xml.Decoder) int {
	l, _ := d.InputPos()
	return l
}
