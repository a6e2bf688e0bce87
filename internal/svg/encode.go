package svg

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"io"
)

// Declaration is the XML prolog written by EncodeDocument.
const Declaration = `<?xml version="1.0" encoding="UTF-8"?>`

// Encode writes n and its subtree as markup. Elements without children or
// text are self-closed.
func (n *Node) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := n.encode(bw); err != nil {
		return err
	}
	return bw.Flush()
}

// EncodeDocument writes the XML declaration followed by n.
func (n *Node) EncodeDocument(w io.Writer) error {
	if _, err := io.WriteString(w, Declaration+"\n"); err != nil {
		return err
	}
	return n.Encode(w)
}

// String returns the serialized subtree.
func (n *Node) String() string {
	var buf bytes.Buffer
	_ = n.Encode(&buf) // bytes.Buffer writes do not fail
	return buf.String()
}

func (n *Node) encode(w *bufio.Writer) error {
	w.WriteByte('<')
	w.WriteString(n.Name)
	for _, a := range n.Attrs {
		w.WriteByte(' ')
		w.WriteString(a.Name)
		w.WriteString(`="`)
		if err := xml.EscapeText(w, []byte(a.Value)); err != nil {
			return err
		}
		w.WriteByte('"')
	}
	if len(n.Children) == 0 && n.Text == "" {
		_, err := w.WriteString("/>")
		return err
	}
	w.WriteByte('>')
	if n.Text != "" {
		if err := xml.EscapeText(w, []byte(n.Text)); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := c.encode(w); err != nil {
			return err
		}
		if c.Tail != "" {
			if err := xml.EscapeText(w, []byte(c.Tail)); err != nil {
				return err
			}
		}
	}
	w.WriteString("</")
	w.WriteString(n.Name)
	_, err := w.WriteString(">")
	return err
}
