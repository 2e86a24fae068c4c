// Package markup reads XML view descriptions into property trees and
// writes trees back out.
//
// Element names become node types and attributes become string values;
// typed parsing happens later, where each attribute is read. Inline text
// inside a Text element is appended to its text attribute. Inline text in
// any other element is moved into a trailing Text child.
package markup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"

	"vista/pkg/tree"
)

// TextType is the element that carries inline text as an attribute.
const TextType = "Text"

// TextAttribute holds a Text element's content.
const TextAttribute = "text"

// ErrEmptyDocument is returned for input without a root element.
var ErrEmptyDocument = errors.New("markup: document has no root element")

// Load parses one XML document from r.
func Load(r io.Reader) (*tree.Node, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("markup: parse: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, ErrEmptyDocument
	}
	return convert(root), nil
}

// LoadString parses an XML document held in memory.
func LoadString(s string) (*tree.Node, error) {
	return Load(strings.NewReader(s))
}

// LoadFile parses the XML document at path.
func LoadFile(path string) (*tree.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("markup: open view: %w", err)
	}
	defer f.Close()
	n, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

func convert(el *etree.Element) *tree.Node {
	attrs := make([]tree.Attr, 0, len(el.Attr)+1)
	for _, a := range el.Attr {
		attrs = append(attrs, tree.A(a.FullKey(), a.Value))
	}

	var children []*tree.Node
	for _, c := range el.ChildElements() {
		children = append(children, convert(c))
	}

	inline := inlineText(el)
	switch {
	case el.Tag == TextType:
		text := el.SelectAttrValue(TextAttribute, "") + inline
		if text != "" {
			attrs = setAttr(attrs, TextAttribute, text)
		}
	case inline != "":
		children = append(children, tree.NewNode(TextType, []tree.Attr{tree.A(TextAttribute, inline)}))
	}
	return tree.NewNode(el.FullTag(), attrs, children...)
}

// inlineText joins the element's direct character data. Runs made only of
// whitespace are formatting and are dropped.
func inlineText(el *etree.Element) string {
	var sb strings.Builder
	for _, tok := range el.Child {
		cd, ok := tok.(*etree.CharData)
		if !ok || strings.TrimSpace(cd.Data) == "" {
			continue
		}
		sb.WriteString(cd.Data)
	}
	return strings.TrimSpace(sb.String())
}

func setAttr(attrs []tree.Attr, name, value string) []tree.Attr {
	for i := range attrs {
		if attrs[i].Name == name {
			attrs[i] = tree.A(name, value)
			return attrs
		}
	}
	return append(attrs, tree.A(name, value))
}

// Write serializes n as an indented XML document. Objects are written as
// JSON text; handles such as script callbacks cannot be represented and
// are skipped.
func Write(w io.Writer, n *tree.Node) error {
	doc := etree.NewDocument()
	doc.SetRoot(element(n))
	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("markup: write: %w", err)
	}
	return nil
}

// String serializes n like Write.
func String(n *tree.Node) (string, error) {
	var sb strings.Builder
	if err := Write(&sb, n); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func element(n *tree.Node) *etree.Element {
	el := etree.NewElement(n.Type())
	for _, name := range n.AttributeNames() {
		v := n.Value(name)
		switch v.Kind() {
		case tree.KindHandle, tree.KindUndefined:
			continue
		case tree.KindObject:
			el.CreateAttr(name, string(tree.MarshalObject(v.AsObject())))
		default:
			el.CreateAttr(name, v.AsString())
		}
	}
	for _, c := range n.Children() {
		el.AddChild(element(c))
	}
	return el
}
