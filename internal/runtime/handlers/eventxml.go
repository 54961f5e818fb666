package handlers

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

var errNoRootElement = errors.New("document has no root element")

// xmlNode is a minimal element tree. Names are local names; namespaces are
// ignored so events from every broker monitoring schema version match.
type xmlNode struct {
	name     string
	attrs    map[string]string
	children []*xmlNode
	// text is the character data before the first child element.
	text string
}

func parseXML(doc string) (*xmlNode, error) {
	dec := xml.NewDecoder(strings.NewReader(doc))
	dec.CharsetReader = charsetReader

	var root *xmlNode
	var stack []*xmlNode
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{name: t.Name.Local, attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				n.attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				if len(top.children) == 0 {
					top.text += string(t)
				}
			}
		}
	}

	if root == nil {
		return nil, errNoRootElement
	}
	return root, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// find returns the first element called name in document order, n included.
func (n *xmlNode) find(name string) *xmlNode {
	if n == nil {
		return nil
	}
	if n.name == name {
		return n
	}
	for _, c := range n.children {
		if found := c.find(name); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every element called name in document order.
func (n *xmlNode) findAll(name string) []*xmlNode {
	if n == nil {
		return nil
	}
	var out []*xmlNode
	if n.name == name {
		out = append(out, n)
	}
	for _, c := range n.children {
		out = append(out, c.findAll(name)...)
	}
	return out
}

// child returns the first direct child called name.
func (n *xmlNode) child(name string) *xmlNode {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (n *xmlNode) attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	v, ok := n.attrs[name]
	return v, ok
}

// flatten calls add for every element below and including n that carries
// text, with its dotted path from n. Repeated sibling names are indexed
// from 1, as in name[2].
func (n *xmlNode) flatten(add func(path []string, value string)) {
	var visit func(e *xmlNode, path []string)
	visit = func(e *xmlNode, path []string) {
		if v := strings.TrimSpace(e.text); v != "" {
			add(path, v)
		}
		counts := make(map[string]int, len(e.children))
		for _, c := range e.children {
			counts[c.name]++
		}
		seen := make(map[string]int, len(counts))
		for _, c := range e.children {
			seg := c.name
			if counts[c.name] > 1 {
				seen[c.name]++
				seg = fmt.Sprintf("%s[%d]", c.name, seen[c.name])
			}
			visit(c, append(path[:len(path):len(path)], seg))
		}
	}
	visit(n, []string{n.name})
}
