// Package javascan finds brush host types in Java sources.
//
// A brush host is a top-level type annotated with a Source annotation
// naming its script:
//
//	@Brush.Source("shBrushXml.js")
//	public interface BrushXml extends Brush {}
//
// Any annotation whose simple name is Source counts when it is applied to a
// type declaration. Annotations on members, and anything inside comments or
// string literals, are ignored.
package javascan

import (
	"fmt"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/broady/brushgen"
)

// Brush is an annotated host type found in a source file.
type Brush struct {
	Descriptor brushgen.Descriptor
	Pos        token.Position // location of the type name
}

// ScanDir scans every .java file under root, in lexical order.
func ScanDir(root string) ([]Brush, error) {
	var found []Brush
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".java") {
			return nil
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		brushes, err := ScanFile(path, src)
		if err != nil {
			return err
		}
		found = append(found, brushes...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return found, nil
}

// ScanFile scans one compilation unit. filename is used for positions only.
func ScanFile(filename string, src []byte) ([]Brush, error) {
	p := &parser{lex: newLexer(filename, src)}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.found, nil
}

var modifiers = map[string]bool{
	"public":    true,
	"protected": true,
	"private":   true,
	"static":    true,
	"abstract":  true,
	"final":     true,
	"strictfp":  true,
	"sealed":    true,
}

var typeKeywords = map[string]brushgen.TypeKind{
	"interface": brushgen.TypeInterface,
	"class":     brushgen.TypeClass,
	"record":    brushgen.TypeClass,
	"enum":      brushgen.TypeEnum,
}

// sourceAnnotation is a pending Source annotation waiting for the
// declaration it applies to.
type sourceAnnotation struct {
	value string
	pos   token.Position
	err   error // set when the value is not a string constant
}

type parser struct {
	lex    *lexer
	buf    []tok
	prev   tok
	pkg    string
	depth  int
	source *sourceAnnotation
	found  []Brush
}

func (p *parser) next() (tok, error) {
	if n := len(p.buf); n > 0 {
		t := p.buf[n-1]
		p.buf = p.buf[:n-1]
		return t, nil
	}
	return p.lex.next()
}

func (p *parser) peek() (tok, error) {
	t, err := p.next()
	if err != nil {
		return tok{}, err
	}
	p.buf = append(p.buf, t)
	return t, nil
}

func (p *parser) parse() error {
	for {
		t, err := p.next()
		if err != nil {
			return err
		}
		if err := p.step(t); err != nil {
			return err
		}
		if t.kind == tokEOF {
			return nil
		}
		p.prev = t
	}
}

func (p *parser) step(t tok) error {
	switch {
	case t.kind == tokEOF:
		return nil

	case t.is(tokIdent, "package") && p.depth == 0 && p.pkg == "":
		name, err := p.qualifiedName()
		if err != nil {
			return err
		}
		p.pkg = name
		p.source = nil

	case t.is(tokIdent, "import") && p.depth == 0:
		return p.skipPast(";")

	case t.is(tokPunct, "@"):
		return p.annotation()

	case t.kind == tokIdent && modifiers[t.text]:
		// keeps any pending annotation

	case t.is(tokIdent, "non"):
		// non-sealed
		if next, err := p.peek(); err == nil && next.is(tokPunct, "-") {
			p.next()
			p.next()
		}

	case t.kind == tokIdent && typeKeywords[t.text] != "" && !p.prev.is(tokPunct, "."):
		return p.declaration(typeKeywords[t.text])

	case t.is(tokPunct, "{"):
		p.depth++
		p.source = nil

	case t.is(tokPunct, "}"):
		if p.depth > 0 {
			p.depth--
		}
		p.source = nil

	default:
		p.source = nil
	}
	return nil
}

// annotation handles everything after an '@'.
func (p *parser) annotation() error {
	next, err := p.peek()
	if err != nil {
		return err
	}
	if next.is(tokIdent, "interface") {
		p.next()
		return p.declaration(brushgen.TypeAnnotation)
	}

	start := next.pos
	name, err := p.qualifiedName()
	if err != nil {
		return err
	}
	args, err := p.arguments()
	if err != nil {
		return err
	}

	simple := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		simple = name[i+1:]
	}
	if simple != "Source" {
		return nil
	}

	a := &sourceAnnotation{pos: start}
	a.value, a.err = annotationValue(args)
	if a.err != nil {
		a.err = fmt.Errorf("%s: @%s: %w", start, name, a.err)
	}
	if p.source != nil {
		a.err = fmt.Errorf("%s: duplicate @%s annotation", start, name)
	}
	p.source = a
	return nil
}

// declaration handles a type keyword and the name that follows it.
func (p *parser) declaration(kind brushgen.TypeKind) error {
	source := p.source
	p.source = nil

	name, err := p.next()
	if err != nil {
		return err
	}
	if name.kind != tokIdent {
		// e.g. a "record" used as an identifier
		p.buf = append(p.buf, name)
		return nil
	}
	if source == nil || p.depth != 0 {
		return nil
	}
	if source.err != nil {
		return source.err
	}

	host := name.text
	if p.pkg != "" {
		host = p.pkg + "." + name.text
	}
	p.found = append(p.found, Brush{
		Descriptor: brushgen.Descriptor{
			HostType: host,
			Kind:     kind,
			Script:   source.value,
		},
		Pos: name.pos,
	})
	return nil
}

func (p *parser) qualifiedName() (string, error) {
	var parts []string
	for {
		t, err := p.next()
		if err != nil {
			return "", err
		}
		if t.kind != tokIdent {
			return "", fmt.Errorf("%s: expected identifier, found %q", t.pos, t.text)
		}
		parts = append(parts, t.text)

		dot, err := p.peek()
		if err != nil {
			return "", err
		}
		if !dot.is(tokPunct, ".") {
			return strings.Join(parts, "."), nil
		}
		p.next()
		// import a.b.*;
		if star, err := p.peek(); err == nil && star.is(tokPunct, "*") {
			return strings.Join(parts, "."), nil
		}
	}
}

// arguments returns the tokens between an annotation's parentheses, or nil
// if it has none.
func (p *parser) arguments() ([]tok, error) {
	open, err := p.peek()
	if err != nil {
		return nil, err
	}
	if !open.is(tokPunct, "(") {
		return nil, nil
	}
	p.next()

	var args []tok
	for depth := 1; ; {
		t, err := p.next()
		if err != nil {
			return nil, err
		}
		switch {
		case t.kind == tokEOF:
			return nil, fmt.Errorf("%s: unterminated annotation", open.pos)
		case t.is(tokPunct, "("):
			depth++
		case t.is(tokPunct, ")"):
			depth--
			if depth == 0 {
				return args, nil
			}
		}
		args = append(args, t)
	}
}

// annotationValue reads the script name from annotation arguments:
// ("x.js"), (value = "x.js"), or a concatenation of string literals.
func annotationValue(args []tok) (string, error) {
	if len(args) >= 2 && args[0].is(tokIdent, "value") && args[1].is(tokPunct, "=") {
		args = args[2:]
	}
	if len(args) == 0 {
		return "", fmt.Errorf("missing value")
	}

	var b strings.Builder
	for i, t := range args {
		if i%2 == 1 {
			if !t.is(tokPunct, "+") {
				return "", fmt.Errorf("value must be a string constant")
			}
			continue
		}
		if t.kind != tokString {
			return "", fmt.Errorf("value must be a string constant")
		}
		b.WriteString(t.text)
	}
	if len(args)%2 == 0 {
		return "", fmt.Errorf("value must be a string constant")
	}
	return b.String(), nil
}

func (p *parser) skipPast(punct string) error {
	for {
		t, err := p.next()
		if err != nil {
			return err
		}
		if t.kind == tokEOF || t.is(tokPunct, punct) {
			return nil
		}
	}
}
