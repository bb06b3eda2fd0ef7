package javasrc

import (
	"fmt"
	"slices"
	"strings"
)

// ClassComposer describes a top-level public class and renders it.
type ClassComposer struct {
	// Header is emitted as // comment lines above the package declaration.
	Header string

	// Package is the dotted package name; empty means the default package.
	Package string

	// Name is the simple class name.
	Name string

	// Superclass is the qualified name of the extended class, if any.
	Superclass string

	// Interfaces are qualified names of implemented interfaces.
	Interfaces []string

	// Imports are qualified type names. They are sorted and de-duplicated.
	Imports []string
}

// Validate checks that every name in the composer is legal Java.
func (c *ClassComposer) Validate() error {
	if c.Package != "" && !IsQualifiedName(c.Package) {
		return fmt.Errorf("invalid package name %q", c.Package)
	}
	if !IsIdentifier(c.Name) {
		return fmt.Errorf("invalid class name %q", c.Name)
	}
	if c.Superclass != "" && !IsQualifiedName(c.Superclass) {
		return fmt.Errorf("invalid superclass name %q", c.Superclass)
	}
	for _, iface := range c.Interfaces {
		if !IsQualifiedName(iface) {
			return fmt.Errorf("invalid interface name %q", iface)
		}
	}
	for _, imp := range c.Imports {
		if !IsQualifiedName(imp) {
			return fmt.Errorf("invalid import %q", imp)
		}
	}
	return nil
}

// Path returns the slash-separated source path of the class,
// e.g. "com/example/Foo.java".
func (c *ClassComposer) Path() string {
	if c.Package == "" {
		return c.Name + ".java"
	}
	return PackageDir(c.Package) + "/" + c.Name + ".java"
}

// Compose renders the compilation unit. body writes the class members; it
// starts one indentation level deep and must leave the indentation where it
// found it.
func (c *ClassComposer) Compose(body func(w *SourceWriter)) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	w := NewSourceWriter()
	if c.Header != "" {
		for _, line := range strings.Split(strings.TrimRight(c.Header, "\n"), "\n") {
			w.Println(strings.TrimRight("// "+line, " "))
		}
	}
	if c.Package != "" {
		w.Printf("package %s;", c.Package)
		w.Newline()
	}

	imports := c.imports()
	for _, imp := range imports {
		w.Printf("import %s;", imp)
	}
	if len(imports) > 0 {
		w.Newline()
	}

	var decl strings.Builder
	decl.WriteString("public class ")
	decl.WriteString(c.Name)
	if c.Superclass != "" {
		decl.WriteString(" extends ")
		decl.WriteString(c.typeRef(c.Superclass, imports))
	}
	if len(c.Interfaces) > 0 {
		refs := make([]string, len(c.Interfaces))
		for i, iface := range c.Interfaces {
			refs[i] = c.typeRef(iface, imports)
		}
		decl.WriteString(" implements ")
		decl.WriteString(strings.Join(refs, ", "))
	}
	decl.WriteString(" {")
	w.Println(decl.String())

	w.Indent()
	if body != nil {
		body(w)
	}
	if w.Depth() != 1 {
		return nil, fmt.Errorf("class %s: unbalanced indentation in body (depth %d)", c.Name, w.Depth()-1)
	}
	w.Outdent()
	w.Println("}")

	return w.Bytes(), nil
}

func (c *ClassComposer) imports() []string {
	imports := slices.Clone(c.Imports)
	slices.Sort(imports)
	return slices.Compact(imports)
}

// typeRef shortens a qualified name to its simple name when the type is
// imported or lives in the class's own package.
func (c *ClassComposer) typeRef(qualified string, imports []string) string {
	if _, found := slices.BinarySearch(imports, qualified); found {
		return SimpleName(qualified)
	}
	if PackageOf(qualified) == c.Package {
		return SimpleName(qualified)
	}
	return qualified
}
