package brushgen

import "github.com/broady/brushgen/javasrc"

// Brush is what the emitter needs to write a generated brush class body.
type Brush struct {
	// Name is the simple name of the generated class.
	Name string

	// Alias is the brush alias passed to the superclass.
	Alias string

	// Source is the classpath-relative path of the brush script.
	Source string
}

// EmitBrush writes the members of a generated brush class: a ClientBundle
// exposing the script as an external text resource, a static instance created
// through GWT.create, and a no-argument constructor forwarding the alias and
// the resource to the superclass.
func EmitBrush(w *javasrc.SourceWriter, b Brush) {
	w.Println("interface Resource extends ClientBundle {")
	w.Indent()
	w.Printf("@Source(%s)", javasrc.Quote(b.Source))
	w.Println("public ExternalTextResource script();")
	w.Outdent()
	w.Println("}")
	w.Newline()
	w.Println("private static final Resource RES = GWT.create(Resource.class);")
	w.Newline()
	w.Printf("public %s() {", b.Name)
	w.Indent()
	w.Printf("super(%s, RES.script());", javasrc.Quote(b.Alias))
	w.Outdent()
	w.Println("}")
}
