// Package brushgen generates Java brush classes for SyntaxHighlighter.
//
// A brush is a host interface annotated with the name of a SyntaxHighlighter
// brush script:
//
//	@Brush.Source("shBrushXml.js")
//	public interface BrushXml extends Brush {}
//
// For each such interface brushgen locates the script on a classpath,
// evaluates it together with the core script in a fresh JavaScript
// environment, reads the first alias the script registers, and emits a
// concrete subclass that passes the alias and the script resource to the
// brush runtime:
//
//	cp := classpath.New(nil, classpath.Dir("src/main/resources"))
//	gen := brushgen.New(cp, script.NewGoja())
//	f, err := gen.Generate(ctx, brushgen.Descriptor{
//		HostType: "com.example.BrushXml",
//		Script:   "shBrushXml.js",
//	})
//
// The result for that call is the class
// com.example.com_example_BrushXml_shBrushXml_js, with the constructor
// super("xml", RES.script()).
//
// GenerateAll processes many descriptors concurrently and writes the
// results through a sink.OutputSink. Every failure is an *Error that matches
// ErrUnableToComplete.
package brushgen
