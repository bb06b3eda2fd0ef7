package javasrc

import (
	"strings"
	"unicode"
)

// Java keywords and literals that cannot be used as identifiers (JLS 3.9).
var reservedWords = map[string]bool{
	"abstract":     true,
	"assert":       true,
	"boolean":      true,
	"break":        true,
	"byte":         true,
	"case":         true,
	"catch":        true,
	"char":         true,
	"class":        true,
	"const":        true,
	"continue":     true,
	"default":      true,
	"do":           true,
	"double":       true,
	"else":         true,
	"enum":         true,
	"extends":      true,
	"false":        true,
	"final":        true,
	"finally":      true,
	"float":        true,
	"for":          true,
	"goto":         true,
	"if":           true,
	"implements":   true,
	"import":       true,
	"instanceof":   true,
	"int":          true,
	"interface":    true,
	"long":         true,
	"native":       true,
	"new":          true,
	"null":         true,
	"package":      true,
	"private":      true,
	"protected":    true,
	"public":       true,
	"return":       true,
	"short":        true,
	"static":       true,
	"strictfp":     true,
	"super":        true,
	"switch":       true,
	"synchronized": true,
	"this":         true,
	"throw":        true,
	"throws":       true,
	"transient":    true,
	"true":         true,
	"try":          true,
	"void":         true,
	"volatile":     true,
	"while":        true,
	"_":            true,
}

// IsReserved reports whether name is a Java keyword or literal.
func IsReserved(name string) bool {
	return reservedWords[name]
}

// IsIdentifier reports whether name is a legal Java identifier.
func IsIdentifier(name string) bool {
	if name == "" || reservedWords[name] {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// IsQualifiedName reports whether name is a dotted sequence of identifiers,
// such as "com.example.BrushXml" or "BrushXml".
func IsQualifiedName(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if !IsIdentifier(part) {
			return false
		}
	}
	return true
}

// PackageOf returns the package portion of a qualified name, or "" for
// the default package.
func PackageOf(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[:i]
	}
	return ""
}

// SimpleName returns the last segment of a qualified name.
func SimpleName(qualified string) string {
	return qualified[strings.LastIndexByte(qualified, '.')+1:]
}

// PackageDir converts a package name to a slash-separated directory path.
func PackageDir(pkg string) string {
	return strings.ReplaceAll(pkg, ".", "/")
}

// Quote returns s as a double-quoted Java string literal.
// Only escapes that Java understands are produced; other control characters
// and non-printable runes become \uXXXX sequences (surrogate pairs above the
// BMP).
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if unicode.IsPrint(r) {
				b.WriteRune(r)
				continue
			}
			if r > 0xFFFF {
				r -= 0x10000
				writeUnicodeEscape(&b, 0xD800+(r>>10))
				writeUnicodeEscape(&b, 0xDC00+(r&0x3FF))
				continue
			}
			writeUnicodeEscape(&b, r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func writeUnicodeEscape(b *strings.Builder, r rune) {
	const hex = "0123456789abcdef"
	b.WriteString(`\u`)
	b.WriteByte(hex[(r>>12)&0xF])
	b.WriteByte(hex[(r>>8)&0xF])
	b.WriteByte(hex[(r>>4)&0xF])
	b.WriteByte(hex[r&0xF])
}
