package brushgen

import (
	"net/url"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/broady/brushgen/javasrc"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/gorilla/schema"
)

var (
	validate      = validator.New(validator.WithRequiredStructEnabled())
	schemaDecoder = schema.NewDecoder()
)

func init() {
	schemaDecoder.IgnoreUnknownKeys(false)

	// Report fields by their external (query/manifest) names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("schema"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("javaqualified", func(fl validator.FieldLevel) bool {
		return javasrc.IsQualifiedName(fl.Field().String())
	}); err != nil {
		panic(err)
	}
}

// TypeKind is the declaration kind of a host type.
type TypeKind string

const (
	TypeInterface  TypeKind = "interface"
	TypeClass      TypeKind = "class"
	TypeEnum       TypeKind = "enum"
	TypeAnnotation TypeKind = "annotation"
)

// Descriptor identifies one host type to generate a brush for. It replaces
// annotation reflection: whoever discovers brushes (command line, manifest,
// source scanner) fills it in and the generator validates it.
type Descriptor struct {
	// HostType is the qualified name of the annotated type, e.g. "com.example.BrushXml".
	HostType string `schema:"type" toml:"type" validate:"required,javaqualified"`

	// Kind is the declaration kind of HostType. Empty means interface.
	Kind TypeKind `schema:"kind" toml:"kind" validate:"omitempty,oneof=interface class enum annotation"`

	// Script is the value of the script annotation, e.g. "shBrushXml.js".
	Script string `schema:"script" toml:"script" validate:"required,notblank"`
}

// ParseDescriptor decodes a descriptor from URL query syntax:
//
//	type=com.example.BrushXml&script=shBrushXml.js
//	type=com.example.Broken&script=shBrushX.js&kind=class
//
// Unknown keys are rejected.
func ParseDescriptor(query string) (Descriptor, error) {
	values, err := url.ParseQuery(query)
	if err != nil {
		return Descriptor{}, Errorf(KindConfig, "parse descriptor %q", query).withCause(err)
	}

	var d Descriptor
	if err := schemaDecoder.Decode(&d, values); err != nil {
		return Descriptor{}, Errorf(KindConfig, "decode descriptor %q", query).withCause(err)
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// Validate checks the descriptor's fields. It does not look at the classpath.
func (d Descriptor) Validate() error {
	if err := validate.Struct(d); err != nil {
		return configError(err).withType(d.HostType)
	}
	return nil
}

// IsInterface reports whether the host type is declared as an interface.
func (d Descriptor) IsInterface() bool {
	return d.Kind == "" || d.Kind == TypeInterface
}

// TypeName returns the simple name of the class generated for d: the host
// type's qualified name and the script path joined by an underscore, with
// dots, slashes and the OS path separator replaced by underscores.
//
//	com.example.BrushXml + shBrushXml.js -> com_example_BrushXml_shBrushXml_js
func (d Descriptor) TypeName() string {
	r := strings.NewReplacer(".", "_", "/", "_", string(filepath.Separator), "_")
	return r.Replace(d.HostType + "_" + d.Script)
}

// Package returns the package of the host type; the generated class lives there too.
func (d Descriptor) Package() string {
	return javasrc.PackageOf(d.HostType)
}

func (d Descriptor) String() string {
	return d.HostType + "(" + d.Script + ")"
}
