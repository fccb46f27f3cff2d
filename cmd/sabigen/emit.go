// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"go/format"
	"go/types"
	"strings"

	"github.com/stoewer/go-strcase"

	"buf.build/go/sabi/internal/layout"
)

// spanLit renders a Span as the Go expression that reconstructs it.
func spanLit(s layout.Span) string {
	return fmt.Sprintf("layout.NewSpan(%d, %d)", s.Start(), s.Len())
}

// emitPackage renders every scanned type in one package into a single
// generated Go source file.
func emitPackage(pkgName string, scanned []*scannedType) ([]byte, error) {
	pool := newStringPool()
	var bodies []string

	known := make(map[string]bool, len(scanned))
	for _, t := range scanned {
		known[t.Name] = true
	}

	for _, t := range scanned {
		body, err := emitType(pool, t, known)
		if err != nil {
			return nil, fmt.Errorf("sabigen: %s: %w", t.Name, err)
		}
		bodies = append(bodies, body)
	}

	if err := pool.verify(); err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by sabigen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", pkgName)
	fmt.Fprintf(&b, "import (\n\t%q\n\t%q\n)\n\n", "buf.build/go/sabi", "buf.build/go/sabi/internal/layout")
	fmt.Fprintf(&b, "var sabiStrings = %q\n\n", pool.string())
	for _, body := range bodies {
		b.WriteString(body)
		b.WriteString("\n")
	}

	return format.Source([]byte(b.String()))
}

// emitType renders one scanned type's SharedVars, MonoLayout, TypeLayout,
// and registration init func. known holds the name of every type scanned
// in this run, so a field naming another of them can reference its
// generated layout var directly instead of falling back to a primitive.
func emitType(pool *stringPool, t *scannedType, known map[string]bool) (string, error) {
	var b strings.Builder

	varName := strcase.LowerCamelCase(t.Name) + "Layout"
	nameSpan := pool.intern(t.Name)
	pkgSpan := pool.intern(t.Pkg.PkgPath)

	switch t.Dir.Kind {
	case "enum":
		emitEnum(&b, pool, t, varName, nameSpan, pkgSpan)
	case "prefix":
		emitPrefix(&b, pool, t, varName, nameSpan, pkgSpan, known)
	default:
		emitStruct(&b, pool, t, varName, nameSpan, pkgSpan, known)
	}

	fmt.Fprintf(&b, "func init() {\n")
	fmt.Fprintf(&b, "\tid := sabi.NewUTypeIdFor[%s](&%s)\n", t.Name, varName)
	fmt.Fprintf(&b, "\tsabi.RegisterLayout(id, &%s)\n", varName)
	fmt.Fprintf(&b, "}\n")

	return b.String(), nil
}

func reprAttrFor(dir Directive) string {
	switch dir.Repr {
	case "C":
		return "layout.ReprC"
	case "transparent":
		return "layout.ReprTransparent"
	case "packed":
		return "layout.ReprPacked"
	default:
		return "layout.ReprC"
	}
}

func emitStruct(b *strings.Builder, pool *stringPool, t *scannedType, varName string, nameSpan, pkgSpan layout.Span, known map[string]bool) {
	fieldsLit := make([]string, 0, len(t.Fields))
	childLit := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		fnSpan := pool.intern(f.Name)
		idx := len(childLit)
		childLit = append(childLit, childGetterExpr(f, known))
		fieldsLit = append(fieldsLit, fmt.Sprintf(
			"{NameRange: %s, Accessor: layout.AccessorDirect, ChildIndex: %d}", spanLit(fnSpan), idx))
	}

	fmt.Fprintf(b, "var %sVars = layout.SharedVars{\n", varName)
	fmt.Fprintf(b, "\tStrings: sabiStrings,\n")
	if len(childLit) > 0 {
		fmt.Fprintf(b, "\tChildren: []layout.ChildGetter{\n")
		for _, c := range childLit {
			fmt.Fprintf(b, "\t\t%s,\n", c)
		}
		fmt.Fprintf(b, "\t},\n")
	}
	if len(fieldsLit) > 0 {
		fmt.Fprintf(b, "\tFields: []layout.CompField{\n")
		for _, f := range fieldsLit {
			fmt.Fprintf(b, "\t\t%s,\n", f)
		}
		fmt.Fprintf(b, "\t},\n")
	}
	fmt.Fprintf(b, "}\n\n")

	fmt.Fprintf(b, "var %s = layout.TypeLayout{\n", varName)
	fmt.Fprintf(b, "\tVars: &%sVars,\n", varName)
	fmt.Fprintf(b, "\tMono: layout.MonoLayout{\n")
	fmt.Fprintf(b, "\t\tNameRange: %s,\n", spanLit(nameSpan))
	fmt.Fprintf(b, "\t\tModulePathRange: %s,\n", spanLit(pkgSpan))
	fmt.Fprintf(b, "\t\tItem: layout.ItemInfo{Package: %q, Line: %d},\n", t.Pkg.PkgPath, t.SourceLine)
	fmt.Fprintf(b, "\t\tReprAttr: %s,\n", reprAttrFor(t.Dir))
	fmt.Fprintf(b, "\t\tReprSize: %d,\n", t.Size)
	fmt.Fprintf(b, "\t\tReprAlign: %d,\n", t.Align)
	fmt.Fprintf(b, "\t\tDataVariant: layout.DataStruct,\n")
	if len(fieldsLit) > 0 {
		fmt.Fprintf(b, "\t\tFields: layout.NewSpan(0, %d),\n", len(fieldsLit))
	}
	fmt.Fprintf(b, "\t},\n")
	fmt.Fprintf(b, "}\n")
}

func emitEnum(b *strings.Builder, pool *stringPool, t *scannedType, varName string, nameSpan, pkgSpan layout.Span) {
	names := make([]string, len(t.Variants))
	discLit := make([]string, len(t.Variants))
	for i, v := range t.Variants {
		names[i] = v.Name
		discLit[i] = fmt.Sprintf("{Kind: layout.DiscrI64, Value: %d}", v.Value)
	}
	variantsSpan := pool.intern(strings.Join(names, layout.NameSep))

	fmt.Fprintf(b, "var %sVars = layout.SharedVars{\n", varName)
	fmt.Fprintf(b, "\tStrings: sabiStrings,\n")
	if len(discLit) > 0 {
		fmt.Fprintf(b, "\tVariants: []layout.Discriminant{%s},\n", strings.Join(discLit, ", "))
	}
	fmt.Fprintf(b, "}\n\n")

	fmt.Fprintf(b, "var %s = layout.TypeLayout{\n", varName)
	fmt.Fprintf(b, "\tVars: &%sVars,\n", varName)
	fmt.Fprintf(b, "\tMono: layout.MonoLayout{\n")
	fmt.Fprintf(b, "\t\tNameRange: %s,\n", spanLit(nameSpan))
	fmt.Fprintf(b, "\t\tModulePathRange: %s,\n", spanLit(pkgSpan))
	fmt.Fprintf(b, "\t\tItem: layout.ItemInfo{Package: %q, Line: %d},\n", t.Pkg.PkgPath, t.SourceLine)
	fmt.Fprintf(b, "\t\tReprAttr: %s,\n", reprAttrFor(t.Dir))
	fmt.Fprintf(b, "\t\tReprSize: %d,\n", t.Size)
	fmt.Fprintf(b, "\t\tReprAlign: %d,\n", t.Align)
	fmt.Fprintf(b, "\t\tDataVariant: layout.DataEnum,\n")
	fmt.Fprintf(b, "\t\tEnum: layout.MonoEnum{\n")
	fmt.Fprintf(b, "\t\t\tVariantNames: %s,\n", spanLit(variantsSpan))
	if len(discLit) > 0 {
		fmt.Fprintf(b, "\t\t\tDiscriminants: layout.NewSpan(0, %d),\n", len(discLit))
	}
	_, nonExhaustive := t.Dir.Flags["nonexhaustive"]
	fmt.Fprintf(b, "\t\t\tIsExhaustive: %t,\n", !nonExhaustive)
	if nonExhaustive && t.StorageSize > 0 {
		fmt.Fprintf(b, "\t\t\tNonExhaustive: layout.NonExhaustiveInfo{StorageSize: %d, StorageAlign: %d},\n",
			t.StorageSize, t.StorageAlign)
	}
	fmt.Fprintf(b, "\t\t},\n")
	fmt.Fprintf(b, "\t},\n")
	fmt.Fprintf(b, "}\n")
}

func emitPrefix(b *strings.Builder, pool *stringPool, t *scannedType, varName string, nameSpan, pkgSpan layout.Span, known map[string]bool) {
	emitStruct(b, pool, t, varName, nameSpan, pkgSpan, known)
	fmt.Fprintf(b, "\nfunc init() { %s.Mono.DataVariant = layout.DataPrefix }\n", varName)
}

// childGetterExpr renders the ChildGetter expression for one scanned
// field: a reference to another scanned type's generated layout var when
// the field names one, otherwise the canonical primitive getter for its
// Go kind. A named type this run never scanned (an external type, or one
// with no //sabi:layout directive) gets the primitive of its underlying
// basic kind when it has one, and otherwise falls back to the pointer
// primitive, since its actual layout isn't available to compare structurally; a
// field that needs precise checking against such a type needs its own
// directive.
func childGetterExpr(f scannedField, known map[string]bool) string {
	if f.ChildNamed != nil && known[f.ChildNamed.Obj().Name()] {
		childVar := strcase.LowerCamelCase(f.ChildNamed.Obj().Name()) + "Layout"
		return fmt.Sprintf("func() *layout.TypeLayout { return &%s }", childVar)
	}
	if prim, ok := primitiveFor(f.GoType); ok {
		return fmt.Sprintf("layout.PrimitiveChildGetter(layout.%s)", prim)
	}
	return "layout.PrimitiveChildGetter(layout.PrimPointer)"
}

// primitiveFor maps a scanned field's Go type to the layout.Primitive
// constant name describing it, when it is (or is a pointer to) a basic
// type.
func primitiveFor(t types.Type) (string, bool) {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return "", false
	}
	switch basic.Kind() {
	case types.Bool:
		return "PrimBool", true
	case types.Int8:
		return "PrimInt8", true
	case types.Int16:
		return "PrimInt16", true
	case types.Int32, types.Rune:
		return "PrimInt32", true
	case types.Int64, types.Int:
		// Go's platform-sized int is 8 bytes on every architecture this
		// generator targets, the same width as Uint/Uintptr below; it must
		// not be folded in with the genuinely 4-byte Int32/Rune case.
		return "PrimInt64", true
	case types.Uint8:
		return "PrimUint8", true
	case types.Uint16:
		return "PrimUint16", true
	case types.Uint32:
		return "PrimUint32", true
	case types.Uint64, types.Uint, types.Uintptr:
		return "PrimUint64", true
	case types.Float32:
		return "PrimFloat32", true
	case types.Float64:
		return "PrimFloat64", true
	case types.String:
		return "PrimPointer", true
	default:
		return "", false
	}
}
