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
	"go/ast"
	"go/constant"
	"go/types"

	"golang.org/x/tools/go/packages"
)

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedTypes | packages.NeedSyntax |
	packages.NeedTypesInfo | packages.NeedTypesSizes | packages.NeedImports

// scannedField is one struct field found under a //sabi:layout type.
type scannedField struct {
	Name       string
	GoType     types.Type
	ChildNamed *types.Named // non-nil if GoType (or its pointer base) is a named type; whether it is a //sabi:layout type of this run is checked at emit time
	IsPointer  bool
}

// scannedVariant is one constant value found in a const block typed as a
// //sabi:layout enum type.
type scannedVariant struct {
	Name  string
	Value int64
}

// scannedType is one //sabi:layout type declaration plus everything sabigen
// found out about it from the type-checked package.
type scannedType struct {
	Name      string
	Pkg       *packages.Package
	Dir       Directive
	Named     *types.Named
	Size      int64
	Align     int64
	Fields    []scannedField
	Variants  []scannedVariant
	SourceLine int

	// StorageSize/StorageAlign are a nonexhaustive enum's storage bound,
	// resolved in run() from the sibling type its nonexhaustive=Name flag
	// names, via the size/align table built over the whole package. Zero
	// for an exhaustive enum or one with no nonexhaustive=Name flag.
	StorageSize  int64
	StorageAlign int64
}

// scanPackage loads pattern and returns every //sabi:layout type it
// declares.
func scanPackage(pattern string) ([]*scannedType, error) {
	pkgs, err := packages.Load(&packages.Config{Mode: loadMode}, pattern)
	if err != nil {
		return nil, fmt.Errorf("sabigen: loading %q: %w", pattern, err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, fmt.Errorf("sabigen: %q has type errors", pattern)
	}

	var out []*scannedType
	byName := map[string]*scannedType{}

	// First pass: every //sabi:layout type declaration, so that the second
	// pass can attribute enum variant consts regardless of where in the
	// file they're declared relative to their type.
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			for _, decl := range file.Decls {
				gen, ok := decl.(*ast.GenDecl)
				if !ok {
					continue
				}
				dir, ok := parseDirective(gen.Doc)
				if !ok {
					continue
				}
				for _, spec := range gen.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok {
						continue
					}
					st, err := scanType(pkg, ts, dir)
					if err != nil {
						return nil, err
					}
					byName[st.Name] = st
					out = append(out, st)
				}
			}
		}
	}

	// Second pass: attribute const-block variants to their enum type.
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			for _, decl := range file.Decls {
				gen, ok := decl.(*ast.GenDecl)
				if !ok {
					continue
				}
				for _, spec := range gen.Specs {
					if vs, ok := spec.(*ast.ValueSpec); ok {
						collectVariant(pkg, vs, byName)
					}
				}
			}
		}
	}

	return out, nil
}

func scanType(pkg *packages.Package, ts *ast.TypeSpec, dir Directive) (*scannedType, error) {
	obj := pkg.TypesInfo.Defs[ts.Name]
	if obj == nil {
		return nil, fmt.Errorf("sabigen: could not resolve type %s", ts.Name.Name)
	}
	named, ok := obj.Type().(*types.Named)
	if !ok {
		return nil, fmt.Errorf("sabigen: %s is not a named type", ts.Name.Name)
	}

	st := &scannedType{
		Name:       ts.Name.Name,
		Pkg:        pkg,
		Dir:        dir,
		Named:      named,
		Size:       pkg.TypesSizes.Sizeof(named.Underlying()),
		Align:      int64(pkg.TypesSizes.Alignof(named.Underlying())),
		SourceLine: pkg.Fset.Position(ts.Pos()).Line,
	}

	if dir.Kind == "enum" {
		return st, nil // Variants are collected separately from the const block.
	}

	strct, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil, fmt.Errorf("sabigen: %s: //sabi:layout struct/prefix directive on non-struct type", ts.Name.Name)
	}

	for i := range strct.NumFields() {
		f := strct.Field(i)
		if !f.Exported() {
			continue
		}

		field := scannedField{Name: f.Name(), GoType: f.Type()}
		t := f.Type()
		if ptr, ok := t.(*types.Pointer); ok {
			field.IsPointer = true
			t = ptr.Elem()
		}
		if named, ok := t.(*types.Named); ok {
			field.ChildNamed = named
		}
		st.Fields = append(st.Fields, field)
	}

	return st, nil
}

// collectVariant records each const of a scanned enum type, taking its
// value from the type checker's evaluation of the constant expression; a
// const whose value is not an integer is skipped.
func collectVariant(pkg *packages.Package, vs *ast.ValueSpec, byName map[string]*scannedType) {
	for _, name := range vs.Names {
		obj := pkg.TypesInfo.Defs[name]
		con, ok := obj.(*types.Const)
		if !ok {
			continue
		}
		named, ok := con.Type().(*types.Named)
		if !ok {
			continue
		}
		st, ok := byName[named.Obj().Name()]
		if !ok || st.Dir.Kind != "enum" {
			continue
		}

		val, ok := constInt64(con)
		if !ok {
			continue
		}
		st.Variants = append(st.Variants, scannedVariant{Name: name.Name, Value: val})
	}
}

func constInt64(con *types.Const) (int64, bool) {
	v := con.Val()
	if v.Kind() != constant.Int {
		return 0, false
	}
	return constant.Int64Val(v)
}
