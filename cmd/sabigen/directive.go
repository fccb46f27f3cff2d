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
	"go/ast"
	"regexp"
	"strings"
)

// directive matches a //sabi:layout comment, capturing its space-separated
// key[=value] options, e.g. "repr=C enum".
var directive = regexp.MustCompile(`^//sabi:layout\s*(.*)$`)

// Directive is a parsed //sabi:layout annotation attached to a type decl.
type Directive struct {
	Kind  string // "", "enum", or "prefix"
	Repr  string // "", "C", "transparent", "packed"
	Flags map[string]string
}

func parseDirective(doc *ast.CommentGroup) (Directive, bool) {
	if doc == nil {
		return Directive{}, false
	}
	for _, c := range doc.List {
		match := directive.FindStringSubmatch(c.Text)
		if match == nil {
			continue
		}

		dir := Directive{Flags: map[string]string{}}
		for _, tok := range strings.Fields(match[1]) {
			key, value, hasValue := strings.Cut(tok, "=")
			switch {
			case key == "enum", key == "prefix":
				dir.Kind = key
			case key == "repr" && hasValue:
				dir.Repr = value
			default:
				dir.Flags[key] = value
			}
		}
		return dir, true
	}
	return Directive{}, false
}
