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

// Package layout is the "object file format" for sabi: the declarative
// description of a type's in-memory layout that a provider library embeds in
// its binary and a host compares against its own copy at load time.
//
// A [TypeLayout] is split into a [MonoLayout] (the part of a type's shape
// that does not depend on its instantiated type arguments: name, module
// path, representation attributes, field names) and a [GenericLayout] (the
// part that does: child-type getters for type arguments, const-generic
// values). Both halves share one deduplicated [SharedVars] pool for their
// variable-length data, addressed by compact packed ranges, so that a
// TypeLayout for a small struct costs a handful of machine words rather than
// a handful of slice headers.
//
// All fields in this package are exported because they are assembled and
// walked by other internal packages (internal/check in particular). None of
// the types here should ever be exposed to users directly.
//
// None of these types are meant to be constructed by hand; they are emitted
// by cmd/sabigen from a Go type declaration, the same way a table-driven
// parser's bytecode is emitted from a schema by its compiler.
package layout
