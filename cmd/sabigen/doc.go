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

// Command sabigen generates static [layout.TypeLayout] descriptions for Go
// types, so that a provider never has to hand-construct the data model
// described by package layout.
//
// sabigen looks for directives of the form
//
//	//sabi:layout
//	type Foo struct { ... }
//
//	//sabi:layout repr=C
//	type Bar struct { ... }
//
//	//sabi:layout enum
//	type Baz int
//
//	//sabi:layout prefix
//	type FooVtable struct { ... }
//
// on exported type declarations in a target package, and writes one output
// file (sabi_gen.go unless -o names another) declaring each type's
// SharedVars and TypeLayout, plus an init function registering the result
// under the type's [sabi.UTypeId] in the process-global layout registry.
package main
