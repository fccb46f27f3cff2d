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

package ffi

import "buf.build/go/sabi/internal/layout"

// RString is an explicitly-laid-out string, for use in interface structs
// that need a field type whose layout is independent of how any one Go
// runtime happens to represent the built-in string header. Go's string
// header is already just a pointer and a length, so RString is a plain
// string under the hood; its value is in having its own TypeLayout.
type RString string

var rstringVars = &layout.SharedVars{}

var rstringLayout = func() layout.TypeLayout {
	nameRange := rstringVars.PushString("RString")
	return layout.TypeLayout{
		Vars: rstringVars,
		ID:   layout.NewUTypeId(nil, layout.Fingerprint("buf.build/go/sabi/internal/ffi", "RString", layout.ReprC, nil)),
		Mono: layout.MonoLayout{
			NameRange:       nameRange,
			ModulePathRange: layout.NewSpan(0, 0),
			ReprAttr:        layout.ReprC,
			ReprSize:        16,
			ReprAlign:       8,
			DataVariant:     layout.DataOpaque,
		},
	}
}()

// RStringLayout returns RString's canonical TypeLayout.
func RStringLayout() *layout.TypeLayout { return &rstringLayout }

// String returns s as a built-in Go string.
func (s RString) String() string { return string(s) }
