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

package sabi

import "buf.build/go/sabi/internal/layout"

// TypeLayout is the root, static description of one type's memory layout.
// Values of this type are emitted by cmd/sabigen; user code only ever
// receives a *TypeLayout from a generated package or from a loaded
// provider's [LayoutHeader], never constructs one directly.
type TypeLayout = layout.TypeLayout

// UTypeId is a process-wide stable identifier for a type, derived from its
// structural description so that a host and an independently-compiled
// provider agree on it without sharing any pointers.
type UTypeId = layout.UTypeId
