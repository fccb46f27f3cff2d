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

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/term"

	"buf.build/go/sabi/internal/check"
)

// AbiInstabilityErrors is the top-level result of a failed [Check]: every
// node in the compared layout tree where at least one structural mismatch
// was found.
type AbiInstabilityErrors = check.Errors

// LibraryErrorKind discriminates the broader failure taxonomy that wraps
// AbiInstabilityErrors at the library-loading layer, where things can also
// go wrong before any layout comparison even starts.
type LibraryErrorKind uint8

const (
	_ LibraryErrorKind = iota

	// OpenError means the dynamic library itself could not be opened
	// (file missing, wrong platform, permission denied).
	OpenError

	// GetSymbolError means the library opened, but the expected
	// root-module symbol was not found in it.
	GetSymbolError

	// ParseVersionError means the root module's declared version string
	// could not be parsed as semver.
	ParseVersionError

	// IncompatibleVersionNumber means the root module's version was
	// parsed fine but fails the host's compatibility rule against it.
	IncompatibleVersionNumber

	// RootModuleErr means the provider-supplied constructor function
	// itself returned an error or panicked while building its root
	// module value.
	RootModuleErr

	// AbiInstabilityErr means the layout comparison itself found
	// incompatibilities; Errors holds the detail.
	AbiInstabilityErr

	// InvalidAbiHeader means the bytes at the root-module symbol did not
	// look like a [LayoutHeader] at all (bad magic bytes).
	InvalidAbiHeader

	// InvalidCAbi means the header's magic bytes matched but its
	// declared ABI major version does not match the host's.
	InvalidCAbi

	// Many wraps more than one of the above, accumulated while loading
	// several libraries or retrying across candidate paths.
	Many
)

func (k LibraryErrorKind) String() string {
	switch k {
	case OpenError:
		return "OpenError"
	case GetSymbolError:
		return "GetSymbolError"
	case ParseVersionError:
		return "ParseVersionError"
	case IncompatibleVersionNumber:
		return "IncompatibleVersionNumber"
	case RootModuleErr:
		return "RootModuleError"
	case AbiInstabilityErr:
		return "AbiInstability"
	case InvalidAbiHeader:
		return "InvalidAbiHeader"
	case InvalidCAbi:
		return "InvalidCAbi"
	case Many:
		return "Many"
	default:
		return "Unknown"
	}
}

// LibraryError is the error type returned by [Loader.Load] and [Open]. Exactly
// one of its fields beyond Kind is meaningful, selected by Kind, except
// for Many, where Errs holds every sub-error.
type LibraryError struct {
	Kind LibraryErrorKind

	ModuleName string
	Version    string

	Err error // OpenError, ParseVersionError, RootModuleErr wrap this.

	Abi *AbiInstabilityErrors // AbiInstabilityErr

	ExpectedHeader, FoundHeader string // InvalidAbiHeader, InvalidCAbi

	Errs []*LibraryError // Many
}

func (e *LibraryError) Error() string {
	var b strings.Builder
	width := diagnosticWidth()

	switch e.Kind {
	case Many:
		fmt.Fprintf(&b, "sabi: %d errors loading libraries:\n", len(e.Errs))
		for _, sub := range e.Errs {
			writeIndented(&b, sub.Error(), width)
		}
	case AbiInstabilityErr:
		fmt.Fprintf(&b, "sabi: %s failed ABI compatibility check:\n%s", e.ModuleName, e.Abi.Error())
	case InvalidAbiHeader:
		fmt.Fprintf(&b, "sabi: %s has an invalid layout header (found %q)", e.ModuleName, e.FoundHeader)
	case InvalidCAbi:
		fmt.Fprintf(&b, "sabi: %s declares ABI header %q, host expects %q", e.ModuleName, e.FoundHeader, e.ExpectedHeader)
	case RootModuleErr:
		fmt.Fprintf(&b, "sabi: %s@%s: root module constructor failed: %v", e.ModuleName, e.Version, e.Err)
	case IncompatibleVersionNumber:
		fmt.Fprintf(&b, "sabi: %s@%s: incompatible with required version %s", e.ModuleName, e.FoundHeader, e.ExpectedHeader)
	default:
		fmt.Fprintf(&b, "sabi: %s@%s: %s: %v", e.ModuleName, e.Version, e.Kind, e.Err)
	}
	return b.String()
}

func (e *LibraryError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if e.Abi != nil {
		return e.Abi
	}
	return nil
}

func writeIndented(b *strings.Builder, s string, width int) {
	for _, line := range strings.Split(s, "\n") {
		if width > 0 && len(line) > width {
			line = line[:width-1] + "…"
		}
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// stdoutFD is the file descriptor diagnosticWidth probes.
const stdoutFD = 1

// diagnosticWidth returns the terminal width at which writeIndented cuts
// LibraryError message lines short (ending them with "…"), falling back to
// 0 (unlimited) when stdout isn't a terminal.
func diagnosticWidth() int {
	w, _, err := term.GetSize(stdoutFD)
	if err != nil {
		return 0
	}
	return w
}

// ErrUnknownVariant is returned by a NonExhaustive downcast when the
// stored value's variant is not known to the library attempting the
// downcast — it arrived from a library with a newer enum definition.
var ErrUnknownVariant = errors.New("sabi: unknown variant: value belongs to a library with a newer enum definition")
