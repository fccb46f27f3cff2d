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
	"fmt"
	"plugin"

	"github.com/google/uuid"

	"buf.build/go/sabi/internal/debug"
	"buf.build/go/sabi/internal/xsync"
)

// abiMagic is the fixed byte sequence a [LayoutHeader] must start with.
// Its presence is the very first thing [Open] checks, before trusting
// anything else about the symbol it just resolved.
var abiMagic = [4]byte{'s', 'a', 'b', 'i'}

// abiMajor is this build's ABI major version. Providers built against a
// different major version are rejected outright; see [LayoutHeader].
const abiMajor = 1

// LayoutHeader is the fixed-layout value a provider exports under its
// root-module symbol. A host must verify Magic and AbiMajor before
// dereferencing Layout or calling Construct.
type LayoutHeader struct {
	Magic    [4]byte
	AbiMajor uint32
	AbiMinor uint32

	// BuildID uniquely identifies this particular compiled artifact,
	// independent of its declared semantic version; useful for
	// diagnosing "which exact build of this .so am I talking to"
	// without needing debug symbols.
	BuildID uuid.UUID

	ModuleName string
	Version    string

	Layout *TypeLayout

	// Construct builds and returns the root module's prefix reference,
	// erased to [RawPrefixRef] since a LayoutHeader cannot itself carry a
	// type parameter. [Open] calls it once per call, after the header
	// itself has been validated and checked.
	Construct func() (RawPrefixRef, error)
}

// rootModuleSymbol is the exported symbol name a provider is expected to
// declare its LayoutHeader under, as a package-level
// `var SabiRootModule = sabi.LayoutHeader{...}`; cmd/sabigen does not
// generate this variable.
const rootModuleSymbol = "SabiRootModule"

// Loader resolves a provider's root-module symbol given some means of
// locating it. [PluginLoader] implements this over Go's plugin package;
// a host may also implement it directly for a provider that is simply
// linked into the same binary (no dynamic loading at all), which is the
// common case in tests and in single-binary deployments that still want
// sabi's compatibility checking between internal module boundaries.
type Loader interface {
	// Load resolves name to a *LayoutHeader, or returns a *LibraryError.
	Load(name string) (*LayoutHeader, error)
}

// PluginLoader loads providers from Go plugin (.so) files on disk using
// the standard library's plugin package. Each path is opened at most
// once; repeated loads of the same path return the cached header.
type PluginLoader struct {
	cache xsync.Map[string, *LayoutHeader]
}

// Load implements [Loader].
func (l *PluginLoader) Load(path string) (*LayoutHeader, error) {
	if h, ok := l.cache.Load(path); ok {
		return h, nil
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, &LibraryError{Kind: OpenError, ModuleName: path, Err: err}
	}

	sym, err := p.Lookup(rootModuleSymbol)
	if err != nil {
		return nil, &LibraryError{Kind: GetSymbolError, ModuleName: path, Err: err}
	}

	header, ok := sym.(*LayoutHeader)
	if !ok {
		return nil, &LibraryError{
			Kind: InvalidAbiHeader, ModuleName: path,
			FoundHeader: fmt.Sprintf("%T", sym),
		}
	}

	h, _ := l.cache.LoadOrStore(path, func() *LayoutHeader { return header })
	return h, nil
}

// LinkedLoader resolves providers that are compiled directly into the
// host binary rather than dynamically loaded: each is just a registered
// LayoutHeader value. Used by tests and by hosts that want sabi's
// compatibility guarantees between statically-linked modules.
type LinkedLoader struct {
	modules map[string]*LayoutHeader
}

// NewLinkedLoader constructs a LinkedLoader with no registered modules.
func NewLinkedLoader() *LinkedLoader {
	return &LinkedLoader{modules: make(map[string]*LayoutHeader)}
}

// Register associates name with header for subsequent Load calls.
func (l *LinkedLoader) Register(name string, header *LayoutHeader) {
	l.modules[name] = header
}

// Load implements [Loader].
func (l *LinkedLoader) Load(name string) (*LayoutHeader, error) {
	h, ok := l.modules[name]
	if !ok {
		return nil, &LibraryError{Kind: GetSymbolError, ModuleName: name, Err: fmt.Errorf("no module registered under %q", name)}
	}
	return h, nil
}

// Open loads a provider through loader, validates its LayoutHeader, checks
// it for ABI compatibility against iface, and — only if that succeeds —
// calls its Construct function and returns the resulting root reference.
// The caller recovers the concrete root-module type with [CastPrefixRef].
func Open(loader Loader, name string, iface *TypeLayout, opts ...CheckOption) (RawPrefixRef, error) {
	var zero RawPrefixRef

	header, err := loader.Load(name)
	if err != nil {
		if le, ok := err.(*LibraryError); ok {
			return zero, le
		}
		return zero, &LibraryError{Kind: OpenError, ModuleName: name, Err: err}
	}

	if header.Magic != abiMagic {
		return zero, &LibraryError{
			Kind: InvalidAbiHeader, ModuleName: name,
			FoundHeader: fmt.Sprintf("%x", header.Magic),
		}
	}
	if header.AbiMajor != abiMajor {
		return zero, &LibraryError{
			Kind: InvalidCAbi, ModuleName: name,
			ExpectedHeader: fmt.Sprintf("abi v%d", abiMajor),
			FoundHeader:    fmt.Sprintf("abi v%d", header.AbiMajor),
		}
	}

	cfg := buildCheckOptions(opts)
	debug.Log(nil, "library.open", "%s@%s build=%s", header.ModuleName, header.Version, header.BuildID)

	if cfg.requireVersion != nil {
		implVersion, err := ParseVersion(header.Version)
		if err != nil {
			if cfg.strictVersioning {
				return zero, &LibraryError{Kind: ParseVersionError, ModuleName: name, Version: header.Version, Err: err}
			}
		} else if !cfg.requireVersion.CompatibleWith(implVersion) {
			return zero, &LibraryError{
				Kind: IncompatibleVersionNumber, ModuleName: name, Version: header.Version,
				ExpectedHeader: cfg.requireVersion.String(), FoundHeader: implVersion.String(),
			}
		}
	}

	if errs := Check(iface, header.Layout, cfg.globals); errs != nil {
		return zero, &LibraryError{
			Kind: AbiInstabilityErr, ModuleName: name, Version: header.Version,
			Abi: errs.(*AbiInstabilityErrors),
		}
	}

	ref, err := header.Construct()
	if err != nil {
		return zero, &LibraryError{Kind: RootModuleErr, ModuleName: name, Version: header.Version, Err: err}
	}
	return ref, nil
}
