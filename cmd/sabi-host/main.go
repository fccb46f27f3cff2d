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

// sabi-host inspects the LayoutHeader a provider exports, without needing
// to be compiled against any particular interface's Go types. It loads
// each provider named in a manifest, prints its version and layout
// summary, and flags anything that looks wrong before a real host ever
// gets to the point of calling sabi.Open against it.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"

	"buf.build/go/sabi"
	"buf.build/go/sabi/internal/flag2"
)

var (
	manifestPath = flag.String("manifest", "providers.yaml", "path to a provider manifest")
	strict       = flag.Bool("strict", false, "fail the whole run if any one provider fails to load")
)

// manifest lists the providers a deployment expects to load, independent
// of any one of them's compiled interface — this tool only ever reports
// what a provider exports, it never checks it against anything.
type manifest struct {
	Providers []struct {
		Name string `yaml:"name"`
		Path string `yaml:"path"`
	} `yaml:"providers"`
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("sabi-host: parsing %s: %w", path, err)
	}
	return &m, nil
}

// wantsStrictMode reads the -strict flag back through flag2.Lookup rather
// than closing over the *bool main parsed it into, so this check can move
// into its own helper without threading the flag value down through every
// call in between.
func wantsStrictMode() bool {
	return flag2.Lookup[bool]("strict")
}

// inspect loads one provider and prints a one-line summary of its
// exported LayoutHeader. It never calls sabi.Open, since this tool has no
// compiled-in interface TypeLayout to check the provider against — that
// check is the real host's job; this is purely descriptive.
func inspect(name, path string, pageSize int) error {
	loader := &sabi.PluginLoader{}
	header, err := loader.Load(path)
	if err != nil {
		return fmt.Errorf("%s (%s): %w", name, path, err)
	}

	fmt.Printf("%s: module=%q version=%q build=%s abi=%d.%d layout=%s\n",
		name, header.ModuleName, header.Version, header.BuildID,
		header.AbiMajor, header.AbiMinor, header.Layout.String())

	if align := int(header.Layout.Mono.ReprAlign); align > pageSize {
		fmt.Fprintf(os.Stderr,
			"sabi-host: warning: %s's root layout requires %d-byte alignment, larger than this host's %d-byte page size\n",
			name, align, pageSize)
	}

	return nil
}

func run(path string) error {
	m, err := loadManifest(path)
	if err != nil {
		return err
	}

	pageSize := unix.Getpagesize()
	runID := uuid.New()
	fmt.Printf("sabi-host: run %s, %d provider(s), page size %d\n", runID, len(m.Providers), pageSize)

	var failed int
	for _, p := range m.Providers {
		if err := inspect(p.Name, p.Path, pageSize); err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed++
		}
	}

	if failed > 0 && wantsStrictMode() {
		return fmt.Errorf("sabi-host: %d of %d provider(s) failed to load", failed, len(m.Providers))
	}
	return nil
}

func main() {
	flag.Parse()

	if err := run(*manifestPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
