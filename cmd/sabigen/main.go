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
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"buf.build/go/sabi/internal/debug"
)

var (
	output = flag.String("o", "sabi_gen.go", "output file name, written into the scanned package's directory")
	dryRun = flag.Bool("n", false, "print the generated source to stdout instead of writing it")
)

func run(pattern string) error {
	types, err := scanPackage(pattern)
	if err != nil {
		return err
	}
	if len(types) == 0 {
		fmt.Fprintf(os.Stderr, "sabigen: no //sabi:layout types found in %s\n", pattern)
		return nil
	}

	if err := verify(types); err != nil {
		return err
	}

	warnCycles(types)

	arena, tbl := buildSizeAlignTable(types)
	debug.Log(nil, "sabigen.sizealign", "%d types, %d byte arena", len(types), len(arena))

	if err := resolveNonExhaustiveStorage(types, tbl); err != nil {
		return err
	}

	src, err := emitPackage(types[0].Pkg.Name, types)
	if err != nil {
		return err
	}

	if *dryRun {
		_, err := os.Stdout.Write(src)
		return err
	}

	dir := filepath.Dir(types[0].Pkg.GoFiles[0])
	return os.WriteFile(filepath.Join(dir, *output), src, 0o644)
}

func main() {
	flag.Parse()
	pattern := "."
	if flag.NArg() > 0 {
		pattern = flag.Arg(0)
	}

	if err := run(pattern); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
