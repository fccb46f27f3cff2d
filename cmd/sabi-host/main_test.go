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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "providers.yaml")
	content := "providers:\n  - name: text_operations\n    path: ./text_operations.so\n  - name: shop\n    path: ./shop.so\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := loadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Providers, 2)
	assert.Equal(t, "text_operations", m.Providers[0].Name)
	assert.Equal(t, "./shop.so", m.Providers[1].Path)
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := loadManifest("/nonexistent/providers.yaml")
	assert.Error(t, err)
}

func TestInspectUnknownPath(t *testing.T) {
	err := inspect("missing", "/nonexistent/missing.so", 4096)
	assert.Error(t, err)
}
