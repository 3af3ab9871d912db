// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package matrixfile

import (
	"context"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/pipebatch/internal/jobspec"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlMatrix = `
entropy_filters: [none, only-max-entropy]
byte_size_filters: [none]
filtered:
  - name: value-node-embedding
  - name: chunk-extraction
    args: ["-a", "chunk-header-node"]
unfiltered:
  - name: graph
    args: ["-a", "none"]
`

const hclMatrix = `
entropy_filters   = ["none", "only-max-entropy"]
byte_size_filters = ["none"]

pipeline "filtered" {
  name = "value-node-embedding"
}

pipeline "filtered" {
  name = "chunk-extraction"
  args = ["-a", "chunk-header-node"]
}

pipeline "unfiltered" {
  name = "graph"
  args = ["-a", "none"]
}
`

func expectedSmallMatrix() jobspec.Matrix {
	return jobspec.Matrix{
		EntropyFilters:  []string{"none", "only-max-entropy"},
		ByteSizeFilters: []string{"none"},
		Filtered: []jobspec.Pipeline{
			{Name: "value-node-embedding"},
			{Name: "chunk-extraction", Args: []string{"-a", "chunk-header-node"}},
		},
		Unfiltered: []jobspec.Pipeline{
			{Name: "graph", Args: []string{"-a", "none"}},
		},
	}
}

func stubFs(t *testing.T, files map[string]string) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}

	stubs := gostub.Stub(&FsFactory, func() afero.Fs { return fs })
	t.Cleanup(stubs.Reset)
}

func TestLoad_YAMLAndHCLAgree(t *testing.T) {
	stubFs(t, map[string]string{
		"/matrix/small.yaml": yamlMatrix,
		"/matrix/small.hcl":  hclMatrix,
	})

	for _, name := range []string{"/matrix/small.yaml", "/matrix/small.hcl"} {
		t.Run(name, func(t *testing.T) {
			m, err := Load(context.Background(), name, Vars{})
			require.NoError(t, err)
			assert.Equal(t, expectedSmallMatrix(), m)
			assert.Equal(t, 5, m.Size())
		})
	}
}

func TestLoad_RelativePath(t *testing.T) {
	stubFs(t, map[string]string{"small.yml": yamlMatrix})

	m, err := Load(context.Background(), "small.yml", Vars{})
	require.NoError(t, err)
	assert.Equal(t, expectedSmallMatrix(), m)
}

func TestDecode_DefaultMatrixRoundTrip(t *testing.T) {
	data, err := yaml.Marshal(jobspec.DefaultMatrix())
	require.NoError(t, err)

	m, err := Decode("default.yaml", data, Vars{})
	require.NoError(t, err)
	assert.Equal(t, jobspec.DefaultMatrix(), m)
}

func TestDecode_HCLVariables(t *testing.T) {
	content := `
pipeline "unfiltered" {
  name = "graph"
  args = ["--cache", "${var.output_root}/cache", "--source", var.input]
}
`
	m, err := Decode("vars.hcl", []byte(content), Vars{Input: "/data/in", OutputRoot: "out"})
	require.NoError(t, err)
	require.Len(t, m.Unfiltered, 1)
	assert.Equal(t, []string{"--cache", "out/cache", "--source", "/data/in"}, m.Unfiltered[0].Args)
	assert.Empty(t, m.Filtered)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		content  string
		wantErr  error
	}{
		{name: "unknown extension", fileName: "m.json", content: "{}", wantErr: ErrUnsupportedFormat},
		{name: "bad yaml", fileName: "m.yaml", content: "filtered: [", wantErr: ErrLoadMatrix},
		{name: "unknown yaml field", fileName: "m.yaml", content: "pipelines: []", wantErr: ErrLoadMatrix},
		{name: "bad hcl", fileName: "m.hcl", content: `pipeline "filtered" {`, wantErr: ErrLoadMatrix},
		{name: "missing hcl name", fileName: "m.hcl", content: `pipeline "filtered" {}`, wantErr: ErrLoadMatrix},
		{
			name:     "unknown family",
			fileName: "m.hcl",
			content:  "pipeline \"sometimes\" {\n  name = \"graph\"\n}\n",
			wantErr:  jobspec.ErrInvalidMatrix,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.fileName, []byte(tt.content), Vars{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrLoadMatrix)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	stubFs(t, map[string]string{
		"/m/invalid.yaml": "filtered:\n  - name: graph\n",
	})

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{name: "empty url", url: "", wantErr: ErrEmptyURL},
		{name: "missing local file", url: "/m/missing.yaml", wantErr: ErrLoadMatrix},
		{name: "fails validation", url: "/m/invalid.yaml", wantErr: jobspec.ErrInvalidMatrix},
		{name: "remote fetch fails", url: "git::http://notexist//file.yaml", wantErr: ErrLoadMatrix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), tt.url, Vars{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func Test_resolveRemote(t *testing.T) {
	tests := []struct {
		url      string
		wantSrc  string
		wantMode getter.Mode
		wantFile string
		wantErr  bool
	}{
		{
			url:      "git::https://github.com/org/repo.git//matrices/full.yaml?ref=v1.0.0",
			wantSrc:  "git::https://github.com/org/repo.git//matrices?ref=v1.0.0",
			wantMode: getter.ModeDir,
			wantFile: "full.yaml",
		},
		{
			url:      "git::https://github.com/org/repo.git//full.hcl",
			wantSrc:  "git::https://github.com/org/repo.git",
			wantMode: getter.ModeDir,
			wantFile: "full.hcl",
		},
		{
			url:      "https://example.com/archive.zip//a/b/m.yaml",
			wantSrc:  "https://example.com/archive.zip//a/b",
			wantMode: getter.ModeDir,
			wantFile: "m.yaml",
		},
		{
			url:      "https://example.com/full.yaml",
			wantSrc:  "https://example.com/full.yaml",
			wantMode: getter.ModeFile,
			wantFile: "full.yaml",
		},
		{url: "git::https://github.com/org/repo.git//dir/", wantErr: true},
		{url: "https://example.com/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := resolveRemote(tt.url)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrLoadMatrix)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantSrc, got.src)
			assert.Equal(t, tt.wantMode, got.mode)
			assert.Equal(t, tt.wantFile, got.file)
		})
	}
}

func Test_fileNameFromURL(t *testing.T) {
	assert.Equal(t, "full.yaml", fileNameFromURL("https://example.com/m/full.yaml?archive=false"))
	assert.Equal(t, "m.hcl", fileNameFromURL("s3::https://s3.amazonaws.com/bucket/m.hcl"))
	assert.Empty(t, fileNameFromURL("https://example.com/"))
}
