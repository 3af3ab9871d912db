// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package matrix

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/pipebatch/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}

	root := &cli.Command{
		Name:           "pipebatch",
		Commands:       []*cli.Command{newMatrixCmd()},
		Writer:         out,
		ErrWriter:      io.Discard,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}

	ctx := ctxlog.NewForTUI(context.Background(), io.Discard)
	err := root.Run(ctx, append([]string{"pipebatch", "matrix"}, args...))

	return out.String(), err
}

func TestMatrix_Text(t *testing.T) {
	out, err := runCLI(t, "-i", "in", "--tool", "tool", "-p", "graph")
	require.NoError(t, err)

	want := `Number of compute instances: 4
 + [Compute instance: 0] tool -d in -o data/0_graph_-e_none_ -p graph
 + [Compute instance: 1] tool -d in -o data/1_graph_-e_none_-a_none -p graph -a none
 + [Compute instance: 2] tool -d in -o data/2_graph_-e_none_-v_-a_chunk-header-node -p graph -v -a chunk-header-node
 + [Compute instance: 3] tool -d in -o data/3_graph_-e_none_-v_-a_none -p graph -v -a none
`
	assert.Equal(t, want, out)
}

func TestMatrix_YAML(t *testing.T) {
	out, err := runCLI(t, "-i", "in", "--tool", "tool", "--format", "yaml", "-p", "chunk-extraction")
	require.NoError(t, err)

	var got []yamlJob
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got, 6)

	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, "chunk-extraction", got[0].Pipeline)
	assert.Equal(t, "none", got[0].EntropyFilter)
	assert.Equal(t, "none", got[0].ByteSizeFilter)
	assert.Equal(t, "tool", got[0].Command[0])
	assert.Equal(t, "activate", got[5].ByteSizeFilter)
	assert.Equal(t, "min-of-chunk-treshold-entropy", got[5].EntropyFilter)
}

func TestMatrix_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.yaml")
	require.NoError(t, writeFile(path, `
entropy_filters: [none]
byte_size_filters: [none, activate]
filtered:
  - name: value-node-embedding
unfiltered:
  - name: graph
`))

	out, err := runCLI(t, "-m", path, "--tool", "tool", "-i", "in")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Number of compute instances: 3", lines[0])
	assert.Contains(t, lines[3], "-p graph")
}

func TestMatrix_Errors(t *testing.T) {
	_, err := runCLI(t, "-p", "no-such-pipeline")

	var ec cli.ExitCoder
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, 1, ec.ExitCode())

	_, err = runCLI(t, "--format", "json")
	assert.ErrorContains(t, err, ErrUnknownFormat.Error())
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
