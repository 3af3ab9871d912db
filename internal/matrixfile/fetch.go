// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package matrixfile

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/spf13/afero"
)

// ErrEmptyURL is returned when Load is called without a source.
var ErrEmptyURL = errors.New("matrix file URL is empty")

const fileScheme = "file://"

// fetch returns the file name and contents of the document at src.
// Local paths are read through FsFactory; anything else is downloaded with go-getter.
func fetch(ctx context.Context, src string) (string, []byte, error) {
	if src == "" {
		return "", nil, errors.Join(ErrLoadMatrix, ErrEmptyURL)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", nil, errors.Join(ErrLoadMatrix, err)
	}

	if isLocal(src, wd) {
		p := strings.TrimPrefix(src, fileScheme)

		data, err := afero.ReadFile(FsFactory(), p)
		if err != nil {
			return "", nil, errors.Join(ErrLoadMatrix, err)
		}

		return filepath.Base(p), data, nil
	}

	return download(ctx, src, wd)
}

func isLocal(src, wd string) bool {
	req := &getter.Request{Src: src, Pwd: wd}
	ok, err := getter.Detect(req, new(getter.FileGetter))

	return ok && err == nil
}

// download fetches a remote source into a temporary directory and reads the file from there.
func download(ctx context.Context, src, wd string) (string, []byte, error) {
	rs, err := resolveRemote(src)
	if err != nil {
		return "", nil, err
	}

	tmpDir, err := os.MkdirTemp("", "pipebatch-getter-*")
	if err != nil {
		return "", nil, errors.Join(ErrLoadMatrix, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	client := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     rs.src,
		Pwd:     wd,
		GetMode: rs.mode,
		Dst:     filepath.Join(tmpDir, rs.file),
	}

	if rs.mode == getter.ModeDir {
		req.Dst = filepath.Join(tmpDir, "g")
	}

	res, err := client.Get(ctx, req)
	if err != nil {
		return "", nil, errors.Join(ErrLoadMatrix, err)
	}

	target := res.Dst
	if rs.mode == getter.ModeDir {
		target = filepath.Join(res.Dst, rs.file)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return "", nil, errors.Join(ErrLoadMatrix, err)
	}

	return rs.file, data, nil
}

// remoteSource describes how a remote matrix file is downloaded.
type remoteSource struct {
	src  string
	mode getter.Mode
	file string // for ModeDir, relative to the downloaded directory
}

// resolveRemote works out how to download the matrix file at src.
// A file addressed with the subdirectory syntax, as in
// git::https://host/repo.git//matrices/full.yaml?ref=v1, sits inside a
// repository or archive, so the directory holding it is fetched instead.
// Any other URL is fetched as a single file.
func resolveRemote(src string) (remoteSource, error) {
	base, subdir := getter.SourceDirSubdir(src)
	if subdir == "" {
		name := fileNameFromURL(src)
		if name == "" {
			return remoteSource{}, fmt.Errorf("%w: invalid URL format: %s", ErrLoadMatrix, src)
		}

		return remoteSource{src: src, mode: getter.ModeFile, file: name}, nil
	}

	dir, name := path.Split(subdir)
	if name == "" || name == "." || name == ".." {
		return remoteSource{}, fmt.Errorf("%w: %s does not name a matrix file", ErrLoadMatrix, src)
	}

	if dir = strings.Trim(dir, "/"); dir != "" {
		u, query, hasQuery := strings.Cut(base, "?")

		base = u + "//" + dir
		if hasQuery {
			base += "?" + query
		}
	}

	return remoteSource{src: base, mode: getter.ModeDir, file: name}, nil
}

// fileNameFromURL returns the last path element of a plain URL, ignoring any query.
func fileNameFromURL(src string) string {
	if i := strings.Index(src, "::"); i >= 0 {
		src = src[i+2:]
	}

	u, err := url.Parse(src)
	if err != nil || u.Path == "" {
		return ""
	}

	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return ""
	}

	return name
}
