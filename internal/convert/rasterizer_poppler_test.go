// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !mupdf

package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pdftoppmExecutor mimics pdftoppm by writing the named page files.
type pdftoppmExecutor struct {
	missing bool
	fail    bool
	pages   []string
	args    []string
}

func (e *pdftoppmExecutor) LookPath(file string) (string, error) {
	if e.missing {
		return "", errors.New("executable file not found in $PATH")
	}
	return "/usr/bin/" + file, nil
}

func (e *pdftoppmExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	_, err := e.RunCombined(ctx, name, args...)
	return err
}

func (e *pdftoppmExecutor) RunCombined(_ context.Context, name string, args ...string) ([]byte, error) {
	e.args = append([]string{name}, args...)
	if e.fail {
		return []byte("Syntax Error"), errors.New("exit status 1")
	}
	prefix := args[len(args)-1]
	for _, p := range e.pages {
		if err := os.WriteFile(prefix+"-"+p+".png", []byte("png"), 0o644); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func TestPopplerRasterizer(t *testing.T) {
	dir := t.TempDir()
	exec := &pdftoppmExecutor{pages: []string{"10", "02", "1", "9"}}
	r := NewRasterizer(exec)
	assert.Equal(t, "pdftoppm", r.Name())

	pages, err := r.Rasterize(context.Background(), "/work/input.pdf", dir, 96)
	require.NoError(t, err)

	assert.Equal(t, []string{"pdftoppm", "-r", "96", "-png", "/work/input.pdf", filepath.Join(dir, "page")}, exec.args)
	var names []string
	for _, p := range pages {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"page-1.png", "page-02.png", "page-9.png", "page-10.png"}, names)
}

func TestPopplerRasterizer_NotInstalled(t *testing.T) {
	r := NewRasterizer(&pdftoppmExecutor{missing: true})
	_, err := r.Rasterize(context.Background(), "in.pdf", t.TempDir(), 150)
	assert.Error(t, err)
}

func TestPopplerRasterizer_Fails(t *testing.T) {
	r := NewRasterizer(&pdftoppmExecutor{fail: true})
	_, err := r.Rasterize(context.Background(), "in.pdf", t.TempDir(), 150)
	assert.Error(t, err)
}
