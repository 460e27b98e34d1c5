package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/callspec/compiler"
	"github.com/wippyai/callspec/decl"
	"github.com/wippyai/callspec/diag"
	"github.com/wippyai/callspec/frontend/manifest"
	"github.com/wippyai/callspec/frontend/rust"
)

// run is the outcome of checking a set of inputs.
type run struct {
	Files  []string
	Result *compiler.Result
	// Front-end and assembly diagnostics, sorted by position.
	Diagnostics diag.List
}

func supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rs", ".yaml", ".yml":
		return true
	}
	return false
}

// expand resolves args into a sorted list of input files. Directories are
// walked for supported files; hidden directories and "target" are skipped.
func expand(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if !supported(arg) {
				return nil, fmt.Errorf("%s: unsupported input (want .rs, .yaml or .yml)", arg)
			}
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if p != arg && (strings.HasPrefix(name, ".") || name == "target") {
					return filepath.SkipDir
				}
				return nil
			}
			if supported(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// parseFile reads one input with the front-end its extension selects.
func parseFile(ctx context.Context, path string) ([]*decl.Declaration, diag.List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if strings.ToLower(filepath.Ext(path)) == ".rs" {
		return rust.NewParser().Parse(ctx, data, path)
	}
	decls, diags := manifest.Load(data, path)
	return decls, diags, nil
}

// check parses every file and compiles the declarations found.
func (a *app) check(ctx context.Context, args []string, metrics *compiler.Metrics) (*run, error) {
	files, err := expand(args)
	if err != nil {
		return nil, err
	}

	var (
		decls []*decl.Declaration
		diags diag.List
	)
	for _, f := range files {
		ds, fdiags, err := parseFile(ctx, f)
		if err != nil {
			return nil, err
		}
		decls = append(decls, ds...)
		diags.Merge(fdiags)
	}

	res, err := a.newCompiler(metrics).Compile(ctx, decls)
	if err != nil {
		return nil, err
	}
	diags.Merge(res.Diagnostics)

	a.log.Debug("checked inputs",
		zap.Int("files", len(files)),
		zap.Int("declarations", len(decls)),
		zap.Int("diagnostics", diags.Len()),
	)
	return &run{Files: files, Result: res, Diagnostics: diags.Sorted()}, nil
}

// failed reports whether the run should make check exit non-zero.
func (a *app) failed(r *run) bool {
	if !r.Diagnostics.Empty() {
		return true
	}
	return a.cfg.FailOnDeprecation && len(r.Result.Deprecations()) > 0
}
