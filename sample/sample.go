// Package sample provides the reference external library: one selector and
// three checks, enough to exercise every path of the protocol. The sample
// plugin binary under examples/sampleplugin serves exactly this registry.
package sample

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hielements/extlib-go/plugin"
	"github.com/hielements/extlib-go/value"
)

// Name and Version identify the sample library in its metadata.
const (
	Name    = "sample"
	Version = "1.0.0"
)

// DefaultMaxFiles is the file_count_check limit applied when no explicit
// maximum argument is supplied.
const DefaultMaxFiles = 100

// NewRuntime builds a plugin runtime with the sample selector and checks
// registered.
func NewRuntime() *plugin.Runtime {
	rt := plugin.NewRuntime(Name, Version)
	rt.RegisterFunction("simple_selector", SimpleSelector)
	rt.RegisterCheck("file_count_check", FileCountCheck)
	rt.RegisterCheck("always_pass", AlwaysPass)
	rt.RegisterCheck("always_fail", AlwaysFail)
	return rt
}

// SimpleSelector resolves its first argument as a path under the workspace.
// A directory resolves to a Folder scope holding every file beneath it,
// recursively, in directory-listing order; a file resolves to a File scope
// holding just that file. A path that exists as neither resolves to an empty
// File scope with resolved still true, since "no matches" is not a failure.
func SimpleSelector(args []value.Value, workspace string) (value.Value, error) {
	path := ""
	if len(args) > 0 {
		path = args[0].CoerceString()
	}

	full := filepath.Join(workspace, path)
	info, err := os.Stat(full)
	switch {
	case err == nil && info.IsDir():
		files := []string{}
		walkErr := filepath.WalkDir(full, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				files = append(files, p)
			}
			return nil
		})
		if walkErr != nil {
			return value.Null(), fmt.Errorf("failed to walk %s: %w", full, walkErr)
		}
		return value.NewScope(value.Scope{
			Kind:     value.FolderKind(path),
			Paths:    files,
			Resolved: true,
		}), nil

	case err == nil:
		return value.NewScope(value.Scope{
			Kind:     value.FileKind(path),
			Paths:    []string{full},
			Resolved: true,
		}), nil

	default:
		return value.NewScope(value.Scope{
			Kind:     value.FileKind(path),
			Paths:    []string{},
			Resolved: true,
		}), nil
	}
}

// FileCountCheck passes when the scope in the first argument holds at most N
// files, where N is the second argument (default DefaultMaxFiles). A first
// argument that is not a scope makes the check unevaluable, which is an
// Error outcome, not a protocol error.
func FileCountCheck(args []value.Value, _ string) (value.CheckResult, error) {
	var scope *value.Scope
	if len(args) > 0 {
		scope, _ = args[0].AsScope()
	}
	if scope == nil {
		return value.Error("First argument must be a scope"), nil
	}

	max := int64(DefaultMaxFiles)
	if len(args) > 1 {
		n, err := args[1].CoerceInt()
		if err != nil {
			return value.CheckResult{}, err
		}
		max = n
	}

	count := int64(len(scope.Paths))
	if count <= max {
		return value.Pass(), nil
	}
	return value.Fail(fmt.Sprintf("Too many files: %d > %d", count, max)), nil
}

// AlwaysPass passes unconditionally.
func AlwaysPass(_ []value.Value, _ string) (value.CheckResult, error) {
	return value.Pass(), nil
}

// AlwaysFail fails with its first argument as the message, or a canned one.
func AlwaysFail(args []value.Value, _ string) (value.CheckResult, error) {
	message := "Always fails"
	if len(args) > 0 {
		message = args[0].CoerceString()
	}
	return value.Fail(message), nil
}
