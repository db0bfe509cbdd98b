package architecture_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const modulePath = "github.com/SharedMindsApp/SharedMindsMobileApp-sub009"

type layerRule struct {
	sourcePrefix string
	forbidden    []string
	hint         string
}

var rules = []layerRule{
	{
		sourcePrefix: modulePath + "/internal/domain",
		forbidden: []string{
			modulePath + "/internal",
			modulePath + "/cmd",
			modulePath + "/pkg",
		},
		hint: "domain may only import domain",
	},
	{
		sourcePrefix: modulePath + "/internal/service",
		forbidden: []string{
			modulePath + "/internal/api",
			modulePath + "/internal/app",
			modulePath + "/internal/db",
			modulePath + "/internal/declarative",
			modulePath + "/internal/middleware",
			modulePath + "/cmd",
			modulePath + "/pkg",
		},
		hint: "service depends on domain only",
	},
	{
		sourcePrefix: modulePath + "/internal/db",
		forbidden: []string{
			modulePath + "/internal/api",
			modulePath + "/internal/app",
			modulePath + "/internal/service",
			modulePath + "/internal/declarative",
			modulePath + "/internal/middleware",
			modulePath + "/cmd",
			modulePath + "/pkg",
		},
		hint: "db depends on domain and db-local packages",
	},
	{
		sourcePrefix: modulePath + "/internal/api",
		forbidden: []string{
			modulePath + "/internal/app",
			modulePath + "/internal/db",
			modulePath + "/internal/declarative",
			modulePath + "/cmd",
			modulePath + "/pkg",
		},
		hint: "api depends on service, middleware and domain",
	},
	{
		sourcePrefix: modulePath + "/internal/middleware",
		forbidden: []string{
			modulePath + "/internal/api",
			modulePath + "/internal/app",
			modulePath + "/internal/db",
			modulePath + "/internal/service",
			modulePath + "/cmd",
			modulePath + "/pkg",
		},
		hint: "middleware depends on domain",
	},
	{
		sourcePrefix: modulePath + "/pkg/cli",
		forbidden: []string{
			modulePath + "/internal/api",
			modulePath + "/internal/middleware",
			modulePath + "/cmd",
		},
		hint: "the CLI goes through internal/app, not the HTTP surface",
	},
}

func TestImportBoundaries(t *testing.T) {
	files, err := collectGoFiles(repoRootDir())
	require.NoError(t, err)

	violations := make([]string, 0)
	fset := token.NewFileSet()

	for _, file := range files {
		if strings.HasSuffix(file, "_test.go") {
			continue
		}
		sourcePkg := packageImportPath(file)
		rule, ok := findRule(sourcePkg)
		if !ok {
			continue
		}

		parsed, parseErr := parser.ParseFile(fset, file, nil, parser.ImportsOnly)
		require.NoErrorf(t, parseErr, "parse imports for %s", file)

		for _, imp := range parsed.Imports {
			importPath := strings.Trim(imp.Path.Value, "\"")
			if !strings.HasPrefix(importPath, modulePath+"/") || hasPathPrefix(importPath, sourcePkg) {
				continue
			}
			if violatesRule(importPath, rule.forbidden) {
				violations = append(violations,
					sourcePkg+" imports "+importPath+" via "+relToRepoRoot(file)+"; allowed direction: "+rule.hint)
			}
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		t.Fatalf("%s", strings.Join(violations, "\n"))
	}
}

func TestIntegrationTestsRequireBuildTag(t *testing.T) {
	files, err := collectGoFiles(repoRootDir())
	require.NoError(t, err)

	violations := make([]string, 0)
	for _, file := range files {
		if !strings.HasSuffix(file, "_integration_test.go") {
			continue
		}
		content, readErr := os.ReadFile(file)
		require.NoErrorf(t, readErr, "read %s", file)
		if !strings.Contains(string(content), "//go:build integration") {
			violations = append(violations, "missing //go:build integration in "+relToRepoRoot(file))
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		t.Fatalf("%s", strings.Join(violations, "\n"))
	}
}

// collectGoFiles walks root, skipping hidden and underscore-prefixed
// directories the go tool also ignores.
func collectGoFiles(root string) ([]string, error) {
	files := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".go") {
			files = append(files, filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func repoRootDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

func relToRepoRoot(path string) string {
	rel, err := filepath.Rel(repoRootDir(), path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func packageImportPath(file string) string {
	return modulePath + "/" + filepath.ToSlash(filepath.Dir(relToRepoRoot(file)))
}

func findRule(sourcePkg string) (layerRule, bool) {
	for _, rule := range rules {
		if hasPathPrefix(sourcePkg, rule.sourcePrefix) {
			return rule, true
		}
	}
	return layerRule{}, false
}

func violatesRule(importPath string, forbidden []string) bool {
	for _, prefix := range forbidden {
		if hasPathPrefix(importPath, prefix) {
			return true
		}
	}
	return false
}

func hasPathPrefix(value string, prefix string) bool {
	return value == prefix || strings.HasPrefix(value, prefix+"/")
}
