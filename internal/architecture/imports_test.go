package architecture_test

import (
	"bufio"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

type importedFile struct {
	rel     string
	imports []string
}

// loadInternalImports parses the import block of every non-test file under
// internal/.
func loadInternalImports(t *testing.T) (string, []importedFile) {
	t.Helper()

	start, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	root, err := findModuleRoot(start)
	if err != nil {
		t.Fatalf("find module root: %v", err)
	}
	modulePath, err := readModulePath(filepath.Join(root, "go.mod"))
	if err != nil {
		t.Fatalf("read module path: %v", err)
	}

	internalDir := filepath.Join(root, "internal")
	fset := token.NewFileSet()
	var files []importedFile

	walkErr := filepath.WalkDir(internalDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "vendor", "node_modules", ".gocache", "testutil":
				return filepath.SkipDir
			default:
				return nil
			}
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		out := importedFile{rel: filepath.ToSlash(rel)}
		for _, spec := range f.Imports {
			if spec == nil || spec.Path == nil {
				continue
			}
			if imp, err := strconv.Unquote(spec.Path.Value); err == nil {
				out.imports = append(out.imports, imp)
			}
		}
		files = append(files, out)
		return nil
	})
	if walkErr != nil {
		t.Fatalf("walk internal/: %v", walkErr)
	}
	return modulePath, files
}

func TestImportBoundaries(t *testing.T) {
	modulePath, files := loadInternalImports(t)

	var violations []string
	for _, f := range files {
		disallowed := disallowedImports(modulePath, layerFor(f.rel))
		for _, imp := range f.imports {
			for _, bad := range disallowed {
				if strings.HasPrefix(imp, bad) {
					violations = append(violations, fmt.Sprintf("- %s imports %q (disallowed: %q)", f.rel, imp, bad))
					break
				}
			}
		}
	}
	if len(violations) > 0 {
		t.Fatalf("import boundary violations:\n%s", strings.Join(violations, "\n"))
	}
}

// Certificate hashes are derived in exactly one place. The logger's field
// hashing is the only other sha256 user.
func TestHashDerivationStaysInLedgerAggregate(t *testing.T) {
	_, files := loadInternalImports(t)

	allowed := map[string]bool{
		"internal/data/aggregates/certificate_hash.go": true,
		"internal/platform/logger/logger.go":           true,
	}
	for _, f := range files {
		for _, imp := range f.imports {
			if imp == "crypto/sha256" && !allowed[f.rel] {
				t.Fatalf("%s imports crypto/sha256; certificate hashes must come from the ledger aggregate", f.rel)
			}
		}
	}
}

func layerFor(rel string) string {
	switch {
	case strings.HasPrefix(rel, "internal/platform/"):
		return "platform"
	case strings.HasPrefix(rel, "internal/domain/"):
		return "domain"
	case strings.HasPrefix(rel, "internal/data/"):
		return "data"
	case strings.HasPrefix(rel, "internal/modules/"):
		return "modules"
	case strings.HasPrefix(rel, "internal/http/"):
		return "http"
	default:
		return ""
	}
}

func disallowedImports(modulePath string, layer string) []string {
	app := modulePath + "/internal/app"
	httpPkg := modulePath + "/internal/http"
	modules := modulePath + "/internal/modules/"
	data := modulePath + "/internal/data/"
	switch layer {
	case "platform":
		return []string{app, httpPkg, modules, data, modulePath + "/internal/domain/", modulePath + "/internal/observability"}
	case "domain":
		return []string{app, httpPkg, modules, data, modulePath + "/internal/observability"}
	case "data":
		return []string{app, httpPkg, modules}
	case "modules":
		// Ledger access goes through the domain aggregate contract.
		return []string{app, httpPkg, data}
	case "http":
		return []string{app, data}
	default:
		return nil
	}
}

func findModuleRoot(start string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found from %s", start)
		}
		dir = parent
	}
}

func readModulePath(goModPath string) (string, error) {
	f, err := os.Open(goModPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "module ") {
			continue
		}
		mp := strings.TrimSpace(strings.TrimPrefix(line, "module "))
		if mp == "" {
			return "", fmt.Errorf("empty module path in %s", goModPath)
		}
		return mp, nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("module path not found in %s", goModPath)
}
