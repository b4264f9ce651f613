package architecture_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const modulesPrefix = "hostbridge/internal/modules/"

// Transport and presentation libraries belong to adapters and cmd only.
var adapterOnlyImports = []string{
	"google.golang.org/grpc",
	"github.com/hashicorp/go-plugin",
	"github.com/go-chi/chi",
	"github.com/charmbracelet/",
}

type goFile struct {
	path    string
	imports []string
}

func walkGoFiles(t *testing.T, root string) []goFile {
	t.Helper()
	fset := token.NewFileSet()
	var files []goFile
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		node, parseErr := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if parseErr != nil {
			return parseErr
		}
		file := goFile{path: filepath.ToSlash(path)}
		for _, imp := range node.Imports {
			file.imports = append(file.imports, strings.Trim(imp.Path.Value, `"`))
		}
		files = append(files, file)
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return files
}

func TestHexagonalLayerImports(t *testing.T) {
	t.Parallel()
	for _, file := range walkGoFiles(t, filepath.Join("..", "modules")) {
		module := moduleName(file.path)
		layer := detectLayer(file.path)
		if module == "" || layer == "" {
			continue
		}
		for _, importPath := range file.imports {
			if strings.HasPrefix(importPath, modulesPrefix) && violatesLayerRule(module, layer, importPath) {
				t.Fatalf("forbidden import in %s (%s): %s", file.path, layer, importPath)
			}
			if !strings.HasPrefix(layer, "adapter/") && isAdapterOnly(importPath) {
				t.Fatalf("%s (%s) imports transport library %s", file.path, layer, importPath)
			}
		}
	}
}

func TestPlatformDoesNotImportModules(t *testing.T) {
	t.Parallel()
	for _, file := range walkGoFiles(t, filepath.Join("..", "platform")) {
		for _, importPath := range file.imports {
			if strings.HasPrefix(importPath, modulesPrefix) {
				t.Fatalf("platform package %s imports module %s", file.path, importPath)
			}
		}
	}
}

func isAdapterOnly(importPath string) bool {
	for _, prefix := range adapterOnlyImports {
		if strings.HasPrefix(importPath, prefix) {
			return true
		}
	}
	return false
}

func moduleName(path string) string {
	parts := strings.Split(path, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "modules" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func detectLayer(path string) string {
	for _, layer := range []string{"adapter/in", "adapter/out", "usecase", "service", "domain", "port/in", "port/out", "dto"} {
		if strings.Contains(path, "/"+layer+"/") {
			return layer
		}
	}
	return ""
}

func isPortIn(path string) bool {
	return strings.Contains(path, "/port/in/") || strings.HasSuffix(path, "/port/in")
}

func isDTO(path string) bool {
	return strings.Contains(path, "/dto/") || strings.HasSuffix(path, "/dto")
}

func violatesLayerRule(module, layer, importPath string) bool {
	sameModule := strings.HasPrefix(importPath, modulesPrefix+module+"/")
	if !sameModule {
		if strings.Contains(importPath, "/service/") || strings.Contains(importPath, "/adapter/") || strings.Contains(importPath, "/usecase/") {
			return true
		}
		if isPortIn(importPath) || isDTO(importPath) {
			return false
		}
	}

	switch layer {
	case "adapter/in":
		return !isPortIn(importPath) && !isDTO(importPath)
	case "usecase":
		return strings.Contains(importPath, "/adapter/")
	case "service":
		return strings.Contains(importPath, "/adapter/") || strings.Contains(importPath, "/usecase/")
	case "domain":
		return strings.Contains(importPath, "/adapter/") || strings.Contains(importPath, "/usecase/") || strings.Contains(importPath, "/service/")
	default:
		return false
	}
}
