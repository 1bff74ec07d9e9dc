// Command symposium-tool-gen scans Go source files for functions annotated
// with the symposium:agentTool directive and generates the tool.Definition
// bindings for them.
//
// For a function like:
//
//	// getWeather returns the weather for a location.
//	//
//	//symposium:agentTool
//	func getWeather(location string) (string, error) { ... }
//
// it writes a sibling <file>.symposium.go containing:
//
//	var getWeatherTool = tool.Must(getWeather, ...)
//
// Usage:
//
//	symposium-tool-gen -path <file-or-directory> [-export]
package main

import (
	"bytes"
	"flag"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
	"mvdan.cc/gofumpt/format"
)

const toolDirective = "symposium:agentTool"

// generatedSuffix is the suffix for generated files, they are skipped when
// scanning so repeated runs don't generate bindings for bindings.
const generatedSuffix = ".symposium.go"

var log zerolog.Logger

// osExit is swapped out in tests.
var osExit = os.Exit

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	log = zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: slog.LevelDebug}),
	))
}

// toolFuncInfo captures what the generator needs to know about an annotated
// function: its name, the doc comments minus the directive, and its
// parameter list.
type toolFuncInfo struct {
	name        string
	comments    []*ast.Comment
	params      []*ast.Field
	exportTools bool
}

// collectTools walks the file's declarations and returns every function
// carrying the tool directive in its doc comment.
func collectTools(file *ast.File, exportTools bool) []toolFuncInfo {
	var tools []toolFuncInfo

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}

		annotated := false
		var comments []*ast.Comment
		for _, comment := range fn.Doc.List {
			if strings.Contains(comment.Text, toolDirective) {
				annotated = true
				continue
			}
			comments = append(comments, comment)
		}
		if !annotated {
			continue
		}

		info := toolFuncInfo{
			name:        fn.Name.Name,
			comments:    comments,
			exportTools: exportTools,
		}
		if fn.Type.Params != nil {
			info.params = fn.Type.Params.List
		}
		tools = append(tools, info)
	}

	return tools
}

// toolVarName derives the generated variable name from the function name.
func toolVarName(tf toolFuncInfo) string {
	name := tf.name
	if tf.exportTools {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return name + "Tool"
}

// toolDescription flattens the doc comments into a single description line.
func toolDescription(tf toolFuncInfo) string {
	var parts []string
	for _, comment := range tf.comments {
		text := strings.TrimSpace(strings.TrimPrefix(comment.Text, "//"))
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// paramNames returns the function's parameter names in declaration order.
func paramNames(tf toolFuncInfo) []string {
	var names []string
	for _, field := range tf.params {
		for _, ident := range field.Names {
			names = append(names, ident.Name)
		}
	}
	return names
}

// createToolVariableAST builds the var declaration binding the annotated
// function to a tool.Definition through tool.Must.
func createToolVariableAST(tf toolFuncInfo) ast.Decl {
	toolPkg := func(fn string, args ...ast.Expr) ast.Expr {
		return &ast.CallExpr{
			Fun:  &ast.SelectorExpr{X: ast.NewIdent("tool"), Sel: ast.NewIdent(fn)},
			Args: args,
		}
	}
	quoted := func(s string) ast.Expr {
		return &ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(s)}
	}

	args := []ast.Expr{
		ast.NewIdent(tf.name),
		toolPkg("Name", quoted(tf.name)),
	}
	if desc := toolDescription(tf); desc != "" {
		args = append(args, toolPkg("Description", quoted(desc)))
	}
	if names := paramNames(tf); len(names) > 0 {
		quotedNames := make([]ast.Expr, len(names))
		for i, name := range names {
			quotedNames[i] = quoted(name)
		}
		args = append(args, toolPkg("Parameters", quotedNames...))
	}

	decl := &ast.GenDecl{
		Tok: token.VAR,
		Specs: []ast.Spec{
			&ast.ValueSpec{
				Names:  []*ast.Ident{ast.NewIdent(toolVarName(tf))},
				Values: []ast.Expr{toolPkg("Must", args...)},
			},
		},
	}
	if len(tf.comments) > 0 {
		decl.Doc = &ast.CommentGroup{List: tf.comments}
	}

	return decl
}

// createToolsFile assembles the generated file: the package clause, the tool
// package import, and one variable declaration per annotated function.
func createToolsFile(pkgName string, toolFuncs []toolFuncInfo) *ast.File {
	decls := []ast.Decl{
		&ast.GenDecl{
			Tok: token.IMPORT,
			Specs: []ast.Spec{
				&ast.ImportSpec{
					Path: &ast.BasicLit{
						Kind:  token.STRING,
						Value: strconv.Quote("github.com/agora-dev/symposium/tool"),
					},
				},
			},
		},
	}
	for _, tf := range toolFuncs {
		decls = append(decls, createToolVariableAST(tf))
	}

	return &ast.File{
		Name:  ast.NewIdent(pkgName),
		Decls: decls,
	}
}

// processGoFile parses a single source file and, when it contains annotated
// functions, writes the generated bindings next to it.
func processGoFile(path string, exportTools bool) error {
	fset := token.NewFileSet()
	fileAST, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Error parsing file")
		return err
	}

	tools := collectTools(fileAST, exportTools)
	if len(tools) == 0 {
		return nil
	}

	generated := createToolsFile(fileAST.Name.Name, tools)

	var buf bytes.Buffer
	buf.WriteString("// Code generated by symposium-tool-gen. DO NOT EDIT.\n\n")
	if err := printer.Fprint(&buf, fset, generated); err != nil {
		log.Error().Err(err).Str("file", path).Msg("Error rendering generated file")
		return err
	}

	formatted, err := format.Source(buf.Bytes(), format.Options{})
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Error formatting generated file")
		return err
	}

	outPath := strings.TrimSuffix(path, ".go") + generatedSuffix
	if err := os.WriteFile(outPath, formatted, 0o644); err != nil {
		log.Error().Err(err).Str("file", outPath).Msg("Error writing generated file")
		return err
	}

	log.Info().Str("file", outPath).Msg("Generated file")
	return nil
}

// skipFile reports whether a path should be ignored when scanning: test
// files and previously generated files.
func skipFile(path string) bool {
	return !strings.HasSuffix(path, ".go") ||
		strings.HasSuffix(path, "_test.go") ||
		strings.HasSuffix(path, generatedSuffix)
}

func main() {
	pathFlag := flag.String("path", ".", "file or directory to scan for annotated tool functions")
	exportFlag := flag.Bool("export", false, "export the generated tool variables")
	flag.Parse()

	info, err := os.Stat(*pathFlag)
	if err != nil {
		log.Error().Err(err).Str("path", *pathFlag).Msg("Error accessing path")
		osExit(1)
		return
	}

	if !info.IsDir() {
		if err := processGoFile(*pathFlag, *exportFlag); err != nil {
			osExit(1)
		}
		return
	}

	err = filepath.Walk(*pathFlag, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() || skipFile(path) {
			return nil
		}
		return processGoFile(path, *exportFlag)
	})
	if err != nil {
		osExit(1)
	}
}
