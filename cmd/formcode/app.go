package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	formcode "github.com/goliatone/go-formcode"
	"github.com/goliatone/go-formcode/internal/config"
	"github.com/goliatone/go-formcode/internal/ctxlog"
	"github.com/goliatone/go-formcode/pkg/ast"
	"github.com/goliatone/go-formcode/pkg/compiler"
	"github.com/goliatone/go-formcode/pkg/diff"
	"github.com/goliatone/go-formcode/pkg/export"
	"github.com/goliatone/go-formcode/pkg/extensions"
	"github.com/goliatone/go-formcode/pkg/prompt"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	usageHeader = `usage: formcode [flags] <command> [args]

commands:
  check FILE                 parse FILE and report the first error
  ast FILE                   print the parsed tree
  format FILE                print FILE in canonical form
  schema FILE                print an OpenAPI schema of the submission
  outline FILE               print a text outline
  validate FILE VALUES.json  validate a submission
  diff [-existing ids] OLD NEW
                             report migration issues
  fill FILE                  fill the form interactively

flags:
`
)

var errUsage = errors.New("usage")

type app struct {
	cfg    config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	prompt *prompt.Filler
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("formcode", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "YAML configuration file")
	output := flags.String("output", "", "output format: json or yaml")
	logLevel := flags.String("log-level", "", "log level: debug, info, warn, error")
	exts := flags.String("extensions", "", "comma separated extensions applied after compile")
	flags.Usage = func() {
		fmt.Fprint(stderr, usageHeader)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "formcode: %v\n", err)
		return exitFailed
	}
	if *output != "" {
		cfg.Output = *output
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *exts != "" {
		cfg.Extensions = strings.Split(*exts, ",")
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "formcode: %v\n", err)
		return exitUsage
	}
	level, err := ctxlog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "formcode: %v\n", err)
		return exitUsage
	}
	ctx = ctxlog.WithLogger(ctx, ctxlog.New(stderr, level))
	extensions.Default.Seal()

	rest := flags.Args()
	if len(rest) == 0 {
		flags.Usage()
		return exitUsage
	}

	a := &app{cfg: cfg, stdin: stdin, stdout: stdout, stderr: stderr}
	err = a.dispatch(ctx, rest[0], rest[1:])
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		flags.Usage()
		return exitUsage
	default:
		ctxlog.FromContext(ctx).Error("command failed", "command", rest[0], "error", err)
		return exitFailed
	}
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "check":
		return a.withFile(args, func(path string) error { return a.check(ctx, path) })
	case "ast":
		return a.withFile(args, func(path string) error { return a.printAST(ctx, path) })
	case "format":
		return a.withFile(args, func(path string) error { return a.format(ctx, path) })
	case "schema":
		return a.withFile(args, func(path string) error { return a.schema(ctx, path) })
	case "outline":
		return a.withFile(args, func(path string) error { return a.outline(ctx, path) })
	case "validate":
		if len(args) != 2 {
			return errUsage
		}
		return a.validate(ctx, args[0], args[1])
	case "diff":
		return a.diff(ctx, args)
	case "fill":
		return a.withFile(args, func(path string) error { return a.fill(ctx, path) })
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func (a *app) withFile(args []string, fn func(path string) error) error {
	if len(args) != 1 {
		return errUsage
	}
	return fn(args[0])
}

// readSource reads a form file, or stdin when path is "-".
func (a *app) readSource(path string) (string, error) {
	if path == "-" {
		return a.cfg.ReadSource(a.stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return a.cfg.ReadSource(file)
}

func (a *app) parse(ctx context.Context, path string) (ast.Form, error) {
	logger := ctxlog.FromContext(ctx)
	source, err := a.readSource(path)
	if err != nil {
		return ast.Form{}, err
	}
	start := time.Now()
	tree, err := formcode.Parse(source)
	if err != nil {
		return ast.Form{}, locate(path, err)
	}
	logger.Debug("parsed form", "file", path, "fieldsets", len(tree.Fieldsets), "fields", len(ast.Flatten(tree)), "elapsed", time.Since(start))
	return tree, nil
}

// compile parses path, compiles it and applies the configured extensions.
func (a *app) compile(ctx context.Context, path string) (*compiler.Form, error) {
	tree, err := a.parse(ctx, path)
	if err != nil {
		return nil, err
	}
	form, err := formcode.Compile(tree)
	if err != nil {
		return nil, err
	}
	if len(a.cfg.Extensions) == 0 {
		return form, nil
	}
	form, err = extensions.Default.Apply(form, a.cfg.Extensions...)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("applied extensions", "extensions", a.cfg.Extensions)
	return form, nil
}

func (a *app) check(ctx context.Context, path string) error {
	form, err := a.compile(ctx, path)
	if err != nil {
		return err
	}
	tree := form.AST()
	fmt.Fprintf(a.stdout, "%s: ok (%d fields in %d fieldsets)\n", path, len(form.Flatten()), len(tree.Fieldsets))
	return nil
}

func (a *app) printAST(ctx context.Context, path string) error {
	form, err := a.compile(ctx, path)
	if err != nil {
		return err
	}
	var data []byte
	if a.cfg.Output == config.OutputYAML {
		data, err = export.YAML(form.AST())
	} else {
		data, err = export.JSON(form.AST())
	}
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(data)
	return err
}

func (a *app) format(ctx context.Context, path string) error {
	tree, err := a.parse(ctx, path)
	if err != nil {
		return err
	}
	_, err = io.WriteString(a.stdout, formcode.Format(tree))
	return err
}

func (a *app) schema(ctx context.Context, path string) error {
	form, err := a.compile(ctx, path)
	if err != nil {
		return err
	}
	return a.encode(export.OpenAPISchema(form.AST()))
}

func (a *app) outline(ctx context.Context, path string) error {
	form, err := a.compile(ctx, path)
	if err != nil {
		return err
	}
	text, err := export.Outline(form.AST())
	if err != nil {
		return err
	}
	_, err = io.WriteString(a.stdout, text)
	return err
}

func (a *app) validate(ctx context.Context, path, valuesPath string) error {
	form, err := a.compile(ctx, path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(valuesPath)
	if err != nil {
		return err
	}
	raw, err := decodeSubmission(data)
	if err != nil {
		return fmt.Errorf("%s: %w", valuesPath, err)
	}

	values, err := form.Validate(raw)
	var errs compiler.ValidationErrors
	if errors.As(err, &errs) {
		if encErr := a.encode(map[string]any{"errors": errs}); encErr != nil {
			return encErr
		}
		return fmt.Errorf("%d invalid fields", len(errs))
	}
	if err != nil {
		return err
	}
	return a.encode(form.Serialize(values))
}

func (a *app) diff(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("diff", flag.ContinueOnError)
	flags.SetOutput(a.stderr)
	existing := flags.String("existing", "", "comma separated ids of fields holding submitted values")
	if err := flags.Parse(args); err != nil {
		return errUsage
	}
	if flags.NArg() != 2 {
		return errUsage
	}
	old, err := a.parse(ctx, flags.Arg(0))
	if err != nil {
		return err
	}
	updated, err := a.parse(ctx, flags.Arg(1))
	if err != nil {
		return err
	}

	issues := formcode.Diff(old, updated, diff.IDSet(splitList(*existing)...))
	for _, issue := range issues {
		fmt.Fprintln(a.stdout, issue.Error())
	}
	if len(issues) > 0 {
		return fmt.Errorf("%d migration issues", len(issues))
	}
	fmt.Fprintln(a.stdout, "no migration issues")
	return nil
}

func (a *app) fill(ctx context.Context, path string) error {
	form, err := a.compile(ctx, path)
	if err != nil {
		return err
	}
	filler := a.prompt
	if filler == nil {
		filler = prompt.New(prompt.WithPromptDriver(prompt.NewSurveyDriver(a.stderr)))
	}
	values, err := filler.Fill(ctx, form)
	if err != nil {
		return err
	}
	return a.encode(form.Serialize(values))
}

func (a *app) encode(v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if a.cfg.Output != config.OutputYAML {
		_, err := a.stdout.Write(buf.Bytes())
		return err
	}
	var generic any
	if err := json.Unmarshal(buf.Bytes(), &generic); err != nil {
		return err
	}
	data, err := yaml.Marshal(generic)
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(data)
	return err
}

// locate prefixes syntax errors with the file name and line.
func locate(path string, err error) error {
	var syntax ast.SyntaxError
	if errors.As(err, &syntax) {
		return fmt.Errorf("%s:%d: %w", path, syntax.LineNumber(), err)
	}
	return fmt.Errorf("%s: %w", path, err)
}

// decodeSubmission reads a JSON object of raw values. Numbers and booleans
// become strings, arrays become []string, and objects with a filename
// become uploads with base64 data.
func decodeSubmission(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode values: %w", err)
	}
	raw := make(map[string]any, len(doc))
	for id, value := range doc {
		converted, err := rawValue(value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", id, err)
		}
		raw[id] = converted
	}
	return raw, nil
}

func rawValue(value any) (any, error) {
	switch v := value.(type) {
	case nil, string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return fmt.Sprint(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			text, err := rawValue(item)
			if err != nil {
				return nil, err
			}
			s, ok := text.(string)
			if !ok {
				return nil, errors.New("list items must be scalars")
			}
			out = append(out, s)
		}
		return out, nil
	case map[string]any:
		name, _ := v["filename"].(string)
		mimeType, _ := v["mimetype"].(string)
		encoded, _ := v["data"].(string)
		content, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("upload data: %w", err)
		}
		return compiler.Upload{Filename: name, MimeType: mimeType, Content: content}, nil
	default:
		return nil, fmt.Errorf("unsupported value %T", value)
	}
}

func splitList(text string) []string {
	var out []string
	for _, item := range strings.Split(text, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
