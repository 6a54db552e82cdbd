// Command estemplate-render prints the index template or mapping of one
// schema document without starting the server.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/estemplate/internal/catalog"
	"github.com/kailas-cloud/estemplate/internal/domain/mapping"
	"github.com/kailas-cloud/estemplate/internal/domain/schema"
	"github.com/kailas-cloud/estemplate/internal/version"
)

// pathArgs is a custom flag type for repeatable -schema flags
type pathArgs []string

func (p *pathArgs) String() string { return strings.Join(*p, ",") }
func (p *pathArgs) Set(v string) error {
	*p = append(*p, v)
	return nil
}

type options struct {
	schemas     pathArgs
	document    string
	title       string
	role        string
	docType     string
	mappingOnly bool
	timestamp   bool
	format      string
	list        bool
	version     bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}

	if opts.version {
		fmt.Fprintln(stdout, "estemplate-render", version.String())
		return 0
	}

	if err := render(opts, stdout); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("estemplate-render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Var(&o.schemas, "schema", "schema file or directory (repeatable)")
	fs.StringVar(&o.document, "document", "", "document name to render")
	fs.StringVar(&o.title, "title", "", "index alias; the template name is derived from it")
	fs.StringVar(&o.role, "role", "", "schema role (version) to render")
	fs.StringVar(&o.docType, "doc-type", mapping.DefaultDocType, "mapping type name")
	fs.BoolVar(&o.mappingOnly, "mapping", false, "print only the properties mapping")
	fs.BoolVar(&o.timestamp, "timestamp", false, "with -mapping, prepend the @timestamp property")
	fs.StringVar(&o.format, "format", "json", "output format: json or yaml")
	fs.BoolVar(&o.list, "list", false, "list catalog documents and exit")
	fs.BoolVar(&o.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err //nolint:wrapcheck // flag errors are already descriptive
	}

	if o.version {
		return o, nil
	}
	if len(o.schemas) == 0 {
		return options{}, errors.New("-schema is required")
	}
	if o.format != "json" && o.format != "yaml" {
		return options{}, fmt.Errorf("-format must be json or yaml, got %q", o.format)
	}
	if o.list {
		return o, nil
	}
	if o.document == "" || o.role == "" {
		return options{}, errors.New("-document and -role are required")
	}
	if !o.mappingOnly && o.title == "" {
		return options{}, errors.New("-title is required unless -mapping is set")
	}
	return o, nil
}

func render(o options, out io.Writer) error {
	cat, err := catalog.Load(o.schemas...)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}

	if o.list {
		for _, name := range cat.Names() {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	doc, err := cat.Get(o.document)
	if err != nil {
		return err //nolint:wrapcheck // already names the document
	}

	r := mapping.Default()
	var v any
	if o.mappingOnly {
		var mopts []mapping.MappingOption
		if o.timestamp {
			mopts = append(mopts, mapping.WithTimestamp())
		}
		m, err := r.RenderMapping(doc, schema.Role(o.role), mopts...)
		if err != nil {
			return fmt.Errorf("render mapping: %w", err)
		}
		v = map[string]any{mapping.KeyProperties: m}
	} else {
		t, err := r.RenderTemplate(doc, o.title, schema.Role(o.role), mapping.WithDocType(o.docType))
		if err != nil {
			return fmt.Errorf("render template: %w", err)
		}
		v = t
	}

	return encode(out, o.format, v)
}

func encode(out io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close() //nolint:wrapcheck // flushes the encoder
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
