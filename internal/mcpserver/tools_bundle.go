package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/flavors-dev/schemabundle/bundler"
	"github.com/flavors-dev/schemabundle/internal/fileutil"
	"github.com/flavors-dev/schemabundle/internal/pathutil"
	"github.com/flavors-dev/schemabundle/render"
)

type bundleInput struct {
	Spec           specInput        `json:"spec"                      jsonschema:"The JSON Schema document to bundle"`
	Format         string           `json:"format,omitempty"          jsonschema:"Output format: json or yaml (default: the source format)"`
	DefinitionsKey string           `json:"definitions_key,omitempty" jsonschema:"Root member that receives inlined definitions (default: $defs for draft 2019-09 and 2020-12, otherwise definitions)"`
	Dereference    bool             `json:"dereference,omitempty"     jsonschema:"Expand every local $ref in place after bundling"`
	Render         bool             `json:"render,omitempty"          jsonschema:"Dereference, collapse properties.X.properties.X nesting and require all top-level properties"`
	Flavors        map[string][]any `json:"flavors,omitempty"         jsonschema:"With render: item property name to enum values, applied to array-of-object top-level properties"`
	Output         string           `json:"output,omitempty"          jsonschema:"File path to write the bundled document. If omitted the document is returned inline."`
}

type definitionSummary struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Ref    string `json:"ref"`
}

type bundleStats struct {
	LocalRefs          int `json:"local_refs"`
	ExternalRefs       int `json:"external_refs"`
	InlinedDefinitions int `json:"inlined_definitions"`
	DocumentsLoaded    int `json:"documents_loaded"`
	CircularRefs       int `json:"circular_refs"`
}

type bundleOutput struct {
	SourceFormat   string              `json:"source_format"`
	DefinitionsKey string              `json:"definitions_key,omitempty"`
	Definitions    []definitionSummary `json:"definitions,omitempty"`
	Stats          bundleStats         `json:"stats"`
	Collapsed      []string            `json:"collapsed,omitempty"`
	Enums          []string            `json:"enums,omitempty"`
	Warnings       []string            `json:"warnings,omitempty"`
	WrittenTo      string              `json:"written_to,omitempty"`
	Document       string              `json:"document,omitempty"`
}

func (t *tools) handleBundle(ctx context.Context, _ *mcp.CallToolRequest, input bundleInput) (*mcp.CallToolResult, bundleOutput, error) {
	format, err := parseFormat(input.Format)
	if err != nil {
		return errResult(err), bundleOutput{}, nil
	}
	if len(input.Flavors) > 0 && !input.Render {
		return errResult(errors.New("flavors requires render")), bundleOutput{}, nil
	}

	var extra []bundler.Option
	if input.DefinitionsKey != "" {
		extra = append(extra, bundler.WithDefinitionsKey(input.DefinitionsKey))
	}

	result, err := input.Spec.bundle(ctx, t.cfg, extra...)
	if err != nil {
		return errResult(err), bundleOutput{}, nil
	}

	output := bundleOutput{
		SourceFormat:   string(result.SourceFormat),
		DefinitionsKey: result.DefinitionsKey,
		Stats: bundleStats{
			LocalRefs:          result.Stats.LocalRefs,
			ExternalRefs:       result.Stats.ExternalRefs,
			InlinedDefinitions: result.Stats.InlinedDefinitions,
			DocumentsLoaded:    result.Stats.DocumentsLoaded,
			CircularRefs:       result.Stats.CircularRefs,
		},
	}
	if len(result.Definitions) > 0 {
		output.Definitions = make([]definitionSummary, 0, len(result.Definitions))
		for _, d := range result.Definitions {
			output.Definitions = append(output.Definitions, definitionSummary{Name: d.Name, Source: d.Source, Ref: d.Ref})
		}
	}

	switch {
	case input.Render:
		report, err := render.Apply(result, input.Flavors)
		if err != nil {
			return errResult(err), bundleOutput{}, nil
		}
		output.Collapsed = report.Collapsed
		output.Enums = report.Enums
	case input.Dereference:
		if err := bundler.Dereference(result); err != nil {
			return errResult(err), bundleOutput{}, nil
		}
	}
	output.Warnings = result.Warnings

	data, err := result.MarshalFormat(format, bundler.DefaultIndent)
	if err != nil {
		return errResult(err), bundleOutput{}, nil
	}

	if input.Output != "" {
		path, err := pathutil.SanitizeOutputPath(input.Output)
		if err != nil {
			return errResult(err), bundleOutput{}, nil
		}
		if err := fileutil.WriteFileAtomic(path, data, fileutil.ReadableByAll); err != nil {
			return errResult(fmt.Errorf("failed to write output file: %w", err)), bundleOutput{}, nil
		}
		output.WrittenTo = input.Output
		return nil, output, nil
	}

	output.Document = string(data)
	return nil, output, nil
}

func parseFormat(format string) (bundler.SourceFormat, error) {
	switch format {
	case "":
		return "", nil
	case string(bundler.SourceFormatJSON):
		return bundler.SourceFormatJSON, nil
	case string(bundler.SourceFormatYAML):
		return bundler.SourceFormatYAML, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be json or yaml", format)
	}
}
