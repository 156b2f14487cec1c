package tools

import (
	"context"
	"encoding/json"

	"github.com/chris/schemascout/internal/agent"
	"github.com/chris/schemascout/internal/llm"
	"github.com/invopop/jsonschema"
)

type ListFilesInput struct {
	Folder string `json:"folder,omitempty" jsonschema:"default=." jsonschema_description:"Folder to list, relative to the files directory (defaults to the directory itself)"`
}

type FileSizeInput struct {
	Filename string `json:"filename" jsonschema_description:"Name of the file to check"`
}

type FileContentInput struct {
	Filename   string `json:"filename" jsonschema_description:"Name of the file to read"`
	ByteStart  *int64 `json:"byte_start,omitempty" jsonschema_description:"Starting byte position"`
	ByteLength *int64 `json:"byte_length,omitempty" jsonschema_description:"Number of bytes to read"`
	StartLine  *int64 `json:"start_line,omitempty" jsonschema_description:"Starting line number (0-based)"`
	NumLines   *int64 `json:"num_lines,omitempty" jsonschema_description:"Number of lines to read"`
}

type SchemaInput struct {
	Content  string `json:"content" jsonschema_description:"Content to analyze"`
	FileType string `json:"file_type" jsonschema_description:"Type of file (json, xml, csv, etc)"`
}

// Registry returns the tool specs in the order they are offered to the model.
func Registry(files *Files, analyzer *Analyzer) []agent.ToolSpec {
	return []agent.ToolSpec{
		{
			Definition: llm.Tool{
				Name:        "get_files_list",
				Description: "Get list of files from the sample files directory",
				Parameters:  GenerateSchema[ListFilesInput](),
			},
			Handler: agent.Typed(func(_ context.Context, in ListFilesInput) (any, error) {
				return files.List(in.Folder)
			}),
		},
		{
			Definition: llm.Tool{
				Name:        "get_file_size",
				Description: "Get the size of a file in bytes, KB, and MB",
				Parameters:  GenerateSchema[FileSizeInput](),
			},
			Handler: agent.Typed(func(_ context.Context, in FileSizeInput) (any, error) {
				return files.Size(in.Filename)
			}),
		},
		{
			Definition: llm.Tool{
				Name:        "get_file_content_low_level",
				Description: "Read a portion of a file by byte range or line numbers",
				Parameters:  GenerateSchema[FileContentInput](),
			},
			Handler: agent.Typed(func(_ context.Context, in FileContentInput) (any, error) {
				return readContent(files, in)
			}),
		},
		{
			Definition: llm.Tool{
				Name:        "understand_schema",
				Description: "Analyze content to understand its schema/structure",
				Parameters:  GenerateSchema[SchemaInput](),
			},
			Handler: agent.Typed(func(ctx context.Context, in SchemaInput) (any, error) {
				return analyzer.Understand(ctx, in.Content, in.FileType)
			}),
		},
	}
}

// readContent prefers the byte range when both ranges are supplied.
func readContent(files *Files, in FileContentInput) (any, error) {
	if in.ByteStart != nil && in.ByteLength != nil {
		return files.ReadBytes(in.Filename, *in.ByteStart, *in.ByteLength)
	}
	if in.StartLine != nil && in.NumLines != nil {
		return files.ReadLines(in.Filename, *in.StartLine, *in.NumLines)
	}
	return nil, ErrNoRange
}

var reflector = jsonschema.Reflector{
	DoNotReference:            true,
	ExpandedStruct:            true,
	AllowAdditionalProperties: false,
	Anonymous:                 true,
}

// GenerateSchema derives a JSON Schema object for T's fields. Fields without
// omitempty are required.
func GenerateSchema[T any]() map[string]any {
	var v T
	b, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		panic("tools: marshaling schema: " + err.Error())
	}
	var schema map[string]any
	if err := json.Unmarshal(b, &schema); err != nil {
		panic("tools: decoding schema: " + err.Error())
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	if _, ok := schema["required"]; !ok {
		schema["required"] = []any{}
	}
	return schema
}
