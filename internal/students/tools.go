package students

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type noInput struct{}

type nameInput struct {
	Name string `json:"name" jsonschema:"required,description=The name of the student to get details for"`
}

type idInput struct {
	ID int `json:"id" jsonschema:"required,description=The ID of the student to get details for"`
}

type schoolInput struct {
	School string `json:"school" jsonschema:"required,description=The name of the school to filter students by"`
}

type lastNameInput struct {
	LastName string `json:"lastName" jsonschema:"required,description=The last name of the student to filter by"`
}

type firstNameInput struct {
	FirstName string `json:"firstName" jsonschema:"required,description=The first name of the student to filter by"`
}

// Register adds the student tools to server
func Register(server *mcpsdk.Server, svc *Service) {
	addTool(server, "GetStudents", "Get a list of students", func(noInput) (any, error) {
		return svc.All(), nil
	})
	addTool(server, "GetStudentsJson", "Get a list of students and return as JSON array", func(noInput) (any, error) {
		return svc.All(), nil
	})
	addTool(server, "GetStudent", "Get a student by name", func(in nameInput) (any, error) {
		return found(svc.ByFullName(in.Name))
	})
	addTool(server, "GetStudentJson", "Get a student by name and return as JSON", func(in nameInput) (any, error) {
		return found(svc.ByFullName(in.Name))
	})
	addTool(server, "GetStudentById", "Get a student by ID", func(in idInput) (any, error) {
		return found(svc.ByID(in.ID))
	})
	addTool(server, "GetStudentByIdJson", "Get a student by ID and return as JSON", func(in idInput) (any, error) {
		return found(svc.ByID(in.ID))
	})
	addTool(server, "GetStudentsBySchool", "Get students by school", func(in schoolInput) (any, error) {
		return svc.BySchool(in.School), nil
	})
	addTool(server, "GetStudentsByLastName", "Get a student by Last Name", func(in lastNameInput) (any, error) {
		return svc.ByLastName(in.LastName), nil
	})
	addTool(server, "GetStudentsByFirstName", "Get a student by First Name", func(in firstNameInput) (any, error) {
		return svc.ByFirstName(in.FirstName), nil
	})
}

// found turns a missed lookup into a JSON null
func found(st Student, ok bool) (any, error) {
	if !ok {
		return nil, nil
	}
	return st, nil
}

// addTool registers a tool whose input schema is reflected from In and whose
// result is the JSON encoding of what fn returns
func addTool[In any](server *mcpsdk.Server, name, description string, fn func(In) (any, error)) {
	tool := &mcpsdk.Tool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema[In](),
	}
	server.AddTool(tool, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var in In
		if args := req.Params.Arguments; len(args) > 0 && string(args) != "null" {
			if err := json.Unmarshal(args, &in); err != nil {
				return errorResult(fmt.Sprintf("invalid arguments for %s: %v", name, err)), nil
			}
		}

		out, err := fn(in)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		data, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("encoding %s result: %w", name, err)
		}
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
		}, nil
	})
}

func errorResult(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
	}
}

// inputSchema reflects the JSON schema of T as a plain map
func inputSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	out := map[string]any{}
	if data, err := json.Marshal(schema); err == nil {
		_ = json.Unmarshal(data, &out)
	}
	delete(out, "$schema")
	delete(out, "$id")
	out["type"] = "object"
	if _, ok := out["properties"]; !ok {
		out["properties"] = map[string]any{}
	}
	return out
}
