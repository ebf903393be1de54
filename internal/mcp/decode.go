package mcp

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nkhandelwal/khata/internal/errors"
)

// decode unmarshals MCP request arguments into a typed request struct via a
// JSON round-trip. Malformed arguments surface as INVALID_REQUEST so callers
// see the same error shape as any other validation failure.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, errors.NewInvalidRequest("invalid tool arguments: " + err.Error())
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, errors.NewInvalidRequest("invalid tool arguments: " + err.Error())
	}
	return result, nil
}
