package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"

	"github.com/nkhandelwal/khata/internal/config"
	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ledger"
	"github.com/nkhandelwal/khata/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool. Amounts arrive as decimal strings and are
// parsed with ledger.ParseAmount; floats never touch money.

// AddRequest represents the arguments for ledger_add.
type AddRequest struct {
	Person           string  `json:"person"`
	Amount           string  `json:"amount"`
	Type             string  `json:"type,omitempty"`
	ExpectedPerCycle *string `json:"expected_per_cycle,omitempty"`
	Note             *string `json:"note,omitempty"`
	DueDate          *string `json:"due_date,omitempty"`
}

// SplitRequest represents the arguments for ledger_split.
type SplitRequest struct {
	Total        string             `json:"total"`
	Persons      []string           `json:"persons"`
	Fixed        []FixedContributor `json:"fixed,omitempty"`
	UserIncluded bool               `json:"user_included,omitempty"`
	Note         *string            `json:"note,omitempty"`
	DueDate      *string            `json:"due_date,omitempty"`
}

// FixedContributor pins one person's share inside ledger_split.
type FixedContributor struct {
	Person string `json:"person"`
	Amount string `json:"amount"`
}

// SettleRequest represents the arguments for ledger_settle.
type SettleRequest struct {
	ID     string  `json:"id,omitempty"`
	Person string  `json:"person,omitempty"`
	Amount string  `json:"amount"`
	Note   *string `json:"note,omitempty"`
	Ref    *string `json:"ref,omitempty"`
}

// EditRequest represents the arguments for ledger_edit.
type EditRequest struct {
	ID               string  `json:"id,omitempty"`
	Person           string  `json:"person,omitempty"`
	NewPerson        *string `json:"new_person,omitempty"`
	TotalAmount      *string `json:"total_amount,omitempty"`
	ExpectedPerCycle *string `json:"expected_per_cycle,omitempty"`
	Note             *string `json:"note,omitempty"`
	NoteHint         *string `json:"note_hint,omitempty"`
	DueDate          *string `json:"due_date,omitempty"`
	Corrective       bool    `json:"corrective,omitempty"`
}

// CloseRequest represents the arguments for ledger_close.
type CloseRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// ReopenRequest represents the arguments for ledger_reopen.
type ReopenRequest struct {
	ID     string  `json:"id"`
	Reason *string `json:"reason,omitempty"`
}

// DeleteRequest represents the arguments for ledger_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// GetRequest represents the arguments for ledger_get.
type GetRequest struct {
	ID             string `json:"id"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// ListRequest represents the arguments for ledger_list.
type ListRequest struct {
	Person string `json:"person,omitempty"`
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ApplyRequest represents the arguments for ledger_apply.
type ApplyRequest struct {
	Intent ledger.Intent `json:"intent"`
}

// Handler implementations

// HandleAdd handles the ledger_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	amount, err := ledger.ParseAmount(input.Amount)
	if err != nil {
		return errorResult(err), nil
	}
	perCycle, err := parseOptionalAmount(input.ExpectedPerCycle)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Create(h.db, ops.CreateInput{
		Person:           input.Person,
		Type:             input.Type,
		TotalAmount:      amount,
		ExpectedPerCycle: perCycle,
		Note:             input.Note,
		DueDate:          input.DueDate,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSplit handles the ledger_split tool call.
func (h *Handlers) HandleSplit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SplitRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	total, err := ledger.ParseAmount(input.Total)
	if err != nil {
		return errorResult(err), nil
	}

	fixed := make([]ledger.Contribution, len(input.Fixed))
	for i, f := range input.Fixed {
		amount, err := ledger.ParseAmount(f.Amount)
		if err != nil {
			return errorResult(err), nil
		}
		fixed[i] = ledger.Contribution{Person: f.Person, Amount: amount}
	}

	result, err := ops.SplitBill(h.db, h.cfg, ops.SplitBillInput{
		Total:        total,
		Persons:      input.Persons,
		Fixed:        fixed,
		UserIncluded: input.UserIncluded,
		Note:         input.Note,
		DueDate:      input.DueDate,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSettle handles the ledger_settle tool call. The obligation may be
// addressed by id or by person; with a person the amount and note act as
// disambiguation hints among their open obligations.
func (h *Handlers) HandleSettle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SettleRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	amount, err := ledger.ParseAmount(input.Amount)
	if err != nil {
		return errorResult(err), nil
	}

	id, err := h.resolveTarget(input.ID, input.Person, &amount, input.Note)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Settle(h.db, h.cfg, ops.SettleInput{
		ID:     id,
		Amount: amount,
		Ref:    input.Ref,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleEdit handles the ledger_edit tool call.
func (h *Handlers) HandleEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EditRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	totalAmount, err := parseOptionalAmount(input.TotalAmount)
	if err != nil {
		return errorResult(err), nil
	}
	perCycle, err := parseOptionalAmount(input.ExpectedPerCycle)
	if err != nil {
		return errorResult(err), nil
	}

	id, err := h.resolveTarget(input.ID, input.Person, nil, input.NoteHint)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Edit(h.db, ops.EditInput{
		ID:               id,
		Person:           input.NewPerson,
		TotalAmount:      totalAmount,
		ExpectedPerCycle: perCycle,
		Note:             input.Note,
		DueDate:          input.DueDate,
		Corrective:       input.Corrective,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleClose handles the ledger_close tool call.
func (h *Handlers) HandleClose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CloseRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Close(h.db, ops.CloseInput{
		ID:     input.ID,
		Reason: input.Reason,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReopen handles the ledger_reopen tool call.
func (h *Handlers) HandleReopen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReopenRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Reopen(h.db, ops.ReopenInput{
		ID:     input.ID,
		Reason: input.Reason,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the ledger_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(h.db, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGet handles the ledger_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Get(h.db, ops.GetInput{
		ID:             input.ID,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the ledger_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(h.db, ops.ListInput{
		Person: input.Person,
		Status: input.Status,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSummary handles the ledger_summary tool call.
func (h *Handlers) HandleSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Summary(h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleApply handles the ledger_apply tool call.
func (h *Handlers) HandleApply(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ApplyRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Apply(h.db, h.cfg, input.Intent)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// resolveTarget turns an id-or-person address into an obligation id.
// Exactly one of id and person must be set.
func (h *Handlers) resolveTarget(id, person string, amountHint *decimal.Decimal, noteHint *string) (string, error) {
	switch {
	case id != "" && person != "":
		return "", errors.NewInvalidRequest("provide either id or person, not both")
	case id != "":
		return id, nil
	case person != "":
		resolved, err := ops.Resolve(h.db, ops.ResolveInput{
			Person:     person,
			AmountHint: amountHint,
			NoteHint:   noteHint,
		})
		if err != nil {
			return "", err
		}
		return resolved.Obligation.ID, nil
	default:
		return "", errors.NewInvalidRequest("either id or person is required")
	}
}

func parseOptionalAmount(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := ledger.ParseAmount(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if kerr, ok := err.(*errors.KhataError); ok {
		errorObj := map[string]any{
			"code":    kerr.Code,
			"message": kerr.Message,
			"status":  kerr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if kerr.Code != errors.ErrInternal && kerr.Details != nil {
			errorObj["details"] = kerr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
