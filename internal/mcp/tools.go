package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

func (s *Server) registerTools() {
	addTool(s, "load_dataset",
		"Load bonding, indent and purchase files (CSV or XLSX) plus an optional center code mapping. "+
			"The dataset replaces any previously loaded one and is used by every other tool. "+
			"Relative paths resolve against the configured data directory.",
		&jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"bonding":   {Type: "string", Description: "Bonding file: center_code, bonding_pct"},
				"indents":   {Type: "string", Description: "Indent file: center_code, indent_date, quantity[, po_count]"},
				"purchases": {Type: "string", Description: "Purchase file: center_code, purchase_date, indent_date, quantity"},
				"mapping":   {Type: "string", Description: "Optional mapping file: source_code, target_code"},
			},
			Required: []string{"bonding", "indents", "purchases"},
		},
		s.handleLoadDataset)

	addTool(s, "calculate_indent",
		"Compute the recommended indent per bonded center for the given day. "+
			"Lag weights and the plant overrun are estimated from mature history only. "+
			"Negative recommendations mean the center is already over-supplied and are reported as is. "+
			"The run is stored in history and can be re-run with overrides via 'run_scenario'.",
		&jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"name":                    {Type: "string", Description: "Label for the run"},
				"current_date":            dateSchema("The day the indent is placed (T)"),
				"plant_capacity":          quantitySchema("Plant capacity, echoed for reference"),
				"total_daily_requirement": quantitySchema("Plant requirement for the day"),
				"standard_stock_gate":     quantitySchema("Standard stock at the gate, echoed for reference"),
				"standard_stock_centre":   quantitySchema("Standard stock at the centres, echoed for reference"),
				"available_stock_gate":    quantitySchema("Stock currently available at the gate"),
				"available_stock_centre":  quantitySchema("Stock currently available at the centres"),
				"lookback_days":           daysSchema("Optional: limit history to the last N days (0 = all)"),
				"maturity_days":           daysSchema("Optional: ignore indents younger than N days (default 3)"),
			},
			Required: []string{"current_date", "total_daily_requirement"},
		},
		s.handleCalculate)

	addTool(s, "run_scenario",
		"What-if analysis. Either re-run a stored run with selected inputs overridden "+
			"(base_run_id defaults to the latest run), or evaluate a YAML scenario file with 'file'. "+
			"New runs are stored with a link to their base and compared center by center.",
		&jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file":                    {Type: "string", Description: "Scenario YAML file; when set, override fields are ignored"},
				"base_run_id":             {Type: "string", Description: "Run to derive from (default: latest)"},
				"name":                    {Type: "string", Description: "Label for the new run"},
				"current_date":            dateSchema("Override the current date"),
				"plant_capacity":          quantitySchema("Override plant capacity"),
				"total_daily_requirement": quantitySchema("Override the plant requirement"),
				"standard_stock_gate":     quantitySchema("Override standard gate stock"),
				"standard_stock_centre":   quantitySchema("Override standard centre stock"),
				"available_stock_gate":    quantitySchema("Override available gate stock"),
				"available_stock_centre":  quantitySchema("Override available centre stock"),
			},
		},
		s.handleRunScenario)

	addTool(s, "get_lag_profile",
		"Show the D1-D4 arrival weights for every center as of a date, with their provenance "+
			"(own history, plant-wide fallback or default zero). No allocation is performed.",
		&jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"current_date": dateSchema("Reference day (T)"),
			},
			Required: []string{"current_date"},
		},
		s.handleLagProfile)

	addTool(s, "forecast_backtest",
		"Replay the T+3 arrival projection for every day in a past range and compare it with what actually arrived. "+
			"Each checkpoint only sees purchases known on that day.",
		&jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"from":          dateSchema("First checkpoint"),
				"to":            dateSchema("Last checkpoint (at most 366 days after 'from')"),
				"lookback_days": daysSchema("Optional: history lookback override"),
				"maturity_days": daysSchema("Optional: maturity override"),
			},
			Required: []string{"from", "to"},
		},
		s.handleBacktest)

	addTool(s, "list_history",
		"List stored runs, newest first.",
		&jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"limit": {Type: "integer", Description: "Maximum number of runs (default 20, 0 = all)", Minimum: ptr(0.0)},
			},
		},
		s.handleListHistory)

	addTool(s, "get_run",
		"Fetch a stored run as a rounded table (json) or a rendered report (text, csv).",
		&jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id":      {Type: "string", Description: "Run ID (default: latest)"},
				"format":  {Type: "string", Enum: []any{"json", "text", "csv"}, Description: "Output format (default json)"},
				"lineage": {Type: "boolean", Description: "Also list the chain of base runs"},
			},
		},
		s.handleGetRun)
}

// addTool registers a typed handler. Handler errors surface as tool errors, not protocol errors.
func addTool[In any](s *Server, name, description string, schema *jsonschema.Schema, h func(context.Context, In) (ResponseEnvelope, error)) {
	tool := &mcp.Tool{Name: name, Description: description, InputSchema: schema}
	mcp.AddTool(s.sdk, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		log.Debug().Str("tool", name).Msg("Tool called")
		env, err := h(ctx, in)
		if err != nil {
			log.Warn().Err(err).Str("tool", name).Msg("Tool failed")
			return nil, nil, err
		}
		text, err := s.formatResult(env)
		if err != nil {
			log.Error().Err(err).Str("tool", name).Msg("Tool result could not be encoded")
			return nil, nil, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil, nil
	})
}

func dateSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc + " (YYYY-MM-DD or a configured layout)"}
}

func quantitySchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number", Description: desc, Minimum: ptr(0.0)}
}

func daysSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: desc, Minimum: ptr(0.0)}
}

func ptr[T any](v T) *T { return &v }
