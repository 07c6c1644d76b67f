package pipeline

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/queryforge/core/internal/connection"
	"github.com/queryforge/core/internal/errors"
	"github.com/queryforge/core/internal/registry"
)

const sampleRowsPerTable = 3

// PrepareContext is node 4: enumerate tables (honouring included_tables
// and single_table_mode), produce a schema description plus a small
// sample. In single_table_mode, list_tables is skipped entirely and only
// selected_table is used. Fatal — any engine failure raises SchemaError.
func PrepareContext(ctx context.Context, deps *Deps, state *State) Outcome {
	engine, err := deps.Pool.Acquire(ctx, state.ConnectionID.String(), state.Connection.Kind, state.Connection.Payload)
	if err != nil {
		return Fail(ErrorKind(errors.ErrSchemaError), "failed to acquire engine: "+err.Error())
	}
	state.EngineRef = deps.Registry.Put(registry.CategoryEngine, engine)

	var tables []string
	if state.Agent.Flags.SingleTableMode {
		if state.Agent.Flags.SelectedTable == "" {
			return Fail(ErrorKind(errors.ErrSchemaError), "single_table_mode requires selected_table")
		}
		tables = []string{state.Agent.Flags.SelectedTable}
	} else {
		all, err := engine.ListTables(ctx)
		if err != nil {
			return Fail(ErrorKind(errors.ErrSchemaError), "failed to list tables: "+err.Error())
		}
		tables = filterIncludedTables(all, state.Agent.IncludedTables)
	}

	schemaSnippet, sampleText, err := buildSchemaDescription(ctx, engine, tables)
	if err != nil {
		return Fail(ErrorKind(errors.ErrSchemaError), "failed to sample tables: "+err.Error())
	}

	state.SchemaSnippet = schemaSnippet
	state.SampleRows = sampleText
	return Continue()
}

func filterIncludedTables(all []string, pattern string) []string {
	if pattern == "" || pattern == "*" {
		return all
	}
	var out []string
	for _, t := range all {
		if matched, _ := path.Match(pattern, t); matched {
			out = append(out, t)
		}
	}
	return out
}

func buildSchemaDescription(ctx context.Context, engine connection.EngineHandle, tables []string) (schemaSnippet, sampleText string, err error) {
	var schemaBuilder, sampleBuilder strings.Builder
	for _, table := range tables {
		rows, sampleErr := engine.Sample(ctx, table, sampleRowsPerTable)
		if sampleErr != nil {
			return "", "", sampleErr
		}

		fmt.Fprintf(&schemaBuilder, "table %s (%s)\n", table, strings.Join(rows.Columns, ", "))

		for _, row := range rows.Rows {
			fmt.Fprintf(&sampleBuilder, "%s: ", table)
			for _, col := range rows.Columns {
				fmt.Fprintf(&sampleBuilder, "%s=%v ", col, row[col])
			}
			sampleBuilder.WriteString("\n")
		}
	}
	return schemaBuilder.String(), sampleBuilder.String(), nil
}
