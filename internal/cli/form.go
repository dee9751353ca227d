package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-queryform/pkg/catalog"
	"github.com/goliatone/go-queryform/pkg/queryform"
)

// stateFlags seed the form before rendering or prompting.
type stateFlags struct {
	valuesFile  string
	query       string
	indicQuery  string
	inputScript string
	indic       bool
	allTexts    bool
	texts       []string
}

func (s *stateFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&s.valuesFile, "values", "", "JSON file holding a previous record")
	flags.StringVar(&s.query, "query", "", "romanized query")
	flags.StringVar(&s.indicQuery, "indic-query", "", "query in Indic script")
	flags.StringVar(&s.inputScript, "input-script", "", "script of the romanized query (Devanagari|Latin|Other)")
	flags.BoolVar(&s.indic, "indic", true, "type the query in Indic script")
	flags.BoolVar(&s.allTexts, "all-texts", true, "search every text")
	flags.StringSliceVar(&s.texts, "text", nil, "text identifier to search (repeatable)")
}

// seed returns the initial state: the values file first, then any flag the
// user set explicitly.
func (s *stateFlags) seed(cmd *cobra.Command) (queryform.State, error) {
	state := queryform.DefaultState()
	if s.valuesFile != "" {
		data, err := os.ReadFile(s.valuesFile)
		if err != nil {
			return state, fmt.Errorf("read values: %w", err)
		}
		var values map[string]any
		if err := json.Unmarshal(data, &values); err != nil {
			return state, fmt.Errorf("decode values %s: %w", s.valuesFile, err)
		}
		if state, err = queryform.StateFromValues(values); err != nil {
			return state, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("query") {
		state.Query = s.query
	}
	if flags.Changed("indic-query") {
		state.IndicQuery = s.indicQuery
	}
	if flags.Changed("input-script") {
		state.InputScript = queryform.InputScript(s.inputScript)
	}
	if flags.Changed("indic") {
		state.IsIndic = s.indic
	}
	if flags.Changed("all-texts") {
		state.IsAllTexts = s.allTexts
	}
	if flags.Changed("text") {
		state.SelectedTexts = append([]string(nil), s.texts...)
	}
	return state, nil
}

// schema builds the form schema from the configured catalog and document.
func (a *app) schema(ctx context.Context) (*queryform.Schema, error) {
	options := []queryform.SchemaOption{}
	if a.cfg.Catalog != "" {
		texts, err := catalog.LoadFile(a.cfg.Catalog)
		if err != nil {
			return nil, err
		}
		options = append(options, queryform.WithSchemaCatalog(texts))
	}
	if a.cfg.Schema != "" {
		data, err := os.ReadFile(a.cfg.Schema)
		if err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
		options = append(options, queryform.WithSchemaDocument(data))
	}
	return queryform.NewSchema(ctx, options...)
}

func (a *app) formOptions(schema *queryform.Schema) []queryform.Option {
	return []queryform.Option{
		queryform.WithSchema(schema),
		queryform.WithLogger(a.logger),
		queryform.WithSubmitHandler(queryform.LogSubmit(a.logger)),
	}
}

func (a *app) newForm(ctx context.Context, seed queryform.State) (*queryform.Form, error) {
	schema, err := a.schema(ctx)
	if err != nil {
		return nil, err
	}
	options := append(a.formOptions(schema), queryform.WithInitialState(seed))
	return queryform.New(ctx, options...)
}
