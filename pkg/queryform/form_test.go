package queryform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-queryform/internal/testutil"
)

func newTestForm(t *testing.T, options ...Option) *Form {
	t.Helper()
	options = append([]Option{WithLogger(testutil.NewTestLogger(t))}, options...)
	form, err := New(context.Background(), options...)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return form
}

type recordingHandler struct {
	records []State
}

func (r *recordingHandler) handle(_ context.Context, record State) {
	r.records = append(r.records, record)
}

func TestForm_MountState(t *testing.T) {
	form := newTestForm(t)

	want := State{
		DisplayQuery: "",
		InputScript:  ScriptDevanagari,
		IsIndic:      true,
		IsAllTexts:   true,
	}
	if diff := cmp.Diff(want, form.State()); diff != "" {
		t.Fatalf("mount state mismatch (-want +got):\n%s", diff)
	}
	if got := form.Layout(); got != (Layout{Query: QueryGroupIndic, TextScope: false}) {
		t.Fatalf("unexpected mount layout %+v", got)
	}
	if len(form.Errors()) != 0 {
		t.Fatalf("expected no mount errors, got %v", form.Errors())
	}
}

func TestForm_SubmitDefaults(t *testing.T) {
	handler := &recordingHandler{}
	form := newTestForm(t, WithSubmitHandler(handler.handle))

	record, err := form.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := State{DisplayQuery: "", InputScript: ScriptDevanagari, IsIndic: true, IsAllTexts: true}
	if diff := cmp.Diff(want, record); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	if len(handler.records) != 1 {
		t.Fatalf("expected handler called once, got %d", len(handler.records))
	}
}

func TestForm_RomanizedQueryRecord(t *testing.T) {
	handler := &recordingHandler{}
	form := newTestForm(t, WithSubmitHandler(handler.handle))

	form.SetIndic(false)
	form.SetQuery("rama")
	form.SetInputScript("Latin")

	record, err := form.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]any{
		"query":        "rama",
		"displayQuery": "rama",
		"inputScript":  "Latin",
		"isIndic":      false,
		"isAllTexts":   true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("submitted record mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(record, handler.records[0]); diff != "" {
		t.Fatalf("handler received different record (-returned +handled):\n%s", diff)
	}
}

func TestForm_SelectedTextsOrderPreserved(t *testing.T) {
	form := newTestForm(t)

	form.SetAllTexts(false)
	if !form.Layout().TextScope {
		t.Fatalf("expected text scope visible")
	}
	form.SetSelectedTexts([]string{"Text1", "Text2"})

	record, err := form.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if diff := cmp.Diff([]string{"Text1", "Text2"}, record.SelectedTexts); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
	if record.IsAllTexts {
		t.Fatalf("expected restricted scope in record")
	}
}

func TestForm_SelectionDroppedWhenAllTexts(t *testing.T) {
	form := newTestForm(t)
	form.SetAllTexts(false)
	form.SetSelectedTexts([]string{"Text3"})
	form.SetAllTexts(true)

	record, err := form.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if record.SelectedTexts != nil {
		t.Fatalf("expected selection omitted, got %v", record.SelectedTexts)
	}
	if diff := cmp.Diff([]string{"Text3"}, form.State().SelectedTexts); diff != "" {
		t.Fatalf("selection should survive in state (-want +got):\n%s", diff)
	}
}

func TestForm_ToggleIndicRederivesDisplay(t *testing.T) {
	form := newTestForm(t)
	form.SetIndicQuery("राम")
	form.SetQuery("rama")
	if got := form.State().DisplayQuery; got != "राम" {
		t.Fatalf("display = %q, want indic query", got)
	}

	form.SetIndic(false)
	if got := form.State().DisplayQuery; got != "rama" {
		t.Fatalf("display = %q, want romanized query", got)
	}
	if got := form.Layout().Query; got != QueryGroupRomanized {
		t.Fatalf("layout group = %v", got)
	}

	form.SetIndic(true)
	state := form.State()
	if state.DisplayQuery != "राम" || state.Query != "rama" {
		t.Fatalf("toggle lost values: %+v", state)
	}
}

func TestForm_DisplayQueryUnaffectedByOtherFields(t *testing.T) {
	form := newTestForm(t)
	form.SetIndicQuery("dharma")

	form.SetAllTexts(false)
	form.SetSelectedTexts([]string{"Text2"})
	form.SetInputScript("Other")

	if got := form.State().DisplayQuery; got != "dharma" {
		t.Fatalf("display = %q, want dharma", got)
	}
}

func TestForm_InvalidScriptBlocksSubmit(t *testing.T) {
	handler := &recordingHandler{}
	form := newTestForm(t, WithSubmitHandler(handler.handle))

	var changes []Change
	form.Subscribe(func(c Change) { changes = append(changes, c) })

	form.SetIndic(false)
	form.SetQuery("rama")
	form.SetInputScript("Cyrillic")

	last := changes[len(changes)-1]
	if last.Field != FieldInputScript || last.Err == nil {
		t.Fatalf("expected inline inputScript error, got %+v", last)
	}
	if diff := cmp.Diff([]string{FieldInputScript}, form.Errors().Fields()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	_, err := form.Submit(context.Background())
	if !errors.Is(err, ErrSubmitBlocked) {
		t.Fatalf("expected submit blocked, got %v", err)
	}
	var blocked *SubmitBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected *SubmitBlockedError, got %T", err)
	}
	if diff := cmp.Diff([]string{FieldInputScript}, blocked.Errors.Fields()); diff != "" {
		t.Fatalf("blocked fields mismatch (-want +got):\n%s", diff)
	}
	if len(handler.records) != 0 {
		t.Fatalf("handler must not run on blocked submit")
	}

	form.SetInputScript("Latin")
	if len(form.Errors()) != 0 {
		t.Fatalf("expected errors cleared, got %v", form.Errors())
	}
	if _, err := form.Submit(context.Background()); err != nil {
		t.Fatalf("submit after fix: %v", err)
	}
	if len(handler.records) != 1 {
		t.Fatalf("expected one submission, got %d", len(handler.records))
	}
}

func TestForm_RecordLevelErrorsAreSurfaced(t *testing.T) {
	doc, err := schemaFS.ReadFile(schemaFile)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	doc = bytes.Replace(doc,
		[]byte("      required:\n        - displayQuery\n"),
		[]byte("      maxProperties: 2\n      required:\n        - displayQuery\n"), 1)
	form := newTestForm(t, WithSchema(newTestSchema(t, WithSchemaDocument(doc))))

	_, err = form.Submit(context.Background())
	if !errors.Is(err, ErrSubmitBlocked) {
		t.Fatalf("expected submit blocked, got %v", err)
	}

	errs := form.Errors()
	if len(errs) != 1 || errs[0].Field != "" {
		t.Fatalf("expected one record-level error, got %v", errs)
	}
	formErrs := form.FormErrors()
	if len(formErrs) != 1 || !strings.Contains(formErrs[0], "at most 2") {
		t.Fatalf("unexpected form errors %v", formErrs)
	}
	if diff := cmp.Diff(formErrs, errs.Messages("")); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_EmptySelectionBlocksSubmit(t *testing.T) {
	form := newTestForm(t)
	form.SetAllTexts(false)

	_, err := form.Submit(context.Background())
	var blocked *SubmitBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected blocked submit, got %v", err)
	}
	if diff := cmp.Diff([]string{FieldSelectedTexts}, form.Errors().Fields()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	form.SetAllTexts(true)
	if len(form.Errors()) != 0 {
		t.Fatalf("expected selection error dropped, got %v", form.Errors())
	}
}

func TestForm_SubmitIsRepeatable(t *testing.T) {
	handler := &recordingHandler{}
	form := newTestForm(t, WithSubmitHandler(handler.handle))
	form.SetIndicQuery("veda")

	first, err := form.Submit(context.Background())
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := form.Submit(context.Background())
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("submits differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first, form.State()); diff != "" {
		t.Fatalf("submit mutated state (-record +state):\n%s", diff)
	}
}

func TestForm_SubmitHonoursCancelledContext(t *testing.T) {
	handler := &recordingHandler{}
	form := newTestForm(t, WithSubmitHandler(handler.handle))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := form.Submit(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(handler.records) != 0 {
		t.Fatalf("handler must not run")
	}
}

func TestForm_ListenersAndUnsubscribe(t *testing.T) {
	form := newTestForm(t)

	var got []Change
	unsubscribe := form.Subscribe(func(c Change) { got = append(got, c) })

	form.SetIndicQuery("sita")
	form.SetIndicQuery("sita")
	form.SetAllTexts(false)

	want := []Change{
		{
			Field:        FieldIndicQuery,
			Value:        "sita",
			DisplayQuery: "sita",
			Layout:       Layout{Query: QueryGroupIndic},
		},
		{
			Field:        FieldIsAllTexts,
			Value:        false,
			DisplayQuery: "sita",
			Layout:       Layout{Query: QueryGroupIndic, TextScope: true},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}

	unsubscribe()
	form.SetIndicQuery("gita")
	if len(got) != 2 {
		t.Fatalf("listener fired after unsubscribe")
	}
}

func TestForm_SetRoutesEdits(t *testing.T) {
	form := newTestForm(t)

	steps := []struct {
		field string
		value any
	}{
		{FieldIsIndic, false},
		{FieldQuery, "krishna"},
		{FieldInputScript, "Other"},
		{FieldIsAllTexts, false},
		{FieldSelectedTexts, []any{"Text2", " Text2 ", "Text1"}},
	}
	for _, step := range steps {
		if err := form.Set(step.field, step.value); err != nil {
			t.Fatalf("set %s: %v", step.field, err)
		}
	}

	want := State{
		Query:         "krishna",
		DisplayQuery:  "krishna",
		InputScript:   ScriptOther,
		IsIndic:       false,
		IsAllTexts:    false,
		SelectedTexts: []string{"Text2", "Text1"},
	}
	if diff := cmp.Diff(want, form.State()); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_SetRejectsInvalidEdits(t *testing.T) {
	form := newTestForm(t)

	if err := form.Set(FieldDisplayQuery, "forced"); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	if err := form.Set("author", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if err := form.Set(FieldIsIndic, "true"); err == nil {
		t.Fatalf("expected type error for isIndic")
	}
	if err := form.Set(FieldQuery, 42); err == nil {
		t.Fatalf("expected type error for query")
	}
	if err := form.Set(FieldSelectedTexts, []any{"Text1", 3}); err == nil {
		t.Fatalf("expected type error for selectedTexts")
	}
	if diff := cmp.Diff(DefaultState(), form.State()); diff != "" {
		t.Fatalf("rejected edits changed state (-want +got):\n%s", diff)
	}
}

func TestForm_WithInitialState(t *testing.T) {
	form := newTestForm(t, WithInitialState(State{
		Query:         "rama",
		DisplayQuery:  "stale",
		InputScript:   ScriptLatin,
		IsIndic:       false,
		IsAllTexts:    false,
		SelectedTexts: []string{"Text3", "Text3"},
	}))

	state := form.State()
	if state.DisplayQuery != "rama" {
		t.Fatalf("display should be re-derived, got %q", state.DisplayQuery)
	}
	if diff := cmp.Diff([]string{"Text3"}, state.SelectedTexts); diff != "" {
		t.Fatalf("selection not normalized (-want +got):\n%s", diff)
	}
	if got := form.Layout(); got != (Layout{Query: QueryGroupRomanized, TextScope: true}) {
		t.Fatalf("unexpected layout %+v", got)
	}
}

func TestForm_ModelFollowsLayout(t *testing.T) {
	form := newTestForm(t)

	names := func() []string {
		var out []string
		for _, field := range form.Model().Fields {
			out = append(out, field.Name)
		}
		return out
	}

	if diff := cmp.Diff(form.Layout().Fields(), names()); diff != "" {
		t.Fatalf("model fields mismatch (-layout +model):\n%s", diff)
	}
	form.SetIndic(false)
	form.SetAllTexts(false)
	want := []string{FieldIsIndic, FieldQuery, FieldInputScript, FieldDisplayQuery, FieldIsAllTexts, FieldSelectedTexts}
	if diff := cmp.Diff(want, names()); diff != "" {
		t.Fatalf("model fields mismatch (-want +got):\n%s", diff)
	}
	if len(form.Schema().Model().Fields) != 7 {
		t.Fatalf("schema model should keep every field")
	}
}

func TestForm_StateIsASnapshot(t *testing.T) {
	form := newTestForm(t)
	form.SetAllTexts(false)
	form.SetSelectedTexts([]string{"Text1"})

	state := form.State()
	state.SelectedTexts[0] = "mutated"
	if got := form.State().SelectedTexts[0]; got != "Text1" {
		t.Fatalf("state leaked internal slice: %q", got)
	}
}
