package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-queryform/internal/testutil"
	"github.com/goliatone/go-queryform/pkg/model"
	"github.com/goliatone/go-queryform/pkg/queryform"
	"github.com/goliatone/go-queryform/pkg/render"
	"github.com/goliatone/go-queryform/pkg/testsupport"
)

// stubDriver answers prompts from per-message queues and falls back to the
// prompt default once a queue is drained.
type stubDriver struct {
	confirms map[string][]bool
	inputs   map[string][]string
	selects  map[string][]int
	multis   map[string][][]int
	err      error

	prompts []string
	infos   []string
	helps   map[string]string
}

func (s *stubDriver) record(message, help string) {
	s.prompts = append(s.prompts, message)
	if s.helps == nil {
		s.helps = make(map[string]string)
	}
	s.helps[message] = help
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.record(cfg.Message, cfg.Help)
	if s.err != nil {
		return "", s.err
	}
	if queue := s.inputs[cfg.Message]; len(queue) > 0 {
		s.inputs[cfg.Message] = queue[1:]
		return queue[0], nil
	}
	return cfg.Default, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	s.record(cfg.Message, cfg.Help)
	if s.err != nil {
		return false, s.err
	}
	if queue := s.confirms[cfg.Message]; len(queue) > 0 {
		s.confirms[cfg.Message] = queue[1:]
		return queue[0], nil
	}
	return cfg.Default, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.record(cfg.Message, cfg.Help)
	if queue := s.selects[cfg.Message]; len(queue) > 0 {
		s.selects[cfg.Message] = queue[1:]
		return queue[0], nil
	}
	return cfg.DefaultIndex, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	s.record(cfg.Message, cfg.Help)
	if queue := s.multis[cfg.Message]; len(queue) > 0 {
		s.multis[cfg.Message] = queue[1:]
		return queue[0], nil
	}
	return cfg.Defaults, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infos = append(s.infos, msg)
	return nil
}

func newRenderer(t *testing.T, driver PromptDriver, options ...Option) *Renderer {
	t.Helper()
	options = append([]Option{WithPromptDriver(driver), WithLogger(testutil.NewTestLogger(t))}, options...)
	r, err := New(options...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func TestRun_RomanizedRestrictedSession(t *testing.T) {
	driver := &stubDriver{
		confirms: map[string][]bool{"Transliteration Toggle": {false}, "All Texts Toggle": {false}},
		inputs:   map[string][]string{"Query": {"rama"}},
		selects:  map[string][]int{"Input Script": {1}},
		multis:   map[string][][]int{"Select Texts": {{1}}},
	}
	form := testsupport.MustNewForm(t)

	record, err := newRenderer(t, driver).Run(context.Background(), form)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := queryform.State{
		Query:         "rama",
		DisplayQuery:  "rama",
		InputScript:   queryform.ScriptLatin,
		IsAllTexts:    false,
		IsIndic:       false,
		SelectedTexts: []string{"Text2"},
	}
	if diff := cmp.Diff(want, record); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}

	wantPrompts := []string{"Transliteration Toggle", "Query", "Input Script", "All Texts Toggle", "Select Texts"}
	if diff := cmp.Diff(wantPrompts, driver.prompts); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"i Display Query: rama"}, driver.infos); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_IndicDefaultsSubmitImmediately(t *testing.T) {
	driver := &stubDriver{inputs: map[string][]string{"Indic Query": {"राम"}}}
	form := testsupport.MustNewForm(t)

	record, err := newRenderer(t, driver).Run(context.Background(), form)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if record.DisplayQuery != "राम" || !record.IsAllTexts || record.SelectedTexts != nil {
		t.Fatalf("unexpected record %+v", record)
	}
	wantPrompts := []string{"Transliteration Toggle", "Indic Query", "All Texts Toggle"}
	if diff := cmp.Diff(wantPrompts, driver.prompts); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}
	if help := driver.helps["Indic Query"]; strings.Contains(help, "<") || !strings.Contains(help, "राम") {
		t.Fatalf("help should be plain text, got %q", help)
	}
}

func TestRun_BlockedSubmitRepromptsFailingFields(t *testing.T) {
	driver := &stubDriver{
		confirms: map[string][]bool{"All Texts Toggle": {false}},
		multis:   map[string][][]int{"Select Texts": {{}, {0, 0}}},
	}
	form := testsupport.MustNewForm(t)

	record, err := newRenderer(t, driver).Run(context.Background(), form)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff([]string{"Text1"}, record.SelectedTexts); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}

	wantPrompts := []string{"Transliteration Toggle", "Indic Query", "All Texts Toggle", "Select Texts", "Select Texts"}
	if diff := cmp.Diff(wantPrompts, driver.prompts); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}

	var reported bool
	for _, info := range driver.infos {
		if strings.HasPrefix(info, "! selectedTexts: ") {
			reported = true
		}
	}
	if !reported {
		t.Fatalf("blocked field was not reported: %v", driver.infos)
	}
}

func TestRun_RepromptsHiddenFailingField(t *testing.T) {
	seed := queryform.DefaultState()
	seed.InputScript = "Bogus"
	driver := &stubDriver{}
	form := testsupport.MustNewForm(t, queryform.WithInitialState(seed))

	record, err := newRenderer(t, driver).Run(context.Background(), form)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if record.InputScript != queryform.ScriptDevanagari || !record.IsIndic {
		t.Fatalf("unexpected record %+v", record)
	}

	wantPrompts := []string{"Transliteration Toggle", "Indic Query", "All Texts Toggle", "Input Script"}
	if diff := cmp.Diff(wantPrompts, driver.prompts); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}
	wantInfos := []string{"i Display Query: ", "! inputScript: must be one of Devanagari, Latin, Other"}
	if diff := cmp.Diff(wantInfos, driver.infos); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_GivesUpAfterMaxAttempts(t *testing.T) {
	driver := &stubDriver{confirms: map[string][]bool{"All Texts Toggle": {false}}}
	form := testsupport.MustNewForm(t)

	_, err := newRenderer(t, driver, WithMaxAttempts(2)).Run(context.Background(), form)
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if !errors.Is(err, queryform.ErrSubmitBlocked) {
		t.Fatalf("expected blocked submit in chain, got %v", err)
	}
	if got := strings.Count(strings.Join(driver.prompts, "|"), "Select Texts"); got != 2 {
		t.Fatalf("expected two selection prompts, got %d", got)
	}
}

func TestRun_Aborted(t *testing.T) {
	driver := &stubDriver{err: ErrAborted}
	_, err := newRenderer(t, driver).Run(context.Background(), testsupport.MustNewForm(t))
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestRender_SeedsValuesAndPrintsPretty(t *testing.T) {
	driver := &stubDriver{}
	r := newRenderer(t, driver, WithOutputFormat(OutputFormatPrettyText))

	output, err := r.Render(context.Background(), model.FormModel{}, render.RenderOptions{
		Values:     map[string]any{"isIndic": false, "query": "seed"},
		FormErrors: []string{"previous attempt failed"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := "displayQuery=seed\ninputScript=Devanagari\nisAllTexts=true\nisIndic=false\nquery=seed\n"
	if diff := cmp.Diff(want, string(output)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if len(driver.infos) == 0 || driver.infos[0] != "! previous attempt failed" {
		t.Fatalf("expected initial form error, got %v", driver.infos)
	}
	if r.ContentType() != "text/plain; charset=utf-8" {
		t.Fatalf("content type = %q", r.ContentType())
	}
}

func TestRender_RequiresContext(t *testing.T) {
	var ctx context.Context
	if _, err := newRenderer(t, &stubDriver{}).Render(ctx, model.FormModel{}, render.RenderOptions{}); err == nil {
		t.Fatalf("expected error for nil context")
	}
}

func TestRender_RejectsUnknownValues(t *testing.T) {
	r := newRenderer(t, &stubDriver{})
	_, err := r.Render(context.Background(), model.FormModel{}, render.RenderOptions{
		Values: map[string]any{"bogus": true},
	})
	if !errors.Is(err, queryform.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestSerialize_Formats(t *testing.T) {
	record := queryform.State{
		Query:         "rama",
		DisplayQuery:  "rama",
		InputScript:   queryform.ScriptLatin,
		SelectedTexts: []string{"Text2", "Text3"},
	}

	cases := []struct {
		format OutputFormat
		want   string
	}{
		{
			format: OutputFormatJSON,
			want:   `{"query":"rama","displayQuery":"rama","inputScript":"Latin","isIndic":false,"isAllTexts":false,"selectedTexts":["Text2","Text3"]}`,
		},
		{
			format: OutputFormatFormURLEncoded,
			want:   "displayQuery=rama&inputScript=Latin&isAllTexts=false&isIndic=false&query=rama&selectedTexts%5B%5D=Text2&selectedTexts%5B%5D=Text3",
		},
		{
			format: OutputFormatPrettyText,
			want:   "displayQuery=rama\ninputScript=Latin\nisAllTexts=false\nisIndic=false\nquery=rama\nselectedTexts[0]=Text2\nselectedTexts[1]=Text3\n",
		},
	}
	for _, tc := range cases {
		t.Run(string(tc.format), func(t *testing.T) {
			r := newRenderer(t, &stubDriver{}, WithOutputFormat(tc.format))
			got, err := r.Serialize(record)
			if err != nil {
				t.Fatalf("serialize: %v", err)
			}
			if diff := cmp.Diff(tc.want, string(got)); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	if _, err := New(WithOutputFormat("xml")); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
