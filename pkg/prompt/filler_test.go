package prompt

import (
	"context"
	"errors"
	"mime"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcode/internal/parser"
	"github.com/goliatone/go-formcode/pkg/compiler"
	"github.com/goliatone/go-formcode/pkg/testsupport"
)

const membership = `Name *= ___
Age = 0..150

Details =

Member *=
    ( ) yes
    ( ) no
Club (Member = yes) *= ___
Colour =
    ( ) Red
    ( ) Blue
Extras =
    [ ] Wifi
    [x] Parking
Bio = ...
Secret = ***
CV = *.pdf
`

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	textAreas    []string
	passwords    []string
	infoMessages []string
	selects      []SelectConfig
	inputPos     int
	selectPos    int
	multiPos     int
	textPos      int
	passPos      int
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, _ InputConfig) (string, error) {
	if s.passPos >= len(s.passwords) {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[s.passPos]
	s.passPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.selects = append(s.selects, cfg)
	if s.selectPos >= len(s.selectIdx) {
		return 0, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, _ SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multi-select scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no text area scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

type abortingDriver struct{ stubDriver }

func (a *abortingDriver) Input(context.Context, InputConfig) (string, error) {
	return "", ErrAborted
}

func compileMembership(t *testing.T) *compiler.Form {
	t.Helper()
	tree, err := parser.Parse(membership)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return compiler.MustCompile(tree)
}

var uploads = fstest.MapFS{"docs/cv.pdf": {Data: []byte("%PDF-1.7")}}

func TestFill_AsksActiveFields(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Jo", "200", "42", "Chess", "docs/cv.pdf"},
		selectIdx: []int{0, 2},
		multiIdx:  [][]int{{0, 1}},
		textAreas: []string{"Hello"},
		passwords: []string{"pw"},
	}
	filler := New(WithPromptDriver(driver), WithFileSystem(uploads))

	values, err := filler.Fill(testsupport.Context(), compileMembership(t))
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}

	want := compiler.Values{
		"name":   "Jo",
		"age":    int64(42),
		"member": "yes",
		"club":   "Chess",
		"extras": []string{"Wifi", "Parking"},
		"bio":    "Hello",
		"secret": "pw",
		"cv": compiler.Upload{
			Filename: "cv.pdf",
			MimeType: mime.TypeByExtension(".pdf"),
			Content:  []byte("%PDF-1.7"),
		},
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Age: must be between 0 and 150", "Details"}, driver.infoMessages); diff != "" {
		t.Fatalf("info messages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Red", "Blue", SkipOption}, driver.selects[1].Options); diff != "" {
		t.Fatalf("optional radio options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"yes", "no"}, driver.selects[0].Options); diff != "" {
		t.Fatalf("required radio options mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_SkipsInactiveFields(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Jo", "", ""},
		selectIdx: []int{1, 0},
		multiIdx:  [][]int{{}},
		textAreas: []string{""},
		passwords: []string{""},
	}
	values, err := New(WithPromptDriver(driver)).Fill(testsupport.Context(), compileMembership(t))
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if _, asked := values["club"]; asked {
		t.Fatalf("club must be skipped when member is no")
	}
	if driver.inputPos != 3 {
		t.Fatalf("expected 3 text prompts, got %d", driver.inputPos)
	}
	if values["colour"] != "Red" {
		t.Fatalf("expected colour Red, got %v", values["colour"])
	}
}

func TestFill_TooManyAttempts(t *testing.T) {
	driver := &stubDriver{inputs: []string{"Jo", "old", "older"}}
	_, err := New(WithPromptDriver(driver), WithMaxAttempts(2)).Fill(testsupport.Context(), compileMembership(t))
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if len(driver.infoMessages) != 2 {
		t.Fatalf("expected two error messages, got %v", driver.infoMessages)
	}
}

func TestFill_Aborted(t *testing.T) {
	_, err := New(WithPromptDriver(&abortingDriver{})).Fill(testsupport.Context(), compileMembership(t))
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestFill_MissingUpload(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Jo", "", "missing.pdf"},
		selectIdx: []int{1, 2},
		multiIdx:  [][]int{{}},
		textAreas: []string{""},
		passwords: []string{""},
	}
	_, err := New(WithPromptDriver(driver), WithFileSystem(uploads)).Fill(testsupport.Context(), compileMembership(t))
	if err == nil {
		t.Fatalf("expected error for unreadable upload")
	}
}
