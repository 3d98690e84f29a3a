package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"runtime error", "E100", "Invalid child", CategoryRuntime},
		{"dom error", "E130", "Hierarchy request error", CategoryDOM},
		{"build error", "E141", "WebAssembly build failed", CategoryBuild},
		{"deploy error", "E151", "Deploy bucket not configured", CategoryDeploy},
		{"unknown error code", "E999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "unknown command %q", "frob")
	if err.Message != `unknown command "frob"` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Code != "" {
		t.Errorf("Code = %q, want empty", err.Code)
	}
}

func TestError_Error(t *testing.T) {
	err := New("E100")
	if got := err.Error(); got != "E100: Invalid child" {
		t.Errorf("Error() = %q", got)
	}

	err = New("E100").WithDetailf("cannot render %T", struct{}{})
	if got := err.Error(); got != "E100: Invalid child: cannot render struct {}" {
		t.Errorf("Error() = %q", got)
	}
}

func TestError_Is(t *testing.T) {
	sentinel := New("E101")
	err := fmt.Errorf("building: %w", New("E101").WithDetail("got int"))

	if !stderrors.Is(err, sentinel) {
		t.Error("errors.Is should match on code through wrapping")
	}
	if stderrors.Is(err, New("E100")) {
		t.Error("errors.Is should not match a different code")
	}
	if stderrors.Is(Newf(CategoryCLI, "x"), Newf(CategoryCLI, "x")) {
		t.Error("code-less errors should not match each other")
	}
}

func TestError_Wrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := New("E142").Wrap(cause)
	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause should be reachable")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E150") != nil {
		t.Error("FromError(nil) should be nil")
	}

	orig := New("E141")
	if got := FromError(fmt.Errorf("ctx: %w", orig), "E150"); got != orig {
		t.Error("FromError should return the existing *Error")
	}

	got := FromError(stderrors.New("boom"), "E150")
	if got.Code != "E150" || got.Wrapped == nil {
		t.Errorf("FromError = %+v", got)
	}
}

func TestWithLocationFromOutput(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "main.go")
	src := "package main\n\nfunc main() {\n\tundefined()\n}\n"
	if err := os.WriteFile(file, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	output := "# example.com/app\n" + file + ":4:2: undefined: undefined\n"
	err := New("E141").WithLocationFromOutput(output)
	if err.Location == nil {
		t.Fatal("Location not parsed")
	}
	if err.Location.Line != 4 || err.Location.Column != 2 {
		t.Errorf("Location = %s", err.Location)
	}
	if len(err.Context) == 0 {
		t.Error("Context lines not read")
	}
}

func TestLocation_String(t *testing.T) {
	var nilLoc *Location
	if nilLoc.String() != "" {
		t.Error("nil location should render empty")
	}
	if got := (&Location{File: "a.go", Line: 3}).String(); got != "a.go:3" {
		t.Errorf("String() = %q", got)
	}
	if got := (&Location{File: "a.go", Line: 3, Column: 7}).String(); got != "a.go:3:7" {
		t.Errorf("String() = %q", got)
	}
}

func TestFormat(t *testing.T) {
	err := New("E151").WithDetail("no bucket in inactive.json")
	out := err.Format()

	for _, want := range []string{"E151", "Deploy bucket not configured", "no bucket in inactive.json", "Hint:", "deploy.bucket"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	Fprint(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "plain failure") {
		t.Errorf("Fprint = %q", buf.String())
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) != len(registry) {
		t.Fatalf("len = %d, want %d", len(codes), len(registry))
	}
	for _, code := range codes {
		if _, ok := GetTemplate(code); !ok {
			t.Errorf("GetTemplate(%q) missing", code)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 10)
	for _, line := range lines {
		if len(line) > 10 {
			t.Errorf("line %q exceeds width", line)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six" {
		t.Errorf("wrapText lost words: %v", lines)
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should produce no lines")
	}
}
