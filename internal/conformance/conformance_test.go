package conformance

import (
	"strings"
	"testing"

	hymn "github.com/xirelogy/go-hymn"
)

func TestConformance(t *testing.T) {
	cases, err := LoadDir(DefaultDir)
	if err != nil {
		t.Fatalf("failed to load suites: %v", err)
	}
	if len(cases) == 0 {
		t.Fatal("no cases loaded")
	}

	results := NewRunner().RunAll(cases)

	byFile := make(map[string][]Result)
	var files []string
	for _, res := range results {
		if _, seen := byFile[res.Case.File]; !seen {
			files = append(files, res.Case.File)
		}
		byFile[res.Case.File] = append(byFile[res.Case.File], res)
	}
	for _, file := range files {
		fileResults := byFile[file]
		t.Run(file, func(t *testing.T) {
			for _, res := range fileResults {
				t.Run(res.Case.Case.Name, func(t *testing.T) {
					switch {
					case res.Skipped:
						t.Skipf("skipped: %s", res.SkipReason)
					case !res.Passed:
						t.Fatalf("%v", res.Err)
					}
				})
			}
		})
	}

	t.Logf("summary: %s", ComputeStats(results))
}

func TestLoadDir(t *testing.T) {
	cases, err := LoadDir(DefaultDir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	files := make(map[string]bool)
	for _, lc := range cases {
		if lc.Case.Name == "" || lc.File == "" || lc.Suite == nil {
			t.Fatalf("incomplete case %+v", lc)
		}
		files[lc.File] = true
	}
	for _, want := range []string{"arithmetic.yaml", "globals.yaml", "errors.yaml"} {
		if !files[want] {
			t.Fatalf("expected cases from %s, got files %v", want, files)
		}
	}
}

func TestParseRejectsBadSuites(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown key", "name: x\ntests:\n  - name: a\n    code: '1'\n    expect:\n      valu: 1\n", "valu"},
		{"missing name", "name: x\ntests:\n  - code: '1'\n    expect:\n      value: 1\n", "no name"},
		{"missing code", "name: x\ntests:\n  - name: a\n    expect:\n      value: 1\n", "no code"},
	}
	for _, tt := range tests {
		_, err := Parse([]byte(tt.src))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tt.name, tt.want, err)
		}
	}
}

func TestRunnerReportsMismatches(t *testing.T) {
	suite, err := Parse([]byte(`
name: mismatches
tests:
  - name: wrong value
    code: 1 + 1
    expect:
      value: 3
  - name: integer is not float
    code: "2"
    expect:
      value: 2.0
  - name: unexpected fault
    code: 1 / 0
    expect:
      value: 1
  - name: wrong fault class
    code: 1 / 0
    expect:
      fault: type_mismatch
  - name: no expectation
    code: "1"
    expect: {}
  - name: failing earlier input
    inputs: ["1 +"]
    code: "1"
    expect:
      value: 1
  - name: skipped
    skip: not yet
    code: "1"
    expect:
      value: 1
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var cases []LoadedCase
	for _, c := range suite.Cases {
		cases = append(cases, LoadedCase{File: "inline", Suite: suite, Case: c})
	}
	results := NewRunner().RunAll(cases)
	stats := ComputeStats(results)
	if stats.Failed != 6 || stats.Skipped != 1 || stats.Passed != 0 {
		t.Fatalf("unexpected stats %s", stats)
	}
	if results[6].SkipReason != "not yet" {
		t.Fatalf("unexpected skip reason %q", results[6].SkipReason)
	}
}

func TestRunnerWithConfig(t *testing.T) {
	cfg := hymn.DefaultConfig()
	cfg.Session.InstructionLimit = 2
	lc := LoadedCase{
		File:  "inline",
		Suite: &Suite{Name: "limits"},
		Case: Case{
			Name:   "limit",
			Code:   "1 + 2",
			Expect: Expectation{Fault: "instruction_limit"},
		},
	}
	if res := NewRunnerWithConfig(cfg).Run(lc); !res.Passed {
		t.Fatalf("expected pass, got %v", res.Err)
	}
}
