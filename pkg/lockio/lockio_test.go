package lockio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/gemlock/pkg/errors"
	"github.com/matzehuels/gemlock/pkg/resolve"
)

func sampleLock() *Lock {
	return &Lock{
		Platforms: []string{"x86_64-linux"},
		Gems: []resolve.ResolvedGem{
			{Name: "rack", Version: "3.0.8"},
			{Name: "nokogiri", Version: "1.16.0", Platform: "x86_64-linux",
				Dependencies: []resolve.ResolvedDependency{{Name: "racc", Requirement: "~> 1.4"}}},
			{Name: "racc", Version: "1.7.3"},
			{Name: "puma", Version: "6.4.0", Dependencies: []resolve.ResolvedDependency{{Name: "nio4r", Requirement: "~> 2.0"}}},
			{Name: "nio4r", Version: "2.7.0"},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(sampleLock(), &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"format": 1`) {
		t.Errorf("missing format number:\n%s", buf.String())
	}

	l, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	var names []string
	for _, g := range l.Gems {
		names = append(names, g.Name)
	}
	if got := strings.Join(names, ","); got != "nio4r,nokogiri,puma,racc,rack" {
		t.Errorf("gems = %s, want sorted by name", got)
	}
	if l.Gems[1].Platform != "x86_64-linux" || l.Gems[1].Dependencies[0].Requirement != "~> 1.4" {
		t.Errorf("nokogiri entry lost data: %+v", l.Gems[1])
	}
}

func TestWriteIsDeterministic(t *testing.T) {
	a, b := sampleLock(), sampleLock()
	b.Gems[0], b.Gems[4] = b.Gems[4], b.Gems[0]

	var bufA, bufB bytes.Buffer
	if err := WriteJSON(a, &bufA); err != nil {
		t.Fatal(err)
	}
	if err := WriteJSON(b, &bufB); err != nil {
		t.Fatal(err)
	}
	if bufA.String() != bufB.String() {
		t.Error("entry order changed the output")
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name, input string
		code        errors.Code
	}{
		{"malformed", `{"gems": [`, ""},
		{"future format", `{"format": 9, "gems": []}`, errors.ErrCodeUnsupported},
		{"missing name", `{"gems": [{"version": "1.0"}]}`, errors.ErrCodeInvalidInput},
		{"bad version", `{"gems": [{"name": "rack", "version": "x.y"}]}`, errors.ErrCodeInvalidVersion},
		{"duplicate", `{"gems": [{"name": "rack", "version": "1.0"}, {"name": "rack", "version": "2.0"}]}`, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("ReadJSON succeeded, want error")
			}
			if tt.code != "" && !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestPlatformVariantsAreDistinct(t *testing.T) {
	input := `{"gems": [
		{"name": "nokogiri", "version": "1.16.0", "platform": "x86_64-linux"},
		{"name": "nokogiri", "version": "1.16.0", "platform": "arm64-darwin"}
	]}`
	l, err := ReadJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got := len(l.Find("nokogiri")); got != 2 {
		t.Errorf("Find(nokogiri) = %d builds, want 2", got)
	}
	if l.Gems[0].Platform != "arm64-darwin" {
		t.Errorf("first build = %s, want platform order", l.Gems[0].Key())
	}
}

func TestExportImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gemlock.json")
	if err := ExportJSON(sampleLock(), path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	l, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}

	locked, err := l.Locked()
	if err != nil {
		t.Fatalf("Locked: %v", err)
	}
	if v := locked["rack"]; v.String() != "3.0.8" {
		t.Errorf("locked rack = %s, want 3.0.8", v)
	}
	if got := l.Dependents("racc"); len(got) != 1 || got[0] != "nokogiri" {
		t.Errorf("Dependents(racc) = %v", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("export left %d files behind, want 1", len(entries))
	}
}

func TestImportMissing(t *testing.T) {
	_, err := ImportJSON(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil || !os.IsNotExist(unwrapAll(err)) {
		t.Errorf("ImportJSON(missing) = %v, want not-exist error", err)
	}
}

func unwrapAll(err error) error {
	for {
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		err = u.Unwrap()
	}
}

func TestFromResult(t *testing.T) {
	res := &resolve.Result{RunID: "abc", Gems: sampleLock().Gems}
	l := FromResult(res, []string{"arm64-darwin"}, "3.3.0")
	if l.Format != Format || l.RunID != "abc" || l.Ruby != "3.3.0" || len(l.Gems) != 5 {
		t.Errorf("FromResult = %+v", l)
	}
}
