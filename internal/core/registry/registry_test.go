package registry

import (
	"testing"

	"github.com/casebinder/casebinder/internal/core/domain"
)

func testEntries() []Entry {
	return []Entry{
		{ID: "supporting-affidavit", Label: "Supporting Affidavit", Aliases: []string{"affidavit"}},
		{ID: "translator-declaration", Label: "Translator's Declaration", Aliases: []string{"certificate of translation"}},
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New("1.0.0", append(testEntries(), Entry{ID: "Supporting Affidavit"}))
	if err == nil {
		t.Fatalf("ids that fold to the same value must be rejected")
	}

	_, err = New("1.0.0", append(testEntries(), Entry{ID: "sworn-statement", Aliases: []string{"Affidavit"}}))
	if err == nil {
		t.Fatalf("an alias claimed by two types must be rejected")
	}
}

func TestNormalizeFoldsCaseAndPunctuation(t *testing.T) {
	r, err := New("1.0.0", testEntries())
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}

	cases := map[string]domain.DocumentTypeID{
		"supporting-affidavit":       "supporting-affidavit",
		"Supporting Affidavit":       "supporting-affidavit",
		"  affidavit ":               "supporting-affidavit",
		"Translator's Declaration":   "translator-declaration",
		"certificate_of_translation": "translator-declaration",
	}
	for in, want := range cases {
		got, err := r.Normalize(in)
		if err != nil {
			t.Fatalf("normalize %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("normalize %q: expected %s, got %s", in, want, got)
		}
	}
}

func TestNormalizeRejectsUnregistered(t *testing.T) {
	r, err := New("1.0.0", testEntries())
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	if _, err := r.Normalize("mystery-document"); err == nil {
		t.Fatalf("unregistered labels must be rejected, never invented")
	}
	if _, err := r.Normalize("   "); err == nil {
		t.Fatalf("blank labels must be rejected")
	}
}

func TestLabelFallsBackToID(t *testing.T) {
	r, err := New("1.0.0", testEntries())
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	if got := r.Label("supporting-affidavit"); got != "Supporting Affidavit" {
		t.Fatalf("expected display label, got %q", got)
	}
	if got := r.Label("unknown-type"); got != "unknown-type" {
		t.Fatalf("expected id fallback, got %q", got)
	}
}
