package detect

import (
	"strings"
	"testing"
)

const domFixture = `<html><head><meta property="og:title" content="Meta Title"></head><body>
<div id="main" class="card top-card">
  <h1 class="title">Go Engineer</h1>
  <div class="subtitle"><a href="/c/acme">Acme</a></div>
</div>
<section><h2>Other</h2><p data-role="hint">hint text</p></section>
<script>var h1 = "not text";</script>
</body></html>`

func TestSnapshotSelectors(t *testing.T) {
	snap, err := ParseSnapshotString(domFixture)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		sel  string
		want string
	}{
		{"h1", "Go Engineer"},
		{".title", "Go Engineer"},
		{"#main h1", "Go Engineer"},
		{"div#main.card h1.title", "Go Engineer"},
		{"div.card.top-card .subtitle a", "Acme"},
		{"[data-role=hint]", "hint text"},
		{"p[data-role]", "hint text"},
		{"meta[property=og:title]", "Meta Title"},
		{".missing, h2", "Other"},
	}
	for _, tt := range tests {
		got := CleanText(nodeText(snap.First(tt.sel)))
		if got != tt.want {
			t.Errorf("First(%q): got %q, want %q", tt.sel, got, tt.want)
		}
	}
}

func TestSnapshotNoMatchIsNotAnError(t *testing.T) {
	snap, err := ParseSnapshotString(domFixture)
	if err != nil {
		t.Fatal(err)
	}
	for _, sel := range []string{".nope", "section h1", "#main.other", "", "[data-role=other]"} {
		if snap.Has(sel) {
			t.Errorf("Has(%q) = true, want false", sel)
		}
		if n := snap.First(sel); n != nil {
			t.Errorf("First(%q) = %v, want nil", sel, n.Data)
		}
	}

	var nilSnap *Snapshot
	if nilSnap.Has("h1") || nilSnap.First("h1") != nil || nilSnap.All("h1") != nil {
		t.Error("nil snapshot should match nothing")
	}
}

func TestSnapshotAllDocumentOrder(t *testing.T) {
	snap, err := ParseSnapshotString(`<h3>c</h3><h1>a</h1><div><h2>b</h2></div>`)
	if err != nil {
		t.Fatal(err)
	}
	nodes := snap.All("h1, h2, h3")
	var got string
	for _, n := range nodes {
		got += nodeText(n)
	}
	if got != "cab" {
		t.Errorf("got %q, want %q", got, "cab")
	}
}

func TestNodeTextSkipsScript(t *testing.T) {
	snap, err := ParseSnapshotString(domFixture)
	if err != nil {
		t.Fatal(err)
	}
	body := snap.First("body")
	if got := nodeText(body); strings.Contains(got, "not text") {
		t.Errorf("script text leaked: %q", got)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  Go \n\t Engineer  ", "Go Engineer"},
		{"Go\u200b Engi\u00adneer", "Go Engineer"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}
