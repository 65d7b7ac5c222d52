package htmldom

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/hazyhaar/adswap/dom"
)

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	d, err := ParseString(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func first(t *testing.T, d *Document, sel string) *Element {
	t.Helper()
	els, err := d.QueryAll(context.Background(), sel)
	if err != nil {
		t.Fatal(err)
	}
	if len(els) == 0 {
		t.Fatalf("no match for %q", sel)
	}
	return els[0].(*Element)
}

func TestMeasure(t *testing.T) {
	tests := []struct {
		markup string
		want   dom.Box
	}{
		{`<div id="x" style="width:300px;height:150px"></div>`, dom.Box{Width: 300, Height: 150}},
		{`<div id="x" style="WIDTH: 300PX ; height : 250px !important"></div>`, dom.Box{Width: 300, Height: 250}},
		{`<iframe id="x" width="728" height="90"></iframe>`, dom.Box{Width: 728, Height: 90}},
		{`<div id="x" style="width:50%;height:auto" width="10" height="20"></div>`, dom.Box{Width: 10, Height: 20}},
		{`<div id="x" style="width:10em"></div>`, dom.Box{}},
		{`<div id="x" style="width:300px;height:250px;display:none"></div>`, dom.Box{Width: 300, Height: 250, Display: "none"}},
		{`<div id="x" style="width:300px;height:250px;display:NONE"></div>`, dom.Box{Width: 300, Height: 250, Display: "none"}},
		{`<div id="x" style="display: None !important"></div>`, dom.Box{Display: "none"}},
		{`<div id="x"></div>`, dom.Box{}},
	}
	for _, tt := range tests {
		d := mustParse(t, "<html><body>"+tt.markup+"</body></html>")
		got, _ := first(t, d, "#x").Measure(context.Background())
		if got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.markup, got, tt.want)
		}
	}
}

func TestMarkAndMarked(t *testing.T) {
	d := mustParse(t, `<html><body><div id="x"></div></body></html>`)
	el := first(t, d, "#x")
	ctx := context.Background()

	if m, _ := el.Marked(ctx); m {
		t.Fatal("fresh element marked")
	}
	el.Mark(ctx)
	if m, _ := el.Marked(ctx); !m {
		t.Fatal("Mark did not set marker")
	}
	if got := d.Find("#x").AttrOr(dom.MarkerAttr, ""); got != dom.MarkerValue {
		t.Errorf("marker value: got %q", got)
	}
}

func TestHidePreservesStyle(t *testing.T) {
	d := mustParse(t, `<html><body><div id="x" style="width:300px; color: red; display:block"></div></body></html>`)
	first(t, d, "#x").Hide(context.Background())
	got := d.Find("#x").AttrOr("style", "")
	if got != "width:300px;color:red;display:none" {
		t.Errorf("style: got %q", got)
	}
}

func TestHide_KeepsSemicolonInValue(t *testing.T) {
	d := mustParse(t, `<html><body><div id="x" style="width:300px;height:250px;background:url('data:image/png;base64,AAAA')"></div></body></html>`)
	el := first(t, d, "#x")
	el.Hide(context.Background())

	got := d.Find("#x").AttrOr("style", "")
	if !strings.Contains(got, "url('data:image/png;base64,AAAA')") {
		t.Errorf("data URI mangled: %q", got)
	}
	if !strings.HasSuffix(got, "display:none") {
		t.Errorf("display not forced: %q", got)
	}
	box, _ := el.Measure(context.Background())
	if box.Width != 300 || box.Height != 250 || box.Display != "none" {
		t.Errorf("measure after hide: %+v", box)
	}
}

func TestHide_OverridesImportant(t *testing.T) {
	d := mustParse(t, `<html><body><div id="x" style="display:block !important;color:red"></div></body></html>`)
	first(t, d, "#x").Hide(context.Background())
	if got := d.Find("#x").AttrOr("style", ""); got != "display:none;color:red" {
		t.Errorf("style: got %q", got)
	}
}

func TestHide_EmptyStyle(t *testing.T) {
	d := mustParse(t, `<html><body><div id="x"></div></body></html>`)
	first(t, d, "#x").Hide(context.Background())
	if got := d.Find("#x").AttrOr("style", ""); got != "display:none" {
		t.Errorf("style: got %q", got)
	}
}

func TestMarked_EmptyValue(t *testing.T) {
	d := mustParse(t, `<html><body><div id="x" `+dom.MarkerAttr+`=""></div></body></html>`)
	el := first(t, d, "#x")
	if m, _ := el.Marked(context.Background()); m {
		t.Fatal("empty marker treated as marked")
	}
	el.Mark(context.Background())
	if m, _ := el.Marked(context.Background()); !m {
		t.Fatal("Mark did not set marker over empty value")
	}
}

func TestInsertBefore(t *testing.T) {
	d := mustParse(t, `<html><body><div id="x"></div></body></html>`)
	el := first(t, d, "#x")
	c := dom.Container{Width: 300, Height: 150, FontSize: 18.75, Text: `Be <still> & know`, Ref: "Psalm 46:10"}

	ok, err := el.InsertBefore(context.Background(), c)
	if err != nil || !ok {
		t.Fatalf("InsertBefore: ok=%v err=%v", ok, err)
	}

	prev := d.Find("#x").Prev()
	if !prev.HasClass(dom.ContainerClass) {
		t.Fatalf("previous sibling is not the container: %v", prev.Nodes)
	}
	if got := prev.AttrOr("style", ""); got != "width:300px;height:150px;font-size:18.75px" {
		t.Errorf("style: got %q", got)
	}
	if got := prev.Find("." + dom.TextClass).Text(); got != `"Be <still> & know"` {
		t.Errorf("text: got %q", got)
	}
	if got := prev.Find("." + dom.RefClass).Text(); got != "Psalm 46:10" {
		t.Errorf("ref: got %q", got)
	}

	// Text is rendered escaped, never as markup.
	body, _ := d.Body()
	if strings.Contains(body, "<still>") {
		t.Errorf("text rendered as markup: %s", body)
	}
}

func TestInsertBefore_Detached(t *testing.T) {
	n := &html.Node{Type: html.ElementNode, Data: "div"}
	ok, err := NewElement(n).InsertBefore(context.Background(), dom.Container{})
	if err != nil || ok {
		t.Errorf("detached: ok=%v err=%v", ok, err)
	}
}

func TestQueryAll_InvalidSelector(t *testing.T) {
	d := mustParse(t, `<html><body></body></html>`)
	if _, err := d.QueryAll(context.Background(), "div[["); err == nil {
		t.Error("expected selector error")
	}
}

func TestQueryAll_DocumentOrder(t *testing.T) {
	d := mustParse(t, `<html><body>
<div class="ad" id="a"><div class="ad" id="b"></div></div><div class="ad" id="c"></div>
</body></html>`)
	els, _ := d.QueryAll(context.Background(), ".ad")
	var ids []string
	for _, e := range els {
		ids = append(ids, strings.TrimPrefix(e.Describe(), "div#")[:1])
	}
	if strings.Join(ids, "") != "abc" {
		t.Errorf("order: got %v", ids)
	}
}

func TestDescribe(t *testing.T) {
	d := mustParse(t, `<html><body><aside id="s" class="ad  sidebar"></aside></body></html>`)
	if got := first(t, d, "aside").Describe(); got != "aside#s.ad.sidebar" {
		t.Errorf("Describe: got %q", got)
	}
}
