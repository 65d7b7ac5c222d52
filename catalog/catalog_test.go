package catalog

import "testing"

func TestDefault_Loads(t *testing.T) {
	c := Default()
	if c.Len() == 0 {
		t.Fatal("default catalog is empty")
	}
	for _, it := range c.Items() {
		if it.Text == "" || it.Ref == "" {
			t.Errorf("incomplete item: %+v", it)
		}
	}
}

func TestDefault_SameInstance(t *testing.T) {
	if Default() != Default() {
		t.Error("Default parsed twice")
	}
}

func TestMustParse(t *testing.T) {
	c := MustParse([]byte("- ref: Psalm 46:10\n  text: Be still\n"))
	if c.Len() != 1 || c.At(0).Ref != "Psalm 46:10" {
		t.Fatalf("catalog: %+v", c.Items())
	}

	defer func() {
		if recover() == nil {
			t.Error("MustParse did not panic on an empty list")
		}
	}()
	MustParse([]byte("[]"))
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
	}{
		{"empty", nil},
		{"blank text", []Item{{Text: "  ", Ref: "a"}}},
		{"blank ref", []Item{{Text: "x", Ref: ""}}},
		{"duplicate ref", []Item{{Text: "x", Ref: "a"}, {Text: "y", Ref: "a"}}},
		{"markup only", []Item{{Text: "<script>alert(1)</script>", Ref: "a"}}},
	}
	for _, tt := range tests {
		if _, err := New(tt.items); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestNew_StripsMarkup(t *testing.T) {
	c, err := New([]Item{{Text: `Love <b>one</b> another & be kind`, Ref: `John <i>13:34</i>`}})
	if err != nil {
		t.Fatal(err)
	}
	got := c.At(0)
	if got.Text != "Love one another & be kind" {
		t.Errorf("Text: got %q", got.Text)
	}
	if got.Ref != "John 13:34" {
		t.Errorf("Ref: got %q", got.Ref)
	}
}

func TestAt_StablePointer(t *testing.T) {
	c := Default()
	if c.At(0) != c.At(0) {
		t.Error("At returned different pointers for the same index")
	}
}

func TestItems_IsCopy(t *testing.T) {
	c, _ := New([]Item{{Text: "x", Ref: "a"}})
	items := c.Items()
	items[0].Text = "mutated"
	if c.At(0).Text != "x" {
		t.Error("Items leaked internal slice")
	}
}

func TestLookup(t *testing.T) {
	c, _ := New([]Item{{Text: "x", Ref: "a"}, {Text: "y", Ref: "b"}})
	it, ok := c.Lookup("b")
	if !ok || it.Text != "y" {
		t.Fatalf("Lookup(b): got %+v, %v", it, ok)
	}
	if _, ok := c.Lookup("zzz"); ok {
		t.Error("Lookup(zzz): expected miss")
	}
}

func TestParse_BadYAML(t *testing.T) {
	if _, err := Parse([]byte("::: not yaml [")); err == nil {
		t.Error("expected parse error")
	}
}
