package match

import "testing"

func TestMetadata_String(t *testing.T) {
	md := Metadata{"text": "a passage", "page_number": 3.0}

	if v, ok := md.String("text"); !ok || v != "a passage" {
		t.Errorf("String(text) = %q, %v", v, ok)
	}
	if _, ok := md.String("page_number"); ok {
		t.Error("String(page_number) should fail on a numeric field")
	}
	if _, ok := md.String("missing"); ok {
		t.Error("String(missing) should fail")
	}
}

func TestMetadata_Float(t *testing.T) {
	md := Metadata{
		"page_number": 3.0,
		"date":        float32(1683158400),
		"count":       7,
		"text":        "a passage",
	}

	tests := []struct {
		key  string
		want float64
		ok   bool
	}{
		{"page_number", 3, true},
		{"date", 1683158400, true},
		{"count", 7, true},
		{"text", 0, false},
		{"missing", 0, false},
	}

	for _, tt := range tests {
		got, ok := md.Float(tt.key)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Float(%q) = %v, %v; want %v, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMatch_Accessors(t *testing.T) {
	m := New("abc123_0", 0.92, Metadata{"rec_id": "abc123"})

	if m.ID() != "abc123_0" {
		t.Errorf("unexpected id: %q", m.ID())
	}
	if m.Score() != 0.92 {
		t.Errorf("unexpected score: %v", m.Score())
	}
	if v, _ := m.Metadata().String("rec_id"); v != "abc123" {
		t.Errorf("unexpected rec_id: %q", v)
	}
}
