package pinyin

import "testing"

func TestConvertHanOnly(t *testing.T) {
	c := NewConverter()

	got := c.Convert("你好")
	if got != "nǐ hǎo" {
		t.Errorf("Convert(你好) = %q, want %q", got, "nǐ hǎo")
	}
}

func TestConvertNoHan(t *testing.T) {
	c := NewConverter()

	cases := []string{"", "hello world", "123 !!", "la la la (oh)"}
	for _, in := range cases {
		if got := c.Convert(in); got != "" {
			t.Errorf("Convert(%q) = %q, want empty annotation", in, got)
		}
	}
}

func TestConvertMixedLine(t *testing.T) {
	c := NewConverter()

	got := c.Convert("你好 baby")
	if got != "nǐ hǎo baby" {
		t.Errorf("Convert(mixed) = %q, want %q", got, "nǐ hǎo baby")
	}
}

// Conversion must be a pure function: the same input always yields the
// same annotation.
func TestConvertIdempotent(t *testing.T) {
	c := NewConverter()

	first := c.Convert("世界")
	second := c.Convert("世界")
	if first != second {
		t.Errorf("Convert not deterministic: %q vs %q", first, second)
	}
	if first == "" {
		t.Error("expected non-empty annotation for 世界")
	}
}

func TestContainsHan(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"你好", true},
		{"hello 你 world", true},
		{"hello world", false},
		{"", false},
		{"カタカナ", false},
	}
	for _, tc := range cases {
		if got := ContainsHan(tc.in); got != tc.want {
			t.Errorf("ContainsHan(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSplitRuns(t *testing.T) {
	runs := splitRuns("你好ABC世界")
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d: %v", len(runs), runs)
	}
	if !runs[0].han || runs[1].han || !runs[2].han {
		t.Errorf("unexpected run classification: %v", runs)
	}
	if runs[1].text != "ABC" {
		t.Errorf("middle run = %q, want ABC", runs[1].text)
	}
}
