package scan

import "testing"

func TestIsEnvironmental(t *testing.T) {
	cases := []struct {
		label string
		want  bool
	}{
		{"Coral Reef", true},
		{"Bicycle", false},
		{"Recycling Bin", true},
		{"TREE", true},
		{"Ｃｏｒａｌ", true},
		{"  ", false},
		{"", false},
		{"Laptop", false},
		{"Sunflower", true},
	}
	for _, tc := range cases {
		if got := IsEnvironmental(tc.label); got != tc.want {
			t.Fatalf("IsEnvironmental(%q): got=%v want=%v", tc.label, got, tc.want)
		}
	}
}

func TestIsEnvironmentalMatchesEveryKeywordInsideLargerText(t *testing.T) {
	c := DefaultCatalog()
	for _, k := range c.Keywords() {
		label := "Big " + k + "s Outside"
		if !c.IsEnvironmental(label) {
			t.Fatalf("IsEnvironmental(%q): keyword %q not matched", label, k)
		}
	}
}
