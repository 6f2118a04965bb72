package mutation

import "testing"

func TestBatchStructural(t *testing.T) {
	cases := []struct {
		name string
		recs []Record
		want bool
	}{
		{"empty", nil, false},
		{"attr only", []Record{{Op: OpAttr, Name: "class"}, {Op: OpText}}, false},
		{"insert", []Record{{Op: OpAttr}, {Op: OpInsert, NodeType: 1, Tag: "div"}}, true},
		{"remove", []Record{{Op: OpRemove}}, true},
		{"doc reset", []Record{{Op: OpDocReset}}, true},
	}
	for _, c := range cases {
		b := Batch{Records: c.recs}
		if got := b.Structural(); got != c.want {
			t.Errorf("%s: Structural() = %v, want %v", c.name, got, c.want)
		}
	}
}
