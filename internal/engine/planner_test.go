package engine

import "testing"

func collectRanges(p *planner) []byteRange {
	var out []byteRange
	for {
		r, ok := p.next()
		if !ok {
			return out
		}
		out = append(out, r)
	}
}

func TestPlanner_Empty(t *testing.T) {
	p := newPlanner(0, 4)

	if got := p.count(); got != 0 {
		t.Errorf("count = %d, want 0", got)
	}
	if ranges := collectRanges(p); len(ranges) != 0 {
		t.Errorf("expected no ranges, got %v", ranges)
	}
}

func TestPlanner_UnevenTail(t *testing.T) {
	p := newPlanner(10, 4)

	want := []byteRange{
		{index: 0, first: 0, last: 3},
		{index: 1, first: 4, last: 7},
		{index: 2, first: 8, last: 9},
	}

	got := collectRanges(p)
	if len(got) != len(want) {
		t.Fatalf("got %d ranges, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("range %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPlanner_SingleSegment(t *testing.T) {
	p := newPlanner(3, 4)

	if got := p.count(); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}

	ranges := collectRanges(p)
	if len(ranges) != 1 {
		t.Fatalf("got %d ranges, want 1", len(ranges))
	}
	if r := ranges[0]; r.first != 0 || r.last != 2 {
		t.Errorf("range = %+v, want 0-2", r)
	}
}

func TestPlanner_ExactMultiple(t *testing.T) {
	p := newPlanner(8, 4)

	ranges := collectRanges(p)
	if len(ranges) != 2 {
		t.Fatalf("got %d ranges, want 2", len(ranges))
	}
	if ranges[1].first != 4 || ranges[1].last != 7 {
		t.Errorf("last range = %+v, want 4-7", ranges[1])
	}
}

func TestPlanner_Coverage(t *testing.T) {
	// Contiguity and full coverage for an assortment of size/segment pairs.
	cases := []struct {
		size, segment int64
	}{
		{1, 1}, {100, 7}, {1 << 20, 4096}, {12345, 12345}, {12346, 12345},
	}

	for _, tc := range cases {
		p := newPlanner(tc.size, tc.segment)
		var offset int64
		var index int64
		for {
			r, ok := p.next()
			if !ok {
				break
			}
			if r.index != index {
				t.Fatalf("size=%d seg=%d: index %d, want %d", tc.size, tc.segment, r.index, index)
			}
			if r.first != offset {
				t.Fatalf("size=%d seg=%d: first %d, want %d", tc.size, tc.segment, r.first, offset)
			}
			if r.length() <= 0 || r.length() > tc.segment {
				t.Fatalf("size=%d seg=%d: length %d out of (0, %d]", tc.size, tc.segment, r.length(), tc.segment)
			}
			offset = r.last + 1
			index++
		}
		if offset != tc.size {
			t.Errorf("size=%d seg=%d: covered %d bytes", tc.size, tc.segment, offset)
		}
		if index != p.count() {
			t.Errorf("size=%d seg=%d: emitted %d ranges, count says %d", tc.size, tc.segment, index, p.count())
		}
	}
}
