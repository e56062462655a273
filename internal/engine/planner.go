package engine

// byteRange is one planned segment: the half-open range
// [index*Z, min((index+1)*Z, S)) expressed with an inclusive last byte,
// because the object-store range protocol is inclusive on both ends.
type byteRange struct {
	index int64
	first int64
	last  int64
}

// length returns the number of bytes the range covers.
func (r byteRange) length() int64 {
	return r.last - r.first + 1
}

// planner lazily produces the ordered sequence of segment ranges for an
// object of the given size. Ranges are contiguous, non-overlapping, and
// cover [0, size).
type planner struct {
	size        int64
	segmentSize int64

	index  int64
	offset int64
}

func newPlanner(size, segmentSize int64) *planner {
	return &planner{size: size, segmentSize: segmentSize}
}

// next returns the next range, or ok=false when the plan is exhausted.
func (p *planner) next() (byteRange, bool) {
	if p.offset >= p.size {
		return byteRange{}, false
	}

	first := p.offset
	last := first + p.segmentSize - 1
	if last >= p.size {
		last = p.size - 1
	}

	r := byteRange{index: p.index, first: first, last: last}
	p.index++
	p.offset = last + 1
	return r, true
}

// count returns the total number of segments the plan will produce.
func (p *planner) count() int64 {
	if p.size == 0 {
		return 0
	}
	return (p.size + p.segmentSize - 1) / p.segmentSize
}
