package cv

// rowFrame builds a frame whose row y carries the content identified by ids[y].
// Rows with different ids differ in every column, rows with equal ids are identical.
func rowFrame(width int, ids []int) *Frame {
	frame := NewFrame(width, len(ids))
	for y, id := range ids {
		row := frame.Row(y)
		for x := 0; x < width; x++ {
			i := x * BytesPerPixel
			row[i] = byte(id)
			row[i+1] = byte(id >> 8)
			row[i+2] = byte(x)
			row[i+3] = 255
		}
	}
	return frame
}

// span returns ids start, start+1, ..., start+n-1
func span(start, n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = start + i
	}
	return ids
}

// repeat returns n copies of id
func repeat(id, n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = id
	}
	return ids
}

func concat(parts ...[]int) []int {
	var ids []int
	for _, p := range parts {
		ids = append(ids, p...)
	}
	return ids
}

// exactOptions disables the bottom band so match indexes map one to one onto rows
func exactOptions() MatchOptions {
	opts := DefaultMatchOptions()
	opts.MinIgnoreBottom = 0
	opts.IgnoreBottomDivisor = 0
	opts.AutoIgnoreBottom = false
	return opts
}
