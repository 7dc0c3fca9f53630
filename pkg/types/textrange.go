package types

import "strings"

// OffsetOf converts a zero-based line/column position into a byte offset in
// content. Columns past the end of a line clamp to the line end.
func OffsetOf(content []byte, line, col int) (int, error) {
	if line < 0 || col < 0 {
		return 0, NewInvalidRequest("negative position %d:%d", line, col)
	}
	offset := 0
	text := string(content)
	for i := 0; i < line; i++ {
		next := strings.IndexByte(text[offset:], '\n')
		if next < 0 {
			return 0, NewInvalidRequest("line %d is past end of file", line)
		}
		offset += next + 1
	}
	lineEnd := strings.IndexByte(text[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text) - offset
	}
	if col > lineEnd {
		col = lineEnd
	}
	return offset + col, nil
}

// RangeOffsets converts loc into a half-open byte range within content.
func RangeOffsets(content []byte, loc EditLocation) (int, int, error) {
	start, err := OffsetOf(content, loc.StartLine, loc.StartCol)
	if err != nil {
		return 0, 0, err
	}
	end, err := OffsetOf(content, loc.EndLine, loc.EndCol)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, NewInvalidRequest("range %s ends before it starts", loc)
	}
	return start, end, nil
}

// ExtractRange returns the text covered by loc.
func ExtractRange(content []byte, loc EditLocation) (string, error) {
	start, end, err := RangeOffsets(content, loc)
	if err != nil {
		return "", err
	}
	return string(content[start:end]), nil
}
