package document

import "strings"

// splitLines splits text after each "\n", keeping terminators. The last
// element lacks a terminator when text does not end with a newline.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func trimEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}

func detectEOL(text string) string {
	if i := strings.Index(text, "\n"); i > 0 && text[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// fenceMarker returns the opening run of a fenced code block, or "".
func fenceMarker(trimmed string) string {
	for _, ch := range []byte{'`', '~'} {
		n := 0
		for n < len(trimmed) && trimmed[n] == ch {
			n++
		}
		if n >= 3 {
			return trimmed[:n]
		}
	}
	return ""
}

func closesFence(trimmed, marker string) bool {
	if !strings.HasPrefix(trimmed, marker) {
		return false
	}
	return strings.Trim(trimmed, marker[:1]) == ""
}
