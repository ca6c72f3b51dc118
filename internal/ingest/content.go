package ingest

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// contentLine is one reconstructed text run from a page content stream,
// optionally carrying the text-space position that was current when the run
// was shown.
type contentLine struct {
	text     string
	x, y     float64
	fontSize float64
	hasPos   bool
}

// tokenizeContent scans a decompressed content stream byte-by-byte and
// reassembles the text shown by Tj/TJ/' operators into logical lines.
// It tracks a minimal subset of the text state machine: Tm and Td/TD set the
// current position, Tf sets the font size. Everything else is ignored.
func tokenizeContent(data []byte) []contentLine {
	var (
		lines    []contentLine
		pending  []rune
		operands []float64
		operator []byte

		curX, curY float64
		fontSize   float64
		hasPos     bool
	)

	flush := func() {
		text := strings.TrimSpace(string(pending))
		pending = pending[:0]
		if text == "" {
			return
		}
		lines = append(lines, contentLine{
			text:     text,
			x:        curX,
			y:        curY,
			fontSize: fontSize,
			hasPos:   hasPos,
		})
	}

	applyOperator := func(op string) {
		switch op {
		case "Tj", "TJ":
			flush()
		case "'", "\"":
			// quote operators move to the next line and show text
			flush()
		case "T*":
			flush()
		case "Tm":
			if len(operands) >= 6 {
				curX = operands[len(operands)-2]
				curY = operands[len(operands)-1]
				hasPos = true
			}
		case "Td", "TD":
			if len(operands) >= 2 {
				curX += operands[len(operands)-2]
				curY += operands[len(operands)-1]
				hasPos = true
			}
		case "Tf":
			if len(operands) >= 1 {
				fontSize = operands[len(operands)-1]
			}
		case "ET":
			flush()
		}
		operands = operands[:0]
	}

	i := 0
	for i < len(data) {
		c := data[i]
		switch {
		case c == '(':
			if len(operator) > 0 {
				applyOperator(string(operator))
				operator = operator[:0]
			}
			text, next := parseLiteralString(data, i)
			pending = append(pending, []rune(text)...)
			i = next
			continue
		case c == '%':
			// comment runs to end of line
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
			continue
		case isNumericStart(c):
			j := i + 1
			for j < len(data) && isNumericPart(data[j]) {
				j++
			}
			if v, ok := parseFloat(string(data[i:j])); ok {
				operands = append(operands, v)
			}
			i = j
			continue
		case isOperatorChar(c):
			operator = append(operator, c)
			i++
			continue
		default:
			if len(operator) > 0 {
				applyOperator(string(operator))
				operator = operator[:0]
			}
			i++
		}
	}
	if len(operator) > 0 {
		applyOperator(string(operator))
	}
	flush()
	return lines
}

// parseLiteralString decodes a PDF literal string starting at the opening
// parenthesis. It honors nested parentheses, backslash escapes and a leading
// UTF-16BE byte-order mark, and returns the index just past the closing
// parenthesis.
func parseLiteralString(data []byte, start int) (string, int) {
	raw := make([]byte, 0, 32)
	depth := 1
	i := start + 1
	for i < len(data) && depth > 0 {
		c := data[i]
		switch c {
		case '\\':
			if i+1 >= len(data) {
				i++
				continue
			}
			e := data[i+1]
			switch e {
			case 'n':
				raw = append(raw, '\n')
			case 'r':
				raw = append(raw, '\r')
			case 't':
				raw = append(raw, '\t')
			case 'b':
				raw = append(raw, '\b')
			case 'f':
				raw = append(raw, '\f')
			case '\n':
				// line continuation, nothing emitted
			case '\r':
				if i+2 < len(data) && data[i+2] == '\n' {
					i++
				}
			default:
				if e >= '0' && e <= '7' {
					val := 0
					n := 0
					for n < 3 && i+1+n < len(data) {
						d := data[i+1+n]
						if d < '0' || d > '7' {
							break
						}
						val = val*8 + int(d-'0')
						n++
					}
					raw = append(raw, byte(val))
					i += n + 1
					continue
				}
				// unknown escape passes the character through
				raw = append(raw, e)
			}
			i += 2
		case '(':
			depth++
			raw = append(raw, c)
			i++
		case ')':
			depth--
			if depth > 0 {
				raw = append(raw, c)
			}
			i++
		default:
			raw = append(raw, c)
			i++
		}
	}
	return decodeStringBytes(raw), i
}

// decodeStringBytes interprets a UTF-16BE byte-order mark when present,
// otherwise treats the bytes as (mostly Latin-ish) single-byte text.
func decodeStringBytes(raw []byte) string {
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		payload := raw[2:]
		codes := make([]uint16, 0, len(payload)/2)
		for i := 0; i+1 < len(payload); i += 2 {
			codes = append(codes, uint16(payload[i])<<8|uint16(payload[i+1]))
		}
		return string(utf16.Decode(codes))
	}
	out := make([]rune, 0, len(raw))
	for _, b := range raw {
		out = append(out, rune(b))
	}
	return string(out)
}

func isNumericStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}

func isNumericPart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.'
}

func isOperatorChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '*' || c == '\'' || c == '"'
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
