package chain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrFormat is wrapped by every positional formatting failure.
var ErrFormat = errors.New("invalid format string")

// FormatPositional formats template with a single positional argument using
// brace-field syntax: "{{" and "}}" are literal braces, "{}" and "{0}" take
// arg, and a field may carry a "!s" conversion and a string format spec
// ([[fill]align][width][.precision][s]). Anything else (a second automatic
// field, an index other than 0, named fields, a stray brace) is an error.
func FormatPositional(template, arg string) (string, error) {
	var b strings.Builder
	b.Grow(len(template) + len(arg))

	auto := 0
	manual := false

	for i := 0; i < len(template); {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: expected '}' before end of string", ErrFormat)
			}
			field := template[i+1 : i+1+end]
			if strings.ContainsRune(field, '{') {
				return "", fmt.Errorf("%w: nested field %q", ErrFormat, field)
			}

			name, conv, spec := splitField(field)
			switch {
			case name == "":
				if manual {
					return "", fmt.Errorf("%w: cannot switch from manual to automatic field numbering", ErrFormat)
				}
				if auto > 0 {
					return "", fmt.Errorf("%w: replacement index %d out of range", ErrFormat, auto)
				}
				auto++
			case name == "0":
				if auto > 0 {
					return "", fmt.Errorf("%w: cannot switch from automatic to manual field numbering", ErrFormat)
				}
				manual = true
			default:
				return "", fmt.Errorf("%w: unknown field %q", ErrFormat, name)
			}

			if conv != "" && conv != "s" {
				return "", fmt.Errorf("%w: unsupported conversion %q", ErrFormat, conv)
			}
			formatted, err := applySpec(arg, spec)
			if err != nil {
				return "", err
			}
			b.WriteString(formatted)
			i += end + 2
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return "", fmt.Errorf("%w: single '}' encountered", ErrFormat)
		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String(), nil
}

// splitField splits "name!conv:spec" into its parts.
func splitField(field string) (name, conv, spec string) {
	name = field
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		name, spec = name[:idx], name[idx+1:]
	}
	if idx := strings.IndexByte(name, '!'); idx >= 0 {
		name, conv = name[:idx], name[idx+1:]
	}
	return name, conv, spec
}

// applySpec applies a string format spec: [[fill]align][width][.precision][s]
func applySpec(s, spec string) (string, error) {
	if spec == "" {
		return s, nil
	}

	fill := ' '
	align := byte('<')
	rest := spec

	// fill is only present when followed by an align char
	if r, size := utf8.DecodeRuneInString(rest); size < len(rest) && isAlign(rest[size]) {
		fill = r
		align = rest[size]
		rest = rest[size+1:]
	} else if len(rest) > 0 && isAlign(rest[0]) {
		align = rest[0]
		rest = rest[1:]
	}
	if align == '=' {
		return "", fmt.Errorf("%w: '=' alignment not allowed in string format specifier", ErrFormat)
	}

	rest = strings.TrimSuffix(rest, "s")

	widthStr, precStr, hasPrec := strings.Cut(rest, ".")
	if widthStr != "" && !isDigits(widthStr) {
		return "", fmt.Errorf("%w: invalid format specifier %q", ErrFormat, spec)
	}
	if strings.HasPrefix(widthStr, "0") {
		return "", fmt.Errorf("%w: zero padding not supported for strings", ErrFormat)
	}
	if hasPrec && !isDigits(precStr) {
		return "", fmt.Errorf("%w: format specifier missing precision", ErrFormat)
	}

	if hasPrec {
		prec, _ := strconv.Atoi(precStr)
		if utf8.RuneCountInString(s) > prec {
			runes := []rune(s)
			s = string(runes[:prec])
		}
	}

	width := 0
	if widthStr != "" {
		width, _ = strconv.Atoi(widthStr)
	}
	pad := width - utf8.RuneCountInString(s)
	if pad <= 0 {
		return s, nil
	}

	fillStr := string(fill)
	switch align {
	case '>':
		return strings.Repeat(fillStr, pad) + s, nil
	case '^':
		left := pad / 2
		return strings.Repeat(fillStr, left) + s + strings.Repeat(fillStr, pad-left), nil
	default:
		return s + strings.Repeat(fillStr, pad), nil
	}
}

func isAlign(c byte) bool {
	return c == '<' || c == '>' || c == '^' || c == '='
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
