package llm

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// DecodeJSON reads the first JSON object embedded in a free-text completion
// into v. Code fences and surrounding prose are tolerated; a completion with
// no decodable object yields ErrNoJSON.
func DecodeJSON(text string, v any) error {
	s := stripFences(text)
	for i := 0; i < len(s); i++ {
		j := strings.IndexByte(s[i:], '{')
		if j < 0 {
			break
		}
		i += j
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			continue
		}
		if err := json.Unmarshal(raw, v); err != nil {
			continue
		}
		return nil
	}
	return ErrNoJSON
}

// stripFences removes a leading ``` line and a trailing ``` fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Number is a JSON value that models emit either as a number or as a string
// ("4.50", "$4.50", "1,200", "R$ 4,50", "1.234,56"). Set is false when the
// field was absent, null, unreadable or ambiguous about its decimal
// separator.
type Number struct {
	Raw string
	Set bool
}

// UnmarshalJSON accepts numbers, numeric strings and null.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = Number{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*n = Number{}
			return nil
		}
		s, ok := normalizeNumber(s)
		if !ok {
			*n = Number{}
			return nil
		}
		*n = Number{Raw: s, Set: true}
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		*n = Number{}
		return nil
	}
	*n = Number{Raw: string(b), Set: true}
	return nil
}

// Float returns the value, or def when unset.
func (n Number) Float(def float64) float64 {
	if !n.Set {
		return def
	}
	f, err := strconv.ParseFloat(n.Raw, 64)
	if err != nil {
		return def
	}
	return f
}

// normalizeNumber reduces a human-written amount to strconv form. Currency
// symbols and spaces are dropped. When both '.' and ',' occur, the last one is
// the decimal separator and the other must group by thousands. A lone ','
// followed by one or two digits is decimal; otherwise commas must be
// thousands groups. A single '.' is decimal; repeated dots must be thousands
// groups. Anything else is ambiguous and reported as not ok.
func normalizeNumber(s string) (string, bool) {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		}
		return -1
	}, s)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if s == "" {
		return "", false
	}

	dot, comma := strings.LastIndexByte(s, '.'), strings.LastIndexByte(s, ',')
	switch {
	case dot >= 0 && comma >= 0:
		dec, group := byte('.'), ","
		if comma > dot {
			dec, group = ',', "."
		}
		cut := strings.LastIndexByte(s, dec)
		whole, frac := s[:cut], s[cut+1:]
		if strings.IndexByte(frac, '.') >= 0 || strings.IndexByte(frac, ',') >= 0 || !thousands(whole, group) {
			return "", false
		}
		s = strings.ReplaceAll(whole, group, "") + "." + frac
	case comma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-comma-1 <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else if thousands(s, ",") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			return "", false
		}
	case strings.Count(s, ".") > 1:
		if !thousands(s, ".") {
			return "", false
		}
		s = strings.ReplaceAll(s, ".", "")
	}

	s = sign + s
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "", false
	}
	return s, true
}

// thousands reports whether s is digits grouped by sep in threes, with a
// leading group of one to three digits.
func thousands(s, sep string) bool {
	parts := strings.Split(s, sep)
	for i, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") != "" {
			return false
		}
		if (i == 0 && len(p) > 3) || (i > 0 && len(p) != 3) {
			return false
		}
	}
	return true
}
