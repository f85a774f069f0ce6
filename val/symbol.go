package val

// Symbol limits.
const (
	SmallSymbolMaxLen = 9
	SymbolMaxLen      = 32
	symbolCharBits    = 6
)

// Symbol is a short identifier over the alphabet [_0-9A-Za-z].
type Symbol string

// symbolCode maps a character to its 6-bit code, 0 meaning invalid.
func symbolCode(c byte) uint64 {
	switch {
	case c == '_':
		return 1
	case c >= '0' && c <= '9':
		return uint64(c-'0') + 2
	case c >= 'A' && c <= 'Z':
		return uint64(c-'A') + 12
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 38
	}
	return 0
}

func symbolChar(code uint64) (byte, bool) {
	switch {
	case code == 1:
		return '_', true
	case code >= 2 && code <= 11:
		return byte(code-2) + '0', true
	case code >= 12 && code <= 37:
		return byte(code-12) + 'A', true
	case code >= 38 && code <= 63:
		return byte(code-38) + 'a', true
	}
	return 0, false
}

// ValidSymbolChars reports whether every character of s is in the alphabet.
func ValidSymbolChars(s string) bool {
	for i := 0; i < len(s); i++ {
		if symbolCode(s[i]) == 0 {
			return false
		}
	}
	return true
}

// Valid reports whether s is a well-formed symbol of at most SymbolMaxLen chars.
func (s Symbol) Valid() bool {
	return len(s) <= SymbolMaxLen && ValidSymbolChars(string(s))
}

// SmallSymbol packs s inline if it is short enough and uses only the
// symbol alphabet.
func SmallSymbol(s string) (Val, bool) {
	if len(s) > SmallSymbolMaxLen {
		return 0, false
	}
	var body uint64
	for i := 0; i < len(s); i++ {
		code := symbolCode(s[i])
		if code == 0 {
			return 0, false
		}
		body = body<<symbolCharBits | code
	}
	return fromBody(TagSymbolSmall, body), true
}

// MustSymbol packs s inline and panics if it does not fit.
func MustSymbol(s string) Val {
	v, ok := SmallSymbol(s)
	if !ok {
		panic("val: symbol " + s + " does not fit inline")
	}
	return v
}

// SmallSymbolString unpacks an inline symbol.
func (v Val) SmallSymbolString() (string, bool) {
	if v.Tag() != TagSymbolSmall {
		return "", false
	}
	return decodeSmallSymbol(v.Body())
}

func decodeSmallSymbol(body uint64) (string, bool) {
	var buf [SmallSymbolMaxLen]byte
	n := 0
	for body != 0 {
		if n == SmallSymbolMaxLen {
			return "", false
		}
		c, ok := symbolChar(body & (1<<symbolCharBits - 1))
		if !ok {
			return "", false
		}
		buf[n] = c
		n++
		body >>= symbolCharBits
	}
	// Characters were read least-significant first.
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf[:n]), true
}
