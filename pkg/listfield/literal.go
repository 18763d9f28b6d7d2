package listfield

import (
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"
)

type nodeKind uint8

const (
	nodeString nodeKind = iota
	nodeNumber
	nodeConst
	nodeList
	nodeTuple
	nodeSet
)

// node is one parsed literal. Scalars keep their rendered text in val.
type node struct {
	kind  nodeKind
	val   string
	items []node
}

// parseLiteral applies the strict grammar: list, tuple and set displays,
// quoted strings, decimal numbers and None/True/False. Mappings, names and
// calls are rejected.
func parseLiteral(s string) ([]string, bool) {
	p := &literalParser{src: s}
	n, ok := p.parseTop()
	if !ok {
		return nil, false
	}

	switch n.kind {
	case nodeList, nodeTuple:
		out := make([]string, 0, len(n.items))
		for _, it := range n.items {
			out = append(out, elementText(it))
		}
		return out, true
	case nodeSet:
		out := make([]string, 0, len(n.items))
		seen := make(map[string]struct{}, len(n.items))
		for _, it := range n.items {
			key := it.repr()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, elementText(it))
		}
		return out, true
	}
	return []string{elementText(n)}, true
}

// elementText renders one element the way str() prints it
func elementText(n node) string {
	switch n.kind {
	case nodeString, nodeNumber, nodeConst:
		return n.val
	}
	return n.repr()
}

func (n node) repr() string {
	switch n.kind {
	case nodeString:
		return quote(n.val)
	case nodeNumber, nodeConst:
		return n.val
	}

	parts := make([]string, len(n.items))
	for i, it := range n.items {
		parts[i] = it.repr()
	}
	body := strings.Join(parts, ", ")
	switch n.kind {
	case nodeList:
		return "[" + body + "]"
	case nodeSet:
		return "{" + body + "}"
	}
	if len(n.items) == 1 {
		return "(" + body + ",)"
	}
	return "(" + body + ")"
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) eof() bool { return p.pos >= len(p.src) }

func (p *literalParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			p.pos++
		default:
			return
		}
	}
}

// parseTop accepts a single expression or a bare comma-separated tuple
func (p *literalParser) parseTop() (node, bool) {
	p.skipSpace()
	first, ok := p.parseExpr()
	if !ok {
		return node{}, false
	}
	p.skipSpace()
	if p.eof() {
		return first, true
	}
	if p.peek() != ',' {
		return node{}, false
	}

	tuple := node{kind: nodeTuple, items: []node{first}}
	for p.peek() == ',' {
		p.pos++
		p.skipSpace()
		if p.eof() {
			break
		}
		it, ok := p.parseExpr()
		if !ok {
			return node{}, false
		}
		tuple.items = append(tuple.items, it)
		p.skipSpace()
	}
	if !p.eof() {
		return node{}, false
	}
	return tuple, true
}

func (p *literalParser) parseExpr() (node, bool) {
	p.skipSpace()
	if p.eof() {
		return node{}, false
	}

	c := p.peek()
	switch {
	case c == '[':
		p.pos++
		items, ok := p.parseItems(']')
		return node{kind: nodeList, items: items}, ok
	case c == '(':
		return p.parseParen()
	case c == '{':
		p.pos++
		items, ok := p.parseItems('}')
		if !ok || len(items) == 0 {
			// "{}" is an empty mapping, not a set
			return node{}, false
		}
		return node{kind: nodeSet, items: items}, true
	case c == '\'' || c == '"':
		return p.parseStrings()
	case c == '+' || c == '-' || c == '.' || isDigit(c):
		return p.parseNumber()
	case isIdentStart(c):
		return p.parseName()
	}
	return node{}, false
}

// parseItems reads comma separated expressions up to the closing delimiter,
// which has to follow; a trailing comma is allowed.
func (p *literalParser) parseItems(closing byte) ([]node, bool) {
	items := []node{}
	for {
		p.skipSpace()
		if p.eof() {
			return nil, false
		}
		if p.peek() == closing {
			p.pos++
			return items, true
		}
		it, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		items = append(items, it)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case closing:
			p.pos++
			return items, true
		default:
			return nil, false
		}
	}
}

func (p *literalParser) parseParen() (node, bool) {
	p.pos++
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return node{kind: nodeTuple, items: []node{}}, true
	}

	first, ok := p.parseExpr()
	if !ok {
		return node{}, false
	}
	p.skipSpace()
	switch p.peek() {
	case ')':
		// parenthesized expression, not a tuple
		p.pos++
		return first, true
	case ',':
		p.pos++
		rest, ok := p.parseItems(')')
		if !ok {
			return node{}, false
		}
		return node{kind: nodeTuple, items: append([]node{first}, rest...)}, true
	}
	return node{}, false
}

func (p *literalParser) parseName() (node, bool) {
	start := p.pos
	for !p.eof() && isIdentPart(p.peek()) {
		p.pos++
	}
	name := p.src[start:p.pos]

	switch name {
	case "None", "True", "False":
		return node{kind: nodeConst, val: name}, true
	}

	// string prefixes: u'..', r'..', ur combinations are not valid
	if q := p.peek(); (q == '\'' || q == '"') && len(name) == 1 {
		switch name {
		case "u", "U", "r", "R":
			p.pos = start
			return p.parseStrings()
		}
	}
	return node{}, false
}

// parseStrings reads one or more adjacent string literals and concatenates them
func (p *literalParser) parseStrings() (node, bool) {
	var sb strings.Builder
	count := 0
	for {
		p.skipSpace()
		raw := false
		save := p.pos
		switch p.peek() {
		case 'u', 'U':
			p.pos++
		case 'r', 'R':
			p.pos++
			raw = true
		}
		q := p.peek()
		if q != '\'' && q != '"' {
			p.pos = save
			break
		}
		s, ok := p.parseString(raw)
		if !ok {
			return node{}, false
		}
		sb.WriteString(s)
		count++
	}
	if count == 0 {
		return node{}, false
	}
	return node{kind: nodeString, val: sb.String()}, true
}

func (p *literalParser) parseString(raw bool) (string, bool) {
	q := p.src[p.pos]
	p.pos++

	var sb strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == q:
			p.pos++
			return sb.String(), true
		case c == '\n':
			return "", false
		case c == '\\':
			if p.pos+1 >= len(p.src) {
				return "", false
			}
			if raw {
				sb.WriteByte(c)
				sb.WriteByte(p.src[p.pos+1])
				p.pos += 2
				continue
			}
			if !p.parseEscape(&sb) {
				return "", false
			}
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return "", false
}

// parseEscape consumes one backslash escape starting at p.pos
func (p *literalParser) parseEscape(sb *strings.Builder) bool {
	e := p.src[p.pos+1]
	p.pos += 2

	switch e {
	case '\n':
		// line continuation
	case '\\', '\'', '"':
		sb.WriteByte(e)
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'a':
		sb.WriteByte('\a')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case 'x':
		return p.parseHexEscape(sb, 2)
	case 'u':
		return p.parseHexEscape(sb, 4)
	case 'U':
		return p.parseHexEscape(sb, 8)
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v := int(e - '0')
		for n := 1; n < 3 && !p.eof() && p.peek() >= '0' && p.peek() <= '7'; n++ {
			v = v*8 + int(p.peek()-'0')
			p.pos++
		}
		sb.WriteRune(rune(v))
	case 'N':
		return false
	default:
		// unknown escapes keep the backslash
		sb.WriteByte('\\')
		sb.WriteByte(e)
	}
	return true
}

func (p *literalParser) parseHexEscape(sb *strings.Builder, digits int) bool {
	if p.pos+digits > len(p.src) {
		return false
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil {
		return false
	}
	r := rune(v)
	if !utf8.ValidRune(r) {
		return false
	}
	sb.WriteRune(r)
	p.pos += digits
	return true
}

// parseNumber reads an optionally signed decimal integer or float
func (p *literalParser) parseNumber() (node, bool) {
	neg := false
	if c := p.peek(); c == '+' || c == '-' {
		neg = c == '-'
		p.pos++
		p.skipSpace()
	}

	start := p.pos
	intDigits := p.digits()
	isFloat := false
	if p.peek() == '.' {
		isFloat = true
		p.pos++
		frac := p.digits()
		if intDigits == 0 && frac == 0 {
			return node{}, false
		}
	} else if intDigits == 0 {
		return node{}, false
	}
	if c := p.peek(); c == 'e' || c == 'E' {
		isFloat = true
		p.pos++
		if c := p.peek(); c == '+' || c == '-' {
			p.pos++
		}
		if p.digits() == 0 {
			return node{}, false
		}
	}
	if !p.eof() && (isIdentPart(p.peek()) || p.peek() == '.') {
		// 1j, 0x10, 1_000, 1.2.3
		return node{}, false
	}
	lit := p.src[start:p.pos]

	if isFloat {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return node{}, false
		}
		if neg {
			f = -f
		}
		return node{kind: nodeNumber, val: formatFloat(f)}, true
	}

	if len(lit) > 1 && lit[0] == '0' && strings.Trim(lit, "0") != "" {
		// leading zeros are not a valid decimal literal
		return node{}, false
	}
	i, ok := new(big.Int).SetString(lit, 10)
	if !ok {
		return node{}, false
	}
	if neg {
		i.Neg(i)
	}
	return node{kind: nodeNumber, val: i.String()}, true
}

func (p *literalParser) digits() int {
	n := 0
	for !p.eof() && isDigit(p.peek()) {
		p.pos++
		n++
	}
	return n
}

// formatFloat renders the shortest repr: fixed notation with a trailing ".0"
// between 1e-4 and 1e16, exponent notation outside.
func formatFloat(f float64) string {
	abs := f
	if abs < 0 {
		abs = -abs
	}
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= utf8.RuneSelf
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
