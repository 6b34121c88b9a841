package tagver

import (
	"errors"
	"regexp/syntax"
	"strconv"
	"strings"
	"unicode"
)

// errGrepDialect reports a message filter that has no POSIX rendering git
// could evaluate.
var errGrepDialect = errors.New("pattern has no POSIX extended equivalent")

// posixERE rewrites a Go regular expression as a POSIX extended regular
// expression for git log --grep, which matches with REG_NEWLINE. The result
// matches at least every message the Go expression matches; callers must
// re-check matches with the Go expression. ok is false when no such
// rewrite exists.
func posixERE(expr string) (string, bool) {
	re, err := syntax.Parse(expr, syntax.Perl)
	if err != nil {
		return "", false
	}
	s, ok := ere(re)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// ere renders re. An empty string with ok set means re matches the empty
// string at any position.
func ere(re *syntax.Regexp) (string, bool) {
	switch re.Op {
	case syntax.OpEmptyMatch, syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		// Dropping an assertion only widens the match.
		return "", true
	case syntax.OpBeginLine, syntax.OpBeginText:
		return "^", true
	case syntax.OpEndLine, syntax.OpEndText:
		return "$", true
	case syntax.OpAnyCharNotNL:
		return ".", true
	case syntax.OpLiteral:
		var b strings.Builder
		for _, r := range re.Rune {
			s, ok := ereLiteral(r, re.Flags&syntax.FoldCase != 0)
			if !ok {
				return "", false
			}
			b.WriteString(s)
		}
		return b.String(), true
	case syntax.OpCharClass:
		return ereClass(re.Rune)
	case syntax.OpCapture:
		s, ok := ere(re.Sub[0])
		if !ok || s == "" {
			return s, ok
		}
		return "(" + s + ")", true
	case syntax.OpStar, syntax.OpPlus, syntax.OpQuest, syntax.OpRepeat:
		return ereRepeat(re)
	case syntax.OpConcat:
		var b strings.Builder
		for _, sub := range re.Sub {
			s, ok := ere(sub)
			if !ok {
				return "", false
			}
			b.WriteString(s)
		}
		return b.String(), true
	case syntax.OpAlternate:
		parts := make([]string, 0, len(re.Sub))
		for _, sub := range re.Sub {
			s, ok := ere(sub)
			if !ok || s == "" {
				return "", false
			}
			parts = append(parts, s)
		}
		return "(" + strings.Join(parts, "|") + ")", true
	default:
		// OpAnyChar crosses lines, which REG_NEWLINE never does.
		return "", false
	}
}

func ereRepeat(re *syntax.Regexp) (string, bool) {
	sub := re.Sub[0]
	switch sub.Op {
	case syntax.OpBeginLine, syntax.OpBeginText, syntax.OpEndLine, syntax.OpEndText:
		return "", false
	}
	s, ok := ere(sub)
	if !ok || s == "" {
		return s, ok
	}
	if !ereAtom(sub) {
		s = "(" + s + ")"
	}

	// Non-greedy operators change which match is reported, not whether
	// one exists.
	switch re.Op {
	case syntax.OpStar:
		return s + "*", true
	case syntax.OpPlus:
		return s + "+", true
	case syntax.OpQuest:
		return s + "?", true
	}

	// RE_DUP_MAX is 255 on common platforms.
	if re.Min > 255 || re.Max > 255 {
		return "", false
	}
	switch {
	case re.Max == 0:
		return "", true
	case re.Max < 0:
		return s + "{" + strconv.Itoa(re.Min) + ",}", true
	case re.Max == re.Min:
		return s + "{" + strconv.Itoa(re.Min) + "}", true
	default:
		return s + "{" + strconv.Itoa(re.Min) + "," + strconv.Itoa(re.Max) + "}", true
	}
}

// ereAtom reports whether the rendering of re is a single atom that a
// repetition operator can follow without parentheses.
func ereAtom(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpCharClass, syntax.OpAnyCharNotNL, syntax.OpCapture:
		return true
	case syntax.OpLiteral:
		return len(re.Rune) == 1
	}
	return false
}

func ereLiteral(r rune, fold bool) (string, bool) {
	if r == 0 || r == '\n' {
		return "", false
	}
	if fold {
		orbit := string(r)
		for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
			orbit += string(f)
		}
		if len([]rune(orbit)) > 1 {
			return "[" + orbit + "]", true
		}
	}
	if strings.ContainsRune(`\.[()*+?{|^$`, r) {
		return `\` + string(r), true
	}
	return string(r), true
}

// negateRanges returns the complement of a sorted range list.
func negateRanges(ranges []rune) []rune {
	var out []rune
	next := rune(0)
	for i := 0; i < len(ranges); i += 2 {
		if ranges[i] > next {
			out = append(out, next, ranges[i]-1)
		}
		next = ranges[i+1] + 1
	}
	if next <= unicode.MaxRune {
		out = append(out, next, unicode.MaxRune)
	}
	return out
}

func ereClass(ranges []rune) (string, bool) {
	negated := len(ranges) > 0 && ranges[len(ranges)-1] == unicode.MaxRune
	if negated {
		ranges = negateRanges(ranges)
	}
	for i := 0; i < len(ranges); i += 2 {
		if ranges[i] == 0 || ranges[i+1] > unicode.MaxASCII {
			return "", false
		}
	}

	hasNL := classContains(ranges, '\n')
	if !negated {
		if len(ranges) == 0 {
			return "", false
		}
		// A matching list may contain newline; [:space:] is the portable
		// way to spell it.
		extra := ""
		if hasNL {
			extra = "[:space:]"
		}
		body := bracketBody(ranges, false, extra)
		if body == "^" {
			return `\^`, true
		}
		return "[" + body + "]", true
	}

	// A non-matching list never matches newline under REG_NEWLINE while
	// the Go class does unless it excludes newline itself.
	body := bracketBody(ranges, true, "")
	neg := "."
	if body != "" {
		neg = "[^" + body + "]"
	}
	if hasNL {
		return neg, true
	}
	return "(" + neg + "|[[:space:]])", true
}

func classContains(ranges []rune, r rune) bool {
	for i := 0; i < len(ranges); i += 2 {
		if ranges[i] <= r && r <= ranges[i+1] {
			return true
		}
	}
	return false
}

// bracketBody renders ranges for use inside a bracket expression, placing
// the characters that are special there where POSIX reads them literally.
// Newline is left out. extra is written verbatim after the ranges.
func bracketBody(ranges []rune, negated bool, extra string) string {
	special := map[rune]bool{']': false, '-': false, '^': false, '[': false, '\n': false}
	var mid strings.Builder
	emit := func(lo, hi rune) {
		switch {
		case lo > hi:
		case lo == hi:
			mid.WriteRune(lo)
		case hi == lo+1:
			mid.WriteRune(lo)
			mid.WriteRune(hi)
		default:
			mid.WriteRune(lo)
			mid.WriteByte('-')
			mid.WriteRune(hi)
		}
	}
	for i := 0; i < len(ranges); i += 2 {
		lo, hi := ranges[i], ranges[i+1]
		start := lo
		for r := lo; r <= hi; r++ {
			if _, ok := special[r]; ok {
				emit(start, r-1)
				special[r] = true
				start = r + 1
			}
		}
		emit(start, hi)
	}

	var b strings.Builder
	if special[']'] {
		b.WriteByte(']')
	}
	b.WriteString(mid.String())
	b.WriteString(extra)
	if special['['] {
		b.WriteByte('[')
	}
	if special['^'] {
		if b.Len() == 0 && !negated && special['-'] {
			return "-^"
		}
		b.WriteByte('^')
	}
	if special['-'] {
		b.WriteByte('-')
	}
	return b.String()
}
