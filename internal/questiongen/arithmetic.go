package questiongen

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
)

// ArithmeticValidator recomputes the reference answer of questions that
// contain a plain binary expression ("What is 7 + 5?", "3/4 - 1/4 = ?").
// Word problems and non-numeric answers pass through silently.
type ArithmeticValidator struct{}

func (v *ArithmeticValidator) Name() string { return "arithmetic" }

func (v *ArithmeticValidator) Validate(batch []diagnostic.Question, _ diagnostic.BatchRequest) *ValidationError {
	for i, q := range batch {
		kind, ok := numberKind(q.ReferenceAnswer)
		if !ok {
			continue
		}
		computed, err := computeAnswer(q.Text, kind)
		if err != nil {
			continue
		}
		if !sameNumber(computed, q.ReferenceAnswer, kind) {
			return &ValidationError{
				Validator: v.Name(),
				Index:     i,
				Message:   fmt.Sprintf("computed %q but correct_answer is %q", computed, q.ReferenceAnswer),
			}
		}
	}
	return nil
}

type numKind int

const (
	kindInteger numKind = iota
	kindDecimal
	kindFraction
)

// numberKind classifies a reference answer. Non-numeric answers report false.
func numberKind(s string) (numKind, bool) {
	s = strings.TrimSpace(s)
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return kindInteger, true
	}
	if _, _, err := parseFraction(s); err == nil {
		return kindFraction, true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return kindDecimal, true
	}
	return 0, false
}

var (
	// Fraction arithmetic: "a/b + c/d" with +, -, *, ×, ÷.
	fractionArithRe = regexp.MustCompile(`(-?\d+)\s*/\s*(\d+)\s*([+\-*×÷])\s*(-?\d+)\s*/\s*(\d+)`)

	// Integer/decimal arithmetic with +, -, *, ×.
	intArithRe = regexp.MustCompile(`(?:^|[^\d/])(-?\d+(?:\.\d+)?)\s*([+\-*×])\s*(-?\d+(?:\.\d+)?)(?:[^\d/]|$)`)

	// Division needs spaces around the operator so "3/4" stays a fraction.
	intDivRe = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s+[/÷]\s+(-?\d+(?:\.\d+)?)`)

	numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

var errNotComputable = errors.New("not computable")

// computeAnswer evaluates the single binary expression in text. Text with
// more numbers than one expression needs ("10 - 3 + 2") is not computable.
func computeAnswer(text string, kind numKind) (string, error) {
	numbers := len(numberRe.FindAllString(text, -1))
	if m := fractionArithRe.FindStringSubmatch(text); m != nil {
		if numbers > 4 {
			return "", errNotComputable
		}
		if kind == kindDecimal {
			return "", errNotComputable
		}
		return fractionOp(m[1], m[2], normalizeOp(m[3]), m[4], m[5])
	}
	if kind == kindFraction || numbers > 2 {
		return "", errNotComputable
	}
	if m := intArithRe.FindStringSubmatch(text); m != nil {
		return numberOp(m[1], normalizeOp(m[2]), m[3], kind)
	}
	if m := intDivRe.FindStringSubmatch(text); m != nil {
		return numberOp(m[1], "/", m[2], kind)
	}
	return "", errNotComputable
}

func fractionOp(an, ad, op, bn, bd string) (string, error) {
	aN, _ := strconv.ParseInt(an, 10, 64)
	aD, _ := strconv.ParseInt(ad, 10, 64)
	bN, _ := strconv.ParseInt(bn, 10, 64)
	bD, _ := strconv.ParseInt(bd, 10, 64)
	if aD == 0 || bD == 0 {
		return "", errNotComputable
	}

	var rN, rD int64
	switch op {
	case "+":
		rN, rD = aN*bD+bN*aD, aD*bD
	case "-":
		rN, rD = aN*bD-bN*aD, aD*bD
	case "*":
		rN, rD = aN*bN, aD*bD
	case "/":
		if bN == 0 {
			return "", errNotComputable
		}
		rN, rD = aN*bD, aD*bN
	default:
		return "", errNotComputable
	}
	return formatFraction(rN, rD), nil
}

func numberOp(as, op, bs string, kind numKind) (string, error) {
	a, err := strconv.ParseFloat(as, 64)
	if err != nil {
		return "", err
	}
	b, err := strconv.ParseFloat(bs, 64)
	if err != nil {
		return "", err
	}

	var result float64
	switch op {
	case "+":
		result = a + b
	case "-":
		result = a - b
	case "*":
		result = a * b
	case "/":
		if b == 0 {
			return "", errNotComputable
		}
		result = a / b
	default:
		return "", errNotComputable
	}

	if kind == kindInteger {
		if result != float64(int64(result)) {
			// Integer answer to a non-integer quotient, e.g. remainder questions.
			return "", errNotComputable
		}
		return strconv.FormatInt(int64(result), 10), nil
	}
	return strconv.FormatFloat(result, 'f', -1, 64), nil
}

func normalizeOp(op string) string {
	switch op {
	case "×":
		return "*"
	case "÷":
		return "/"
	}
	return op
}

// sameNumber compares two numeric strings of the given kind.
func sameNumber(a, b string, kind numKind) bool {
	na, errA := normalizeNumber(a, kind)
	nb, errB := normalizeNumber(b, kind)
	if errA != nil || errB != nil {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return na == nb
}

func normalizeNumber(s string, kind numKind) (string, error) {
	s = strings.TrimSpace(s)
	switch kind {
	case kindInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(n, 10), nil
	case kindDecimal:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	default:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return formatFraction(n, 1), nil
		}
		num, den, err := parseFraction(s)
		if err != nil {
			return "", err
		}
		if den == 0 {
			return "", errNotComputable
		}
		return formatFraction(num, den), nil
	}
}

// formatFraction reduces n/d; whole results are written as integers.
func formatFraction(n, d int64) string {
	if d < 0 {
		n, d = -n, -d
	}
	g := gcd(abs(n), d)
	if g > 1 {
		n, d = n/g, d/g
	}
	if d == 1 {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprintf("%d/%d", n, d)
}

// parseFraction parses "a/b" into numerator and denominator.
func parseFraction(s string) (int64, int64, error) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return 0, 0, fmt.Errorf("invalid fraction format: %q", s)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid numerator: %w", err)
	}
	d, err := strconv.ParseInt(strings.TrimSpace(den), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid denominator: %w", err)
	}
	return n, d, nil
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
