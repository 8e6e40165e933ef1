package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// EvaluateExpression evaluates a free-form boolean expression against a
// sanitized context. The expression language is a small, hand-evaluated
// subset: literals, context identifiers with dot access, comparison and
// boolean operators, arithmetic, and a fixed set of utility functions.
// There is no ambient process or environment access, and any parse or
// evaluation error yields false.
func (e *Engine) EvaluateExpression(expression string, context map[string]any) bool {
	result, err := evalExpression(expression, sanitizeContext(context))
	if err != nil {
		e.logger.Warn("Expression evaluation failed", "expression", expression, "error", err)

		return false
	}

	ok, err := truthy(result)
	if err != nil {
		e.logger.Warn("Expression did not yield a boolean", "expression", expression, "error", err)

		return false
	}

	return ok
}

// sanitizeContext keeps only context keys that are valid identifiers, so an
// expression can never reference anything the caller did not deliberately
// expose under a plain name.
func sanitizeContext(context map[string]any) map[string]any {
	clean := make(map[string]any, len(context))

	for key, value := range context {
		if isIdentifier(key) {
			clean[key] = value
		}
	}

	return clean
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}

		if i > 0 && unicode.IsDigit(r) {
			continue
		}

		return false
	}

	return true
}

func truthy(value any) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case string:
		if v == "" {
			return false, nil
		}

		return strconv.ParseBool(v)
	default:
		return false, fmt.Errorf("cannot convert %T to boolean", value)
	}
}

func evalExpression(input string, context map[string]any) (any, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}

	p := &exprParser{tokens: tokens, context: context}

	result, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("unexpected token %q", p.tokens[p.pos].text)
	}

	return result, nil
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokIdent
	tokOperator
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(input string) ([]token, error) {
	var tokens []token

	runes := []rune(input)
	i := 0

	for i < len(runes) {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}

			tokens = append(tokens, token{tokNumber, string(runes[start:i])})
		case r == '\'' || r == '"':
			quote := r
			i++
			start := i

			for i < len(runes) && runes[i] != quote {
				i++
			}

			if i == len(runes) {
				return nil, errors.New("unterminated string literal")
			}

			tokens = append(tokens, token{tokString, string(runes[start:i])})
			i++
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(runes) && (runes[i] == '_' || unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i])) {
				i++
			}

			tokens = append(tokens, token{tokIdent, string(runes[start:i])})
		case strings.ContainsRune("=!<>&|", r):
			start := i
			i++

			if i < len(runes) && strings.ContainsRune("=&|", runes[i]) {
				i++
			}

			tokens = append(tokens, token{tokOperator, string(runes[start:i])})
		case strings.ContainsRune("+-*/%().,", r):
			tokens = append(tokens, token{tokPunct, string(r)})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q", r)
		}
	}

	return tokens, nil
}

type exprParser struct {
	tokens  []token
	pos     int
	context map[string]any
}

func (p *exprParser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}

	return p.tokens[p.pos], true
}

func (p *exprParser) accept(kind tokenKind, text string) bool {
	tok, ok := p.peek()
	if ok && tok.kind == kind && tok.text == text {
		p.pos++

		return true
	}

	return false
}

func (p *exprParser) parseOr() (any, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.accept(tokOperator, "||") {
		leftOK, err := truthy(left)
		if err != nil {
			return nil, err
		}

		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}

		rightOK, err := truthy(right)
		if err != nil {
			return nil, err
		}

		left = leftOK || rightOK
	}

	return left, nil
}

func (p *exprParser) parseAnd() (any, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	for p.accept(tokOperator, "&&") {
		leftOK, err := truthy(left)
		if err != nil {
			return nil, err
		}

		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}

		rightOK, err := truthy(right)
		if err != nil {
			return nil, err
		}

		left = leftOK && rightOK
	}

	return left, nil
}

func (p *exprParser) parseComparison() (any, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokOperator {
			return left, nil
		}

		switch tok.text {
		case "==", "!=", "<", "<=", ">", ">=":
			p.pos++

			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}

			left, err = applyComparison(tok.text, left, right)
			if err != nil {
				return nil, err
			}
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseAdditive() (any, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.accept(tokPunct, "+"):
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}

			left, err = applyArithmetic("+", left, right)
			if err != nil {
				return nil, err
			}
		case p.accept(tokPunct, "-"):
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}

			left, err = applyArithmetic("-", left, right)
			if err != nil {
				return nil, err
			}
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseMultiplicative() (any, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		var op string

		switch {
		case p.accept(tokPunct, "*"):
			op = "*"
		case p.accept(tokPunct, "/"):
			op = "/"
		case p.accept(tokPunct, "%"):
			op = "%"
		default:
			return left, nil
		}

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		left, err = applyArithmetic(op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (p *exprParser) parseUnary() (any, error) {
	if p.accept(tokOperator, "!") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		ok, err := truthy(operand)
		if err != nil {
			return nil, err
		}

		return !ok, nil
	}

	if p.accept(tokPunct, "-") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		num, ok := toNumber(operand)
		if !ok {
			return nil, fmt.Errorf("cannot negate %T", operand)
		}

		return -num, nil
	}

	return p.parsePostfix()
}

func (p *exprParser) parsePostfix() (any, error) {
	value, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.accept(tokPunct, ".") {
		tok, ok := p.peek()
		if !ok || tok.kind != tokIdent {
			return nil, errors.New("expected property name after '.'")
		}

		p.pos++

		record, ok := value.(map[string]any)
		if !ok {
			value = nil

			continue
		}

		value = record[tok.text]
	}

	return value, nil
}

func (p *exprParser) parsePrimary() (any, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, errors.New("unexpected end of expression")
	}

	switch tok.kind {
	case tokNumber:
		p.pos++

		return strconv.ParseFloat(tok.text, 64)
	case tokString:
		p.pos++

		return tok.text, nil
	case tokIdent:
		p.pos++

		switch tok.text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}

		if p.accept(tokPunct, "(") {
			return p.parseCall(tok.text)
		}

		value, exists := p.context[tok.text]
		if !exists {
			return nil, fmt.Errorf("unknown identifier %q", tok.text)
		}

		return value, nil
	case tokPunct:
		if tok.text == "(" {
			p.pos++

			value, err := p.parseOr()
			if err != nil {
				return nil, err
			}

			if !p.accept(tokPunct, ")") {
				return nil, errors.New("expected ')'")
			}

			return value, nil
		}
	}

	return nil, fmt.Errorf("unexpected token %q", tok.text)
}

func (p *exprParser) parseCall(name string) (any, error) {
	var args []any

	if !p.accept(tokPunct, ")") {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}

			args = append(args, arg)

			if p.accept(tokPunct, ")") {
				break
			}

			if !p.accept(tokPunct, ",") {
				return nil, errors.New("expected ',' or ')' in argument list")
			}
		}
	}

	return callFunction(name, args)
}

// callFunction dispatches to the whitelist of math, date, and JSON
// utilities. Nothing outside this switch is callable.
func callFunction(name string, args []any) (any, error) {
	number := func(i int) (float64, error) {
		if i >= len(args) {
			return 0, fmt.Errorf("%s: missing argument %d", name, i)
		}

		num, ok := toNumber(args[i])
		if !ok {
			return 0, fmt.Errorf("%s: argument %d is not a number", name, i)
		}

		return num, nil
	}

	switch name {
	case "abs":
		num, err := number(0)
		if err != nil {
			return nil, err
		}

		return math.Abs(num), nil
	case "floor":
		num, err := number(0)
		if err != nil {
			return nil, err
		}

		return math.Floor(num), nil
	case "ceil":
		num, err := number(0)
		if err != nil {
			return nil, err
		}

		return math.Ceil(num), nil
	case "round":
		num, err := number(0)
		if err != nil {
			return nil, err
		}

		return math.Round(num), nil
	case "min", "max":
		if len(args) == 0 {
			return nil, fmt.Errorf("%s: at least one argument required", name)
		}

		result, err := number(0)
		if err != nil {
			return nil, err
		}

		for i := 1; i < len(args); i++ {
			num, err := number(i)
			if err != nil {
				return nil, err
			}

			if (name == "min" && num < result) || (name == "max" && num > result) {
				result = num
			}
		}

		return result, nil
	case "len":
		if len(args) != 1 {
			return nil, errors.New("len: exactly one argument required")
		}

		switch v := args[0].(type) {
		case string:
			return float64(len(v)), nil
		case []any:
			return float64(len(v)), nil
		case map[string]any:
			return float64(len(v)), nil
		default:
			return nil, fmt.Errorf("len: unsupported type %T", args[0])
		}
	case "lower":
		if len(args) != 1 {
			return nil, errors.New("lower: exactly one argument required")
		}

		return strings.ToLower(stringify(args[0])), nil
	case "upper":
		if len(args) != 1 {
			return nil, errors.New("upper: exactly one argument required")
		}

		return strings.ToUpper(stringify(args[0])), nil
	case "contains":
		if len(args) != 2 {
			return nil, errors.New("contains: exactly two arguments required")
		}

		return containsValue(args[0], args[1]), nil
	case "now":
		return float64(time.Now().UTC().Unix()), nil
	case "date":
		if len(args) != 1 {
			return nil, errors.New("date: exactly one argument required")
		}

		parsed, err := time.Parse(time.RFC3339, stringify(args[0]))
		if err != nil {
			return nil, fmt.Errorf("date: %w", err)
		}

		return float64(parsed.Unix()), nil
	case "json":
		if len(args) != 1 {
			return nil, errors.New("json: exactly one argument required")
		}

		var parsed any

		str, _ := args[0].(string)
		if err := json.Unmarshal([]byte(str), &parsed); err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}

		return parsed, nil
	default:
		return nil, fmt.Errorf("function %q is not available", name)
	}
}

func applyComparison(op string, left, right any) (any, error) {
	switch op {
	case "==":
		return valuesEqual(left, right), nil
	case "!=":
		return !valuesEqual(left, right), nil
	}

	leftNum, leftOK := toNumber(left)
	rightNum, rightOK := toNumber(right)

	if leftOK && rightOK {
		switch op {
		case "<":
			return leftNum < rightNum, nil
		case "<=":
			return leftNum <= rightNum, nil
		case ">":
			return leftNum > rightNum, nil
		case ">=":
			return leftNum >= rightNum, nil
		}
	}

	leftStr, leftIsStr := left.(string)
	rightStr, rightIsStr := right.(string)

	if leftIsStr && rightIsStr {
		cmp := strings.Compare(leftStr, rightStr)

		switch op {
		case "<":
			return cmp < 0, nil
		case "<=":
			return cmp <= 0, nil
		case ">":
			return cmp > 0, nil
		case ">=":
			return cmp >= 0, nil
		}
	}

	return nil, ErrNotComparable
}

func applyArithmetic(op string, left, right any) (any, error) {
	if op == "+" {
		if leftStr, ok := left.(string); ok {
			return leftStr + stringify(right), nil
		}
	}

	leftNum, leftOK := toNumber(left)
	rightNum, rightOK := toNumber(right)

	if !leftOK || !rightOK {
		return nil, fmt.Errorf("arithmetic %q requires numbers", op)
	}

	switch op {
	case "+":
		return leftNum + rightNum, nil
	case "-":
		return leftNum - rightNum, nil
	case "*":
		return leftNum * rightNum, nil
	case "/":
		if rightNum == 0 {
			return nil, errors.New("division by zero")
		}

		return leftNum / rightNum, nil
	case "%":
		if rightNum == 0 {
			return nil, errors.New("division by zero")
		}

		return math.Mod(leftNum, rightNum), nil
	default:
		return nil, fmt.Errorf("unknown arithmetic operator %q", op)
	}
}
