package toolkit

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/agora-dev/symposium/tool"
)

// Calculator evaluates arithmetic expressions so models don't have to do
// math in their head.
var Calculator = tool.Must(Calculate,
	tool.Name("calculate"),
	tool.Description("Evaluate an arithmetic expression. Supports +, -, *, /, %, ^ (power), parentheses, and unary minus. Returns the result as a decimal number."),
	tool.Parameters("expression"),
)

// Calculate evaluates expression and returns the result formatted without
// trailing zeros.
func Calculate(expression string) (string, error) {
	tokens, err := tokenize(expression)
	if err != nil {
		return "", err
	}

	rpn, err := toRPN(tokens)
	if err != nil {
		return "", err
	}

	result, err := evalRPN(rpn)
	if err != nil {
		return "", err
	}

	if math.IsInf(result, 0) || math.IsNaN(result) {
		return "", fmt.Errorf("calculate: result is not a finite number")
	}

	return strconv.FormatFloat(result, 'f', -1, 64), nil
}

type tokenKind uint8

const (
	tokenNumber tokenKind = iota
	tokenOperator
	tokenLeftParen
	tokenRightParen
)

type token struct {
	kind  tokenKind
	value float64
	op    byte
	unary bool
}

func tokenize(expression string) ([]token, error) {
	var tokens []token

	expr := strings.TrimSpace(expression)
	if expr == "" {
		return nil, fmt.Errorf("calculate: empty expression")
	}

	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9' || expr[j] == '.') {
				j++
			}
			num, err := strconv.ParseFloat(expr[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("calculate: invalid number %q", expr[i:j])
			}
			tokens = append(tokens, token{kind: tokenNumber, value: num})
			i = j
		case c == '(':
			tokens = append(tokens, token{kind: tokenLeftParen})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokenRightParen})
			i++
		case strings.IndexByte("+-*/%^", c) >= 0:
			unary := c == '-' && startsOperand(tokens)
			tokens = append(tokens, token{kind: tokenOperator, op: c, unary: unary})
			i++
		default:
			return nil, fmt.Errorf("calculate: unexpected character %q", string(c))
		}
	}

	return tokens, nil
}

// startsOperand reports whether the next token begins a new operand, which
// makes a '-' unary rather than a subtraction.
func startsOperand(tokens []token) bool {
	if len(tokens) == 0 {
		return true
	}
	last := tokens[len(tokens)-1]
	return last.kind == tokenOperator || last.kind == tokenLeftParen
}

func precedence(t token) int {
	if t.unary {
		return 3
	}
	switch t.op {
	case '+', '-':
		return 1
	case '*', '/', '%':
		return 2
	case '^':
		return 4
	}
	return 0
}

func rightAssociative(t token) bool {
	return t.unary || t.op == '^'
}

// toRPN converts the token stream to reverse polish notation with the
// shunting-yard algorithm.
func toRPN(tokens []token) ([]token, error) {
	var output []token
	var stack []token

	for _, t := range tokens {
		switch t.kind {
		case tokenNumber:
			output = append(output, t)
		case tokenOperator:
			// A prefix minus binds to the operand that follows it, nothing
			// on the stack can complete yet.
			if t.unary {
				stack = append(stack, t)
				continue
			}
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.kind != tokenOperator {
					break
				}
				if precedence(top) > precedence(t) || (precedence(top) == precedence(t) && !rightAssociative(t)) {
					output = append(output, top)
					stack = stack[:len(stack)-1]
					continue
				}
				break
			}
			stack = append(stack, t)
		case tokenLeftParen:
			stack = append(stack, t)
		case tokenRightParen:
			matched := false
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.kind == tokenLeftParen {
					matched = true
					break
				}
				output = append(output, top)
			}
			if !matched {
				return nil, fmt.Errorf("calculate: unbalanced parentheses")
			}
		}
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.kind == tokenLeftParen {
			return nil, fmt.Errorf("calculate: unbalanced parentheses")
		}
		output = append(output, top)
	}

	return output, nil
}

func evalRPN(rpn []token) (float64, error) {
	var stack []float64

	for _, t := range rpn {
		if t.kind == tokenNumber {
			stack = append(stack, t.value)
			continue
		}

		if t.unary {
			if len(stack) < 1 {
				return 0, fmt.Errorf("calculate: malformed expression")
			}
			stack[len(stack)-1] = -stack[len(stack)-1]
			continue
		}

		if len(stack) < 2 {
			return 0, fmt.Errorf("calculate: malformed expression")
		}
		right := stack[len(stack)-1]
		left := stack[len(stack)-2]
		stack = stack[:len(stack)-2]

		var value float64
		switch t.op {
		case '+':
			value = left + right
		case '-':
			value = left - right
		case '*':
			value = left * right
		case '/':
			if right == 0 {
				return 0, fmt.Errorf("calculate: division by zero")
			}
			value = left / right
		case '%':
			if right == 0 {
				return 0, fmt.Errorf("calculate: division by zero")
			}
			value = math.Mod(left, right)
		case '^':
			value = math.Pow(left, right)
		}
		stack = append(stack, value)
	}

	if len(stack) != 1 {
		return 0, fmt.Errorf("calculate: malformed expression")
	}

	return stack[0], nil
}
