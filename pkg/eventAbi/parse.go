package eventAbi

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	identifierRegex  = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
	arraySuffixRegex = regexp.MustCompile(`^(\[[0-9]*\])*$`)
)

func isIdentifier(s string) bool {
	return identifierRegex.MatchString(s)
}

// ParseEventSignature parses a human-readable event declaration such as
//
//	event Transfer(address indexed from, address indexed to, uint256 value)
//
// The "event" keyword, parameter names and the trailing "anonymous" keyword are
// optional. Tuples are written as "(t1,t2)" (optionally prefixed by "tuple") and may
// carry array suffixes.
func ParseEventSignature(signature string) (*EventDescription, error) {
	s := strings.TrimSpace(signature)
	s = strings.TrimSuffix(s, ";")
	if rest, ok := strings.CutPrefix(s, "event"); ok && len(rest) > 0 && (rest[0] == ' ' || rest[0] == '\t') {
		s = strings.TrimSpace(rest)
	}

	open := strings.Index(s, "(")
	closing := strings.LastIndex(s, ")")
	if open <= 0 || closing < open {
		return nil, eventErrors.NewValidationError("signature", "expected 'Name(...)', got '%s'", signature)
	}
	name := strings.TrimSpace(s[:open])

	anonymous := false
	switch trailer := strings.TrimSpace(s[closing+1:]); trailer {
	case "":
	case "anonymous":
		anonymous = true
	default:
		return nil, eventErrors.NewValidationError("signature", "unexpected '%s' after parameter list", trailer)
	}

	fields, err := splitTopLevel(s[open+1 : closing])
	if err != nil {
		return nil, err
	}
	params := make([]Parameter, 0, len(fields))
	for _, field := range fields {
		p, err := parseParameter(field)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return NewEventDescription(name, params, anonymous)
}

func parseParameter(field string) (Parameter, error) {
	typeExpr, rest, err := cutTypeExpression(field)
	if err != nil {
		return Parameter{}, err
	}

	p := Parameter{}
	words := strings.Fields(rest)
	if len(words) > 0 && words[0] == "indexed" {
		p.Indexed = true
		words = words[1:]
	}
	switch len(words) {
	case 0:
	case 1:
		if !isIdentifier(words[0]) {
			return Parameter{}, eventErrors.NewValidationError("signature", "invalid parameter name '%s'", words[0])
		}
		p.Name = words[0]
	default:
		return Parameter{}, eventErrors.NewValidationError("signature", "cannot parse parameter '%s'", strings.TrimSpace(field))
	}

	p.Type, err = parseType(typeExpr)
	if err != nil {
		return Parameter{}, withParameter(err, p.Name)
	}
	return p, nil
}

// parseType converts a type expression into a go-ethereum type descriptor.
func parseType(expr string) (abi.Type, error) {
	typ, components, err := toMarshaling(strings.TrimSpace(expr))
	if err != nil {
		return abi.Type{}, err
	}
	abiType, err := abi.NewType(typ, "", components)
	if err != nil {
		return abi.Type{}, eventErrors.NewUnsupportedTypeError(expr, "%v", err)
	}
	return abiType, nil
}

// toMarshaling rewrites a type expression into the (type, components) form that
// abi.NewType accepts. Tuple components without a name get "field<i>".
func toMarshaling(expr string) (string, []abi.ArgumentMarshaling, error) {
	expr = strings.TrimPrefix(expr, "tuple")
	if expr == "" {
		return "", nil, eventErrors.NewValidationError("signature", "empty type")
	}

	if expr[0] != '(' {
		base, suffix := expr, ""
		if idx := strings.Index(expr, "["); idx >= 0 {
			base, suffix = expr[:idx], expr[idx:]
		}
		if !arraySuffixRegex.MatchString(suffix) {
			return "", nil, eventErrors.NewValidationError("signature", "invalid array suffix in '%s'", expr)
		}
		switch base {
		case "uint":
			base = "uint256"
		case "int":
			base = "int256"
		}
		return base + suffix, nil, nil
	}

	end := matchingParen(expr)
	if end < 0 {
		return "", nil, eventErrors.NewValidationError("signature", "unbalanced parentheses in '%s'", expr)
	}
	suffix := expr[end+1:]
	if !arraySuffixRegex.MatchString(suffix) {
		return "", nil, eventErrors.NewValidationError("signature", "invalid array suffix in '%s'", expr)
	}

	fields, err := splitTopLevel(expr[1:end])
	if err != nil {
		return "", nil, err
	}
	if len(fields) == 0 {
		return "", nil, eventErrors.NewValidationError("signature", "empty tuple '%s'", expr)
	}

	components := make([]abi.ArgumentMarshaling, len(fields))
	for i, field := range fields {
		componentExpr, rest, err := cutTypeExpression(field)
		if err != nil {
			return "", nil, err
		}
		name := strings.TrimSpace(rest)
		if name == "" {
			name = fmt.Sprintf("field%d", i)
		} else if !isIdentifier(name) {
			return "", nil, eventErrors.NewValidationError("signature", "invalid tuple component '%s'", strings.TrimSpace(field))
		}
		typ, nested, err := toMarshaling(componentExpr)
		if err != nil {
			return "", nil, err
		}
		components[i] = abi.ArgumentMarshaling{Name: name, Type: typ, Components: nested}
	}
	return "tuple" + suffix, components, nil
}

// cutTypeExpression splits a parameter declaration into its type expression and the
// remaining words.
func cutTypeExpression(field string) (string, string, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return "", "", eventErrors.NewValidationError("signature", "empty parameter")
	}

	start := 0
	if strings.HasPrefix(field, "tuple(") {
		start = len("tuple")
	}
	if field[start] != '(' {
		idx := strings.IndexAny(field, " \t")
		if idx < 0 {
			return field, "", nil
		}
		return field[:idx], field[idx:], nil
	}

	end := matchingParen(field[start:])
	if end < 0 {
		return "", "", eventErrors.NewValidationError("signature", "unbalanced parentheses in '%s'", field)
	}
	end += start + 1
	for end < len(field) && field[end] != ' ' && field[end] != '\t' {
		end++
	}
	return field[:end], field[end:], nil
}

// matchingParen returns the index of the parenthesis closing s[0], or -1.
func matchingParen(s string) int {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits a parameter list on commas that are not nested inside a tuple.
func splitTopLevel(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	fields := make([]string, 0)
	depth := 0
	last := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, eventErrors.NewValidationError("signature", "unbalanced parentheses in '%s'", s)
			}
		case ',':
			if depth == 0 {
				fields = append(fields, s[last:i])
				last = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, eventErrors.NewValidationError("signature", "unbalanced parentheses in '%s'", s)
	}
	fields = append(fields, s[last:])
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return nil, eventErrors.NewValidationError("signature", "empty parameter in '%s'", s)
		}
	}
	return fields, nil
}
