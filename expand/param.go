package expand

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"goyash.dev/goyash/ast"
	"goyash.dev/goyash/pattern"
	"goyash.dev/goyash/token"
)

// lookupParam resolves a parameter name to its scalar string value.
// "@", "*", "#" and digit strings read the positional parameter list,
// and "?", "$", "!" and "0" read the special shell-state fields the
// interpreter fills in on the Context; none of these are ordinary
// Env entries.
func (c *Context) lookupParam(name string) (str string, set bool) {
	switch {
	case name == "@":
		if len(c.Positional) == 0 {
			return "", false
		}
		return strings.Join(c.Positional, " "), true
	case name == "*":
		if len(c.Positional) == 0 {
			return "", false
		}
		return c.ifsJoin(c.Positional), true
	case name == "#":
		return strconv.Itoa(len(c.Positional)), true
	case name == "?":
		return strconv.Itoa(c.LastStatus), true
	case name == "$":
		return strconv.Itoa(c.ShellPid), true
	case name == "!":
		if c.BgPid == 0 {
			return "", false
		}
		return strconv.Itoa(c.BgPid), true
	case name == "0":
		return c.Name, true
	case isAllDigits(name):
		i, _ := strconv.Atoi(name)
		if i == 0 || i > len(c.Positional) {
			return "", false
		}
		return c.Positional[i-1], true
	default:
		vr := c.Env.Get(name)
		return vr.Str, vr.Set
	}
}

func isAllDigits(s string) bool {
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

// paramExp expands a ${...} or bare $name parameter expansion node,
// applying at most one of the length, switch or trim modifiers the
// grammar allows.
func (c *Context) paramExp(pe *ast.ParamExp) string {
	name := pe.Param.Value
	str, set := c.lookupParam(name)
	switch {
	case pe.Length:
		n := utf8.RuneCountInString(str)
		if name == "@" || name == "*" {
			n = len(c.Positional)
		}
		return strconv.Itoa(n)
	case pe.Switch != nil:
		return c.paramSwitch(name, str, set, pe)
	case pe.Trim != nil:
		return c.paramTrim(str, pe.Trim)
	default:
		return str
	}
}

func (c *Context) paramSwitch(name, str string, set bool, pe *ast.ParamExp) string {
	sw := pe.Switch
	arg := func() string { return c.ExpandLiteral(sw.Word) }
	switch sw.Op {
	case token.ParExpOperator(token.CSUB): // :-
		if str == "" {
			return arg()
		}
		return str
	case token.ParExpOperator(token.SUB): // -
		if !set {
			return arg()
		}
		return str
	case token.ParExpOperator(token.CADD): // :+
		if str != "" {
			return arg()
		}
		return ""
	case token.ParExpOperator(token.ADD): // +
		if set {
			return arg()
		}
		return ""
	case token.ParExpOperator(token.CASSIGN): // :=
		if str == "" {
			val := arg()
			if err := c.envSet(name, val); err != nil {
				c.err(err)
			}
			return val
		}
		return str
	case token.ParExpOperator(token.ASSIGN): // =
		if !set {
			val := arg()
			if err := c.envSet(name, val); err != nil {
				c.err(err)
			}
			return val
		}
		return str
	case token.ParExpOperator(token.CQUEST): // :?
		if str == "" {
			msg := arg()
			if msg == "" {
				msg = "parameter null or not set"
			}
			c.err(UnsetParameterError{Name: name, Message: msg})
		}
		return str
	case token.ParExpOperator(token.QUEST): // ?
		if !set {
			msg := arg()
			if msg == "" {
				msg = "parameter not set"
			}
			c.err(UnsetParameterError{Name: name, Message: msg})
		}
		return str
	default:
		return str
	}
}

func (c *Context) paramTrim(str string, tr *ast.Trim) string {
	pat := c.ExpandPattern(tr.Word)
	if pat == "" {
		return str
	}
	suffix := tr.Op == token.ParExpOperator(token.REM) || tr.Op == token.ParExpOperator(token.DREM)
	greedy := tr.Op == token.ParExpOperator(token.DHASH) || tr.Op == token.ParExpOperator(token.DREM)
	return removePattern(str, pat, suffix, greedy)
}

func removePattern(str, pat string, suffix, greedy bool) string {
	mode := pattern.Mode(0)
	if !greedy {
		mode |= pattern.Shortest
	}
	expr, err := pattern.Regexp(pat, mode)
	if err != nil {
		return str
	}
	switch {
	case suffix && !greedy:
		// ".*" forces the left-most match of the outer expression to
		// be as long as possible, landing on the right-most occurrence
		// of the (non-greedy) captured suffix.
		expr = ".*(" + expr + ")$"
	case suffix:
		expr = "(" + expr + ")$"
	default:
		expr = "^(" + expr + ")"
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return str
	}
	loc := re.FindStringSubmatchIndex(str)
	if loc == nil {
		return str
	}
	return str[:loc[2]] + str[loc[3]:]
}
