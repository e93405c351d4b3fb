package expand

import (
	"fmt"
	"strconv"
	"strings"

	"goyash.dev/goyash/ast"
	"goyash.dev/goyash/token"
)

// maxNameRefDepth bounds the name-chasing in bare arithmetic operands:
// $((x)) where x holds the text of another variable's name is resolved
// recursively, and a bound keeps a reference cycle from looping forever.
const maxNameRefDepth = 100

// Arithm evaluates an arithmetic expression tree, per POSIX signed
// 64-bit arithmetic (no floating point; see the module's non-goals).
func (c *Context) Arithm(expr ast.ArithmExpr) (int64, error) {
	switch x := expr.(type) {
	case *ast.WordArithm:
		return c.arithmWord(x)
	case *ast.ParenArithm:
		return c.Arithm(x.X)
	case *ast.UnaryArithm:
		return c.arithmUnary(x)
	case *ast.BinaryArithm:
		return c.arithmBinary(x)
	case *ast.TernaryArithm:
		cond, err := c.Arithm(x.Cond)
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return c.Arithm(x.Then)
		}
		return c.Arithm(x.Else)
	default:
		return 0, fmt.Errorf("expand: unhandled arithmetic expression %T", x)
	}
}

// arithmWord evaluates a bare operand: a literal number, or a name
// resolved through the environment (chasing a chain of names that each
// hold another variable's name, the way `x=y; y=3; echo $((x))` works).
func (c *Context) arithmWord(w *ast.WordArithm) (int64, error) {
	str := c.ExpandLiteral(w.W)
	i := 0
	for isValidName(str) {
		val := c.envGet(str)
		if val == "" {
			break
		}
		i++
		if i >= maxNameRefDepth {
			break
		}
		str = val
	}
	return atoi(str), nil
}

func isValidName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

func atoi(s string) int64 {
	s = strings.TrimSpace(s)
	n, _ := strconv.ParseInt(s, 0, 64)
	return n
}

func wordArithmName(x ast.ArithmExpr) (string, bool) {
	w, ok := x.(*ast.WordArithm)
	if !ok || len(w.W.Parts) != 1 {
		return "", false
	}
	lit, ok := w.W.Parts[0].(*ast.Lit)
	if !ok {
		return "", false
	}
	return lit.Value, true
}

func oneIf(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (c *Context) arithmUnary(u *ast.UnaryArithm) (int64, error) {
	switch u.Op {
	case token.INC, token.DEC:
		name, ok := wordArithmName(u.X)
		if !ok {
			return 0, fmt.Errorf("expand: %s needs a variable operand", u.Op)
		}
		old := atoi(c.envGet(name))
		val := old
		if u.Op == token.INC {
			val++
		} else {
			val--
		}
		if err := c.envSet(name, strconv.FormatInt(val, 10)); err != nil {
			return 0, err
		}
		if u.Post {
			return old, nil
		}
		return val, nil
	}
	val, err := c.Arithm(u.X)
	if err != nil {
		return 0, err
	}
	switch u.Op {
	case token.NOT:
		return oneIf(val == 0), nil
	case token.BNOT:
		return ^val, nil
	case token.SUB:
		return -val, nil
	default: // token.ADD
		return val, nil
	}
}

var arithmAssignOps = map[token.Token]bool{
	token.ASSIGN: true, token.ADDASSGN: true, token.SUBASSGN: true,
	token.MULASSGN: true, token.QUOASSGN: true, token.REMASSGN: true,
	token.ANDASSGN: true, token.ORASSGN: true, token.XORASSGN: true,
	token.SHLASSGN: true, token.SHRASSGN: true,
}

func (c *Context) arithmBinary(b *ast.BinaryArithm) (int64, error) {
	if arithmAssignOps[b.Op] {
		return c.arithmAssign(b)
	}
	x, err := c.Arithm(b.X)
	if err != nil {
		return 0, err
	}
	y, err := c.Arithm(b.Y)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case token.ADD:
		return x + y, nil
	case token.SUB:
		return x - y, nil
	case token.MUL:
		return x * y, nil
	case token.QUO:
		if y == 0 {
			return 0, fmt.Errorf("expand: division by zero")
		}
		return x / y, nil
	case token.REM:
		if y == 0 {
			return 0, fmt.Errorf("expand: division by zero")
		}
		return x % y, nil
	case token.EQL:
		return oneIf(x == y), nil
	case token.NEQ:
		return oneIf(x != y), nil
	case token.GTR:
		return oneIf(x > y), nil
	case token.LSS:
		return oneIf(x < y), nil
	case token.GEQ:
		return oneIf(x >= y), nil
	case token.LEQ:
		return oneIf(x <= y), nil
	case token.AND:
		return x & y, nil
	case token.OR:
		return x | y, nil
	case token.XOR:
		return x ^ y, nil
	case token.SHL:
		return x << uint(y), nil
	case token.SHR:
		return x >> uint(y), nil
	case token.LAND:
		return oneIf(x != 0 && y != 0), nil
	case token.LOR:
		return oneIf(x != 0 || y != 0), nil
	case token.COMMA:
		return y, nil
	default:
		return 0, fmt.Errorf("expand: unhandled arithmetic operator %s", b.Op)
	}
}

func (c *Context) arithmAssign(b *ast.BinaryArithm) (int64, error) {
	name, ok := wordArithmName(b.X)
	if !ok {
		return 0, fmt.Errorf("expand: %s needs a variable operand", b.Op)
	}
	val := atoi(c.envGet(name))
	arg, err := c.Arithm(b.Y)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case token.ASSIGN:
		val = arg
	case token.ADDASSGN:
		val += arg
	case token.SUBASSGN:
		val -= arg
	case token.MULASSGN:
		val *= arg
	case token.QUOASSGN:
		if arg == 0 {
			return 0, fmt.Errorf("expand: division by zero")
		}
		val /= arg
	case token.REMASSGN:
		if arg == 0 {
			return 0, fmt.Errorf("expand: division by zero")
		}
		val %= arg
	case token.ANDASSGN:
		val &= arg
	case token.ORASSGN:
		val |= arg
	case token.XORASSGN:
		val ^= arg
	case token.SHLASSGN:
		val <<= uint(arg)
	case token.SHRASSGN:
		val >>= uint(arg)
	}
	if err := c.envSet(name, strconv.FormatInt(val, 10)); err != nil {
		return 0, err
	}
	return val, nil
}
