// Package expand implements the POSIX word-expansion pipeline: tilde
// expansion, parameter expansion, command substitution, arithmetic
// expansion, field splitting, and pathname expansion, in that order
// per the POSIX token-recognition rules.
package expand

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"goyash.dev/goyash/ast"
	"goyash.dev/goyash/pattern"
)

// Context carries everything word expansion needs: the variable
// environment, the positional parameters, and the callbacks the
// interpreter supplies for command substitution and pathname reads.
type Context struct {
	Env WriteEnviron

	// Positional holds $1, $2, ... for "$@"/"$*"/${#} expansion.
	// Unlike $HOME or $PATH these aren't ordinary Environ entries,
	// since POSIX parameter lists aren't shell arrays.
	Positional []string

	// LastStatus, ShellPid, BgPid and Name back "$?", "$$", "$!" and
	// "$0" respectively. BgPid of 0 means no asynchronous command has
	// been started yet in this shell, matching "$!" being unset.
	LastStatus int
	ShellPid   int
	BgPid      int
	Name       string

	NoGlob bool

	// Subshell runs a command substitution's statement list and
	// returns its captured stdout. Set by the interpreter, which is
	// the only layer that knows how to execute an ast.Stmt list.
	Subshell func(stmts []*ast.Stmt) string

	// ReadDir lists directory entries for pathname expansion. Defaults
	// to os.ReadDir; the interpreter overrides it with the System
	// interface's filesystem when running against a virtual backend.
	ReadDir func(dir string) ([]os.DirEntry, error)

	// OnError reports an expansion-time error (unset parameter with
	// ":?", division by zero, a malformed pattern). Panics if nil.
	OnError func(error)

	ifs string
}

// UnsetParameterError is raised by the ":?"/"?" switch modifiers.
type UnsetParameterError struct {
	Name    string
	Message string
}

func (u UnsetParameterError) Error() string {
	if u.Message != "" {
		return u.Message
	}
	return fmt.Sprintf("%s: parameter not set", u.Name)
}

func (c *Context) err(err error) {
	if c.OnError == nil {
		panic(err)
	}
	c.OnError(err)
}

func (c *Context) readDir(dir string) ([]os.DirEntry, error) {
	if c.ReadDir != nil {
		return c.ReadDir(dir)
	}
	return os.ReadDir(dir)
}

func (c *Context) prepareIFS() {
	vr := c.Env.Get("IFS")
	if !vr.IsSet() {
		c.ifs = " \t\n"
	} else {
		c.ifs = vr.Str
	}
}

func (c *Context) ifsRune(r rune) bool {
	return strings.ContainsRune(c.ifs, r)
}

func (c *Context) ifsJoin(strs []string) string {
	sep := ""
	if c.ifs != "" {
		sep = c.ifs[:1]
	}
	return strings.Join(strs, sep)
}

func (c *Context) envGet(name string) string {
	return c.Env.Get(name).Str
}

func (c *Context) envSet(name, value string) error {
	return c.Env.Set(name, Variable{Set: true, Str: value})
}

// fieldPart is one contiguous chunk of an expanded word, tagged with
// whether it came from a quoted context. Quoting survives expansion so
// that field splitting and pathname expansion can tell which bytes the
// user explicitly protected.
type fieldPart struct {
	val   string
	quote bool
}

// ExpandLiteral expands word with no field splitting and no pathname
// expansion, joining every part into a single string. Used for
// assignment right-hand sides, case patterns before translation, and
// other single-field contexts.
func (c *Context) ExpandLiteral(word ast.Word) string {
	c.prepareIFS()
	parts := c.wordField(word.Parts, true)
	return c.fieldJoin(parts)
}

// ExpandPattern expands word the way a case pattern or a trim operand
// is expanded: quoted runs are pattern-quoted (their glob metacharacters
// escaped) rather than treated as glob syntax.
func (c *Context) ExpandPattern(word ast.Word) string {
	c.prepareIFS()
	parts := c.wordField(word.Parts, true)
	var sb strings.Builder
	for _, p := range parts {
		if p.quote {
			sb.WriteString(pattern.QuoteMeta(p.val))
		} else {
			sb.WriteString(p.val)
		}
	}
	return sb.String()
}

func (c *Context) fieldJoin(parts []fieldPart) string {
	if len(parts) == 1 {
		return parts[0].val
	}
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.val)
	}
	return sb.String()
}

// ExpandFields runs the full pipeline over words: tilde, parameter,
// command and arithmetic expansion, field splitting on IFS, and
// pathname expansion, returning the resulting argument list.
func (c *Context) ExpandFields(words ...ast.Word) []string {
	c.prepareIFS()
	fields := make([]string, 0, len(words))
	dir := c.envGet("PWD")
	for _, word := range words {
		for _, field := range c.wordFields(word.Parts) {
			path, doGlob := c.escapedGlobField(field)
			var matches []string
			if doGlob && !c.NoGlob {
				abs := filepath.IsAbs(path)
				searchPath := path
				if !abs && dir != "" {
					searchPath = filepath.Join(dir, path)
				}
				matches = c.glob(searchPath)
				if !abs {
					for i, m := range matches {
						if rel, err := filepath.Rel(dir, m); err == nil {
							matches[i] = rel
						}
					}
				}
			}
			if len(matches) == 0 {
				fields = append(fields, c.fieldJoin(field))
				continue
			}
			sort.Strings(matches)
			fields = append(fields, matches...)
		}
	}
	return fields
}

func (c *Context) escapedGlobField(parts []fieldPart) (escaped string, glob bool) {
	var sb strings.Builder
	for _, p := range parts {
		if p.quote {
			sb.WriteString(pattern.QuoteMeta(p.val))
			continue
		}
		sb.WriteString(p.val)
		if pattern.HasMeta(p.val) {
			glob = true
		}
	}
	if glob {
		escaped = sb.String()
	}
	return escaped, glob
}

// wordField expands wps into a single field with no splitting. dq
// selects whether a Lit part's backslash escapes are resolved the way
// a double-quoted literal run would be (true) or the way an unquoted
// run would be (false).
func (c *Context) wordField(wps []ast.WordPart, dq bool) []fieldPart {
	var field []fieldPart
	for i, wp := range wps {
		switch x := wp.(type) {
		case *ast.Lit:
			s := x.Value
			tq := false
			if i == 0 {
				s, tq = c.expandTilde(s)
			}
			if tq {
				field = append(field, fieldPart{quote: true, val: s})
			} else {
				field = append(field, fieldPart{val: unescapeLit(s, dq)})
			}
		case *ast.SglQuoted:
			field = append(field, fieldPart{quote: true, val: x.Value})
		case *ast.DblQuoted:
			for _, p := range c.wordField(x.Parts, true) {
				p.quote = true
				field = append(field, p)
			}
		case *ast.ParamExp:
			field = append(field, fieldPart{val: c.paramExp(x)})
		case *ast.CmdSubst:
			field = append(field, fieldPart{val: c.cmdSubst(x)})
		case *ast.ArithmExp:
			n, err := c.Arithm(x.X)
			if err != nil {
				c.err(err)
			}
			field = append(field, fieldPart{val: strconv.FormatInt(n, 10)})
		default:
			panic(fmt.Sprintf("expand: unhandled word part %T", x))
		}
	}
	return field
}

// wordFields expands wps into one or more fields, applying IFS
// splitting to the unquoted results of parameter/command/arithmetic
// expansion.
func (c *Context) wordFields(wps []ast.WordPart) [][]fieldPart {
	var fields [][]fieldPart
	var cur []fieldPart
	allowEmpty := false
	flush := func() {
		if len(cur) == 0 {
			return
		}
		fields = append(fields, cur)
		cur = nil
	}
	splitAdd := func(val string) {
		parts := strings.FieldsFunc(val, c.ifsRune)
		for i, s := range parts {
			if i > 0 {
				flush()
			}
			cur = append(cur, fieldPart{val: s})
		}
	}
	for i, wp := range wps {
		switch x := wp.(type) {
		case *ast.Lit:
			s := x.Value
			tq := false
			if i == 0 {
				s, tq = c.expandTilde(s)
			}
			if tq {
				allowEmpty = true
				cur = append(cur, fieldPart{quote: true, val: s})
			} else {
				cur = append(cur, fieldPart{val: unescapeLit(s, false)})
			}
		case *ast.SglQuoted:
			allowEmpty = true
			cur = append(cur, fieldPart{quote: true, val: x.Value})
		case *ast.DblQuoted:
			if elems, ok := c.quotedParamElems(x); ok {
				// "$@" with no positional parameters contributes no
				// fields at all, unlike every other quoted-empty case.
				if len(elems) > 0 {
					allowEmpty = true
				}
				for i, e := range elems {
					if i > 0 {
						flush()
					}
					cur = append(cur, fieldPart{quote: true, val: e})
				}
				continue
			}
			allowEmpty = true
			for _, p := range c.wordField(x.Parts, true) {
				p.quote = true
				cur = append(cur, p)
			}
		case *ast.ParamExp:
			splitAdd(c.paramExp(x))
		case *ast.CmdSubst:
			splitAdd(c.cmdSubst(x))
		case *ast.ArithmExp:
			n, err := c.Arithm(x.X)
			if err != nil {
				c.err(err)
			}
			cur = append(cur, fieldPart{val: strconv.FormatInt(n, 10)})
		default:
			panic(fmt.Sprintf("expand: unhandled word part %T", x))
		}
	}
	flush()
	if allowEmpty && len(fields) == 0 {
		fields = append(fields, cur)
	}
	return fields
}

// quotedParamElems recognizes a double-quoted word consisting of
// exactly "$@" (short or braced), which expands to one field per
// positional parameter instead of the usual IFS-joined single field.
func (c *Context) quotedParamElems(dq *ast.DblQuoted) ([]string, bool) {
	if len(dq.Parts) != 1 {
		return nil, false
	}
	pe, ok := dq.Parts[0].(*ast.ParamExp)
	if !ok || pe.Length || pe.Switch != nil || pe.Trim != nil {
		return nil, false
	}
	if pe.Param.Value != "@" {
		return nil, false
	}
	if len(c.Positional) == 0 {
		return []string{}, true
	}
	return c.Positional, true
}

func (c *Context) cmdSubst(cs *ast.CmdSubst) string {
	if c.Subshell == nil {
		return ""
	}
	out := c.Subshell(cs.Stmts)
	return strings.TrimRight(out, "\n")
}

// expandTilde applies tilde expansion's followed_by_slash rule: a
// leading "~" (optionally followed by a login name) up to the first
// "/" is replaced by that user's home directory, trimming a trailing
// "/" off the home directory when rest also starts with "/" (so
// "~/foo" with HOME="/home/bob/" expands to "/home/bob/foo", not
// "/home/bob//foo"). An unresolvable tilde-prefix (HOME unset, or an
// unknown login name) returns the original text unchanged, so it
// still occupies a field of its own. HOME explicitly set to the empty
// string is different from HOME being unset: it expands to nothing,
// reported via quoted=true so the caller can keep the resulting empty
// field alive as a zero-width part instead of it reading as absent,
// the same unset-vs-assigned-empty distinction "${x:=}" makes.
func (c *Context) expandTilde(s string) (text string, quoted bool) {
	if len(s) == 0 || s[0] != '~' {
		return s, false
	}
	name := s[1:]
	rest := ""
	if i := strings.IndexByte(name, '/'); i >= 0 {
		rest = name[i:]
		name = name[:i]
	}
	if name == "" {
		home := c.Env.Get("HOME")
		if !home.IsSet() {
			return s, false
		}
		joined := joinHome(home.Str, rest)
		return joined, joined == ""
	}
	u, err := user.Lookup(name)
	if err != nil {
		return s, false
	}
	joined := joinHome(u.HomeDir, rest)
	return joined, joined == ""
}

// joinHome concatenates a tilde expansion's home directory with the
// remainder of the word, dropping home's trailing "/" when rest
// starts with one of its own.
func joinHome(home, rest string) string {
	if rest != "" && strings.HasSuffix(home, "/") && strings.HasPrefix(rest, "/") {
		home = home[:len(home)-1]
	}
	return home + rest
}

func unescapeLit(s string, dq bool) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b != '\\' || i+1 >= len(s) {
			sb.WriteByte(b)
			continue
		}
		next := s[i+1]
		if dq {
			switch next {
			case '\n':
				i++
				continue
			case '"', '\\', '$', '`':
				i++
				sb.WriteByte(next)
				continue
			}
			sb.WriteByte(b)
			continue
		}
		i++
		sb.WriteByte(next)
	}
	return sb.String()
}

func (c *Context) glob(path string) []string {
	parts := strings.Split(path, string(filepath.Separator))
	matches := []string{"."}
	if filepath.IsAbs(path) {
		matches[0] = string(filepath.Separator)
		parts = parts[1:]
	}
	for _, part := range parts {
		if part == "" {
			continue
		}
		match, err := compilePattern(part)
		if err != nil {
			return nil
		}
		var next []string
		for _, dir := range matches {
			next = c.globDir(dir, part, match, next)
		}
		matches = next
	}
	return matches
}

func compilePattern(part string) (func(string) bool, error) {
	if !pattern.HasMeta(part) {
		return func(s string) bool { return s == part }, nil
	}
	expr, err := pattern.Regexp(part, pattern.EntireString)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return re.MatchString, nil
}

func (c *Context) globDir(dir, part string, match func(string) bool, matches []string) []string {
	entries, err := c.readDir(dir)
	if err != nil {
		return matches
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(part, ".") {
			continue
		}
		if match(name) {
			matches = append(matches, filepath.Join(dir, name))
		}
	}
	return matches
}
