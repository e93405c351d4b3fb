package ast

// Visitor holds a Visit method invoked for each node encountered by
// Walk. If the returned visitor w is not nil, Walk visits each child of
// node with w, followed by a call of w.Visit(nil).
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order, following ast.Visitor's
// familiar go/ast shape, trimmed to this package's POSIX node set.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}

	switch x := node.(type) {
	case *File:
		walkStmts(v, x.Stmts)
	case *Stmt:
		if x.Cmd != nil {
			Walk(v, x.Cmd)
		}
		for _, a := range x.Assigns {
			Walk(v, a)
		}
		for _, r := range x.Redirs {
			Walk(v, r)
		}
	case *Assign:
		if x.Name != nil {
			Walk(v, x.Name)
		}
		Walk(v, &x.Value)
	case *Redirect:
		if x.N != nil {
			Walk(v, x.N)
		}
		Walk(v, &x.Word)
		if len(x.Hdoc.Parts) > 0 {
			Walk(v, &x.Hdoc)
		}
	case *CallExpr:
		walkWords(v, x.Args)
	case *Subshell:
		walkStmts(v, x.Stmts)
	case *Block:
		walkStmts(v, x.Stmts)
	case *IfClause:
		walkStmts(v, x.CondStmts)
		walkStmts(v, x.ThenStmts)
		for _, el := range x.Elifs {
			walkStmts(v, el.CondStmts)
			walkStmts(v, el.ThenStmts)
		}
		walkStmts(v, x.ElseStmts)
	case *WhileClause:
		walkStmts(v, x.CondStmts)
		walkStmts(v, x.DoStmts)
	case *ForClause:
		Walk(v, &x.Name)
		walkWords(v, x.Items)
		walkStmts(v, x.DoStmts)
	case *BinaryCmd:
		Walk(v, x.X)
		Walk(v, x.Y)
	case *FuncDecl:
		Walk(v, &x.Name)
		Walk(v, x.Body)
	case *Word:
		for _, wp := range x.Parts {
			Walk(v, wp)
		}
	case *Lit:
	case *SglQuoted:
	case *DblQuoted:
		for _, wp := range x.Parts {
			Walk(v, wp)
		}
	case *ParamExp:
		Walk(v, &x.Param)
		if x.Switch != nil {
			Walk(v, &x.Switch.Word)
		}
		if x.Trim != nil {
			Walk(v, &x.Trim.Word)
		}
	case *CmdSubst:
		walkStmts(v, x.Stmts)
	case *ArithmExp:
		Walk(v, x.X)
	case *BinaryArithm:
		Walk(v, x.X)
		Walk(v, x.Y)
	case *UnaryArithm:
		Walk(v, x.X)
	case *TernaryArithm:
		Walk(v, x.Cond)
		Walk(v, x.Then)
		Walk(v, x.Else)
	case *ParenArithm:
		Walk(v, x.X)
	case *WordArithm:
		Walk(v, &x.W)
	case *CaseClause:
		Walk(v, &x.Word)
		for _, item := range x.Items {
			walkWords(v, item.Patterns)
			walkStmts(v, item.Stmts)
		}
	default:
		panic("ast.Walk: unexpected node type")
	}

	v.Visit(nil)
}

func walkStmts(v Visitor, stmts []*Stmt) {
	for _, s := range stmts {
		Walk(v, s)
	}
}

func walkWords(v Visitor, words []Word) {
	for i := range words {
		Walk(v, &words[i])
	}
}
