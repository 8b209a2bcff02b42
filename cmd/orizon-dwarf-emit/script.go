package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/orizon-lang/orizon-debuginfo/internal/debug"
	"github.com/orizon-lang/orizon-debuginfo/internal/position"
)

// freeOp is one "free" line: a previously committed declaration to release.
type freeOp struct {
	kind debug.DeclKind
	name string
}

// textRange is the optional "textrange" line, forwarded to Emitter.Finalize.
type textRange struct {
	lowPC uint64
	size  uint64
	set   bool
}

// scriptOp is one replayable step: either a commit (func/var line) or a
// free. Kept as a single ordered slice, rather than separate decl/free
// slices, so CommitDecl/FreeDecl calls replay in exactly the order the
// script names them — a later "free" can undo an earlier "func" before a
// same-named "func" commits again.
type scriptOp struct {
	commit *debug.DeclDesc
	free   *freeOp
}

// program is everything a declaration script describes, ready to replay
// against an Emitter in source order.
type program struct {
	ops       []scriptOp
	errorSet  debug.ErrorSetDesc
	textRange textRange
}

// parseScript reads a declaration script from r, reporting every malformed
// line against diag instead of stopping at the first one, so a caller sees
// the full set of mistakes in one pass. filename is used only for
// diagnostic positions.
//
// Grammar, one directive per line, blank lines and "#"-prefixed comments
// ignored:
//
//	func <name> ret=<type|void> open=<line> close=<line> [param=<name>:<type> ...]
//	var <name> type=<type>
//	errorset <name>=<value>
//	free func|var <name>
//	textrange lowpc=<addr> size=<bytes>
func parseScript(r io.Reader, filename string, diag *position.Diagnostic) *program {
	p := &program{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++

		raw := scanner.Text()

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pos := position.Position{Filename: filename, Line: lineNo, Column: 1, Offset: 0}

		fields := strings.Fields(line)

		switch fields[0] {
		case "func":
			parseFunc(fields[1:], pos, diag, p)
		case "var":
			parseVar(fields[1:], pos, diag, p)
		case "errorset":
			parseErrorSet(fields[1:], pos, diag, p)
		case "free":
			parseFree(fields[1:], pos, diag, p)
		case "textrange":
			parseTextRange(fields[1:], pos, diag, p)
		default:
			diag.AddError(pos, "syntax", fmt.Sprintf("unknown directive %q", fields[0]))
		}
	}

	if err := scanner.Err(); err != nil {
		diag.AddError(position.Position{Filename: filename, Line: lineNo, Column: 1}, "io", err.Error())
	}

	return p
}

// kv splits "key=value" tokens into a map, reporting any token missing the
// separator.
func kv(tokens []string, pos position.Position, diag *position.Diagnostic) map[string]string {
	m := make(map[string]string, len(tokens))

	for _, tok := range tokens {
		i := strings.IndexByte(tok, '=')
		if i < 0 {
			diag.AddError(pos, "syntax", fmt.Sprintf("expected key=value, got %q", tok))

			continue
		}

		m[tok[:i]] = tok[i+1:]
	}

	return m
}

func parseUint(s string, field string, pos position.Position, diag *position.Diagnostic) uint64 {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		diag.AddError(pos, "syntax", fmt.Sprintf("%s: invalid integer %q", field, s))
	}

	return v
}

func parseInt(s string, field string, pos position.Position, diag *position.Diagnostic) int64 {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		diag.AddError(pos, "syntax", fmt.Sprintf("%s: invalid integer %q", field, s))
	}

	return v
}

func parseFunc(fields []string, pos position.Position, diag *position.Diagnostic, p *program) {
	if len(fields) < 1 {
		diag.AddError(pos, "syntax", "func: missing name")

		return
	}

	name := fields[0]
	m := kv(fields[1:], pos, diag)

	retName, ok := m["ret"]
	if !ok {
		retName = "void"
	}

	retType, err := builtinType(retName)
	if err != nil {
		diag.AddError(pos, "type", fmt.Sprintf("func %s: %s", name, err))

		return
	}

	d := debug.DeclDesc{
		Kind:           debug.DeclFunction,
		Name:           name,
		ReturnType:     retType,
		HasRuntimeBits: retType != nil,
		Body: debug.FuncBody{
			OpeningBraceLine: parseInt(m["open"], "open", pos, diag),
			ClosingBraceLine: parseInt(m["close"], "close", pos, diag),
		},
	}

	for _, tok := range fields[1:] {
		val, ok := strings.CutPrefix(tok, "param=")
		if !ok {
			continue
		}

		i := strings.IndexByte(val, ':')
		if i < 0 {
			diag.AddError(pos, "syntax", fmt.Sprintf("func %s: param %q missing ':type'", name, val))

			continue
		}

		pt, err := builtinType(val[i+1:])
		if err != nil {
			diag.AddError(pos, "type", fmt.Sprintf("func %s: %s", name, err))

			continue
		}

		d.Params = append(d.Params, debug.ParamDesc{Name: val[:i], Type: pt})
	}

	p.ops = append(p.ops, scriptOp{commit: &d})
}

func parseVar(fields []string, pos position.Position, diag *position.Diagnostic, p *program) {
	if len(fields) < 1 {
		diag.AddError(pos, "syntax", "var: missing name")

		return
	}

	name := fields[0]
	m := kv(fields[1:], pos, diag)

	typeName, ok := m["type"]
	if !ok {
		diag.AddError(pos, "syntax", fmt.Sprintf("var %s: missing type=", name))

		return
	}

	t, err := builtinType(typeName)
	if err != nil {
		diag.AddError(pos, "type", fmt.Sprintf("var %s: %s", name, err))

		return
	}

	d := debug.DeclDesc{
		Kind:           debug.DeclGlobalVariable,
		Name:           name,
		ReturnType:     t,
		HasRuntimeBits: t != nil,
	}
	p.ops = append(p.ops, scriptOp{commit: &d})
}

func parseErrorSet(fields []string, pos position.Position, diag *position.Diagnostic, p *program) {
	if len(fields) != 1 {
		diag.AddError(pos, "syntax", "errorset: expected a single name=value token")

		return
	}

	i := strings.IndexByte(fields[0], '=')
	if i < 0 {
		diag.AddError(pos, "syntax", fmt.Sprintf("errorset: expected name=value, got %q", fields[0]))

		return
	}

	name := fields[0][:i]
	value := parseUint(fields[0][i+1:], "errorset value", pos, diag)

	p.errorSet.Members = append(p.errorSet.Members, debug.VariantDesc{Name: name, Value: value, HasValue: true})

	if p.errorSet.ABISize == 0 {
		p.errorSet.ABISize = 8
	}
}

func parseFree(fields []string, pos position.Position, diag *position.Diagnostic, p *program) {
	if len(fields) != 2 {
		diag.AddError(pos, "syntax", "free: expected 'func <name>' or 'var <name>'")

		return
	}

	var kind debug.DeclKind

	switch fields[0] {
	case "func":
		kind = debug.DeclFunction
	case "var":
		kind = debug.DeclGlobalVariable
	default:
		diag.AddError(pos, "syntax", fmt.Sprintf("free: expected 'func' or 'var', got %q", fields[0]))

		return
	}

	p.ops = append(p.ops, scriptOp{free: &freeOp{kind: kind, name: fields[1]}})
}

func parseTextRange(fields []string, pos position.Position, diag *position.Diagnostic, p *program) {
	m := kv(fields, pos, diag)

	lowpc, ok := m["lowpc"]
	if !ok {
		diag.AddError(pos, "syntax", "textrange: missing lowpc=")

		return
	}

	size, ok := m["size"]
	if !ok {
		diag.AddError(pos, "syntax", "textrange: missing size=")

		return
	}

	p.textRange = textRange{
		lowPC: parseUint(lowpc, "lowpc", pos, diag),
		size:  parseUint(size, "size", pos, diag),
		set:   true,
	}
}
