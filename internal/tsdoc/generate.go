package tsdoc

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// maxDepth bounds reference following for recursive types.
const maxDepth = 8

// GenerateFile reads a TypeScript file and extracts one of its exports.
func GenerateFile(ctx context.Context, path, exportName string, flattened bool) (*Definition, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Generate(ctx, Args{Code: string(code), ExportName: exportName, Flattened: flattened, FilePath: path})
}

// Generate extracts the definition of one export from TypeScript source.
func Generate(ctx context.Context, args Args) (*Definition, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(typescript.GetLanguage())

	code := []byte(args.Code)
	tree, err := parser.ParseCtx(ctx, nil, code)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", args.FilePath, err)
	}
	defer tree.Close()

	s := newSource(tree.RootNode(), code, args.Flattened)
	name := args.exportName()
	local, nodes := s.resolveExport(name)
	if len(nodes) == 0 {
		return nil, &UndefinedExportError{Export: name, File: args.FilePath}
	}

	def, err := s.define(local, nodes)
	if err != nil {
		return nil, fmt.Errorf("export %q in %s: %w", name, args.FilePath, err)
	}
	def.FilePath = args.FilePath
	return def, nil
}

type source struct {
	code      []byte
	flattened bool
	// decls maps a local name to its declarations; overloads repeat.
	decls map[string][]*sitter.Node
	// exports maps an exported name to a local name.
	exports map[string]string
	// anonymous holds exports without a local name, such as
	// `export default function () {}`.
	anonymous map[string]*sitter.Node
}

func newSource(root *sitter.Node, code []byte, flattened bool) *source {
	s := &source{
		code:      code,
		flattened: flattened,
		decls:     map[string][]*sitter.Node{},
		exports:   map[string]string{},
		anonymous: map[string]*sitter.Node{},
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "export_statement":
			s.indexExport(n)
		default:
			s.indexDeclaration(n)
		}
	}
	return s
}

func (s *source) indexDeclaration(n *sitter.Node) []string {
	switch n.Type() {
	case "interface_declaration", "type_alias_declaration", "function_declaration",
		"function_signature", "generator_function_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			local := name.Content(s.code)
			s.decls[local] = append(s.decls[local], n)
			return []string{local}
		}
	case "lexical_declaration", "variable_declaration":
		var names []string
		for i := 0; i < int(n.NamedChildCount()); i++ {
			d := n.NamedChild(i)
			if d.Type() != "variable_declarator" {
				continue
			}
			if name := d.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
				local := name.Content(s.code)
				s.decls[local] = append(s.decls[local], d)
				names = append(names, local)
			}
		}
		return names
	}
	return nil
}

func (s *source) indexExport(n *sitter.Node) {
	isDefault := false
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "default" {
			isDefault = true
			break
		}
	}

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		names := s.indexDeclaration(decl)
		switch {
		case isDefault && len(names) > 0:
			s.exports["default"] = names[0]
		case isDefault:
			s.anonymous["default"] = decl
		default:
			for _, name := range names {
				s.exports[name] = name
			}
		}
		return
	}

	if value := n.ChildByFieldName("value"); value != nil && isDefault {
		if value.Type() == "identifier" {
			s.exports["default"] = value.Content(s.code)
		} else {
			s.anonymous["default"] = value
		}
		return
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "export_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			spec := clause.NamedChild(j)
			if spec.Type() != "export_specifier" {
				continue
			}
			name := spec.ChildByFieldName("name")
			if name == nil {
				continue
			}
			exported := name.Content(s.code)
			if alias := spec.ChildByFieldName("alias"); alias != nil {
				exported = alias.Content(s.code)
			}
			s.exports[exported] = name.Content(s.code)
		}
	}
}

func (s *source) resolveExport(name string) (string, []*sitter.Node) {
	if n, ok := s.anonymous[name]; ok {
		return name, []*sitter.Node{n}
	}
	local, ok := s.exports[name]
	if !ok {
		return name, nil
	}
	return local, s.decls[local]
}

func (s *source) define(name string, nodes []*sitter.Node) (*Definition, error) {
	def := &Definition{Name: name}
	doc := s.docFor(nodes[0])
	def.Description = doc.description()
	def.Tags = doc.Tags

	if sigs, ok, err := s.signatures(nodes); ok {
		if err != nil {
			return nil, err
		}
		def.Signatures = sigs
		return def, nil
	}

	entries, err := s.fields(nodes[0], "", 0)
	if err != nil {
		return nil, err
	}
	def.Entries = entries
	return def, nil
}

// signatures returns ok=false when nodes are not function-like. Overload
// signatures hide the implementation signature.
func (s *source) signatures(nodes []*sitter.Node) ([]Signature, bool, error) {
	var overloads, impls []*sitter.Node
	for _, n := range nodes {
		switch fn := s.functionNode(n); {
		case fn == nil:
		case fn.Type() == "function_signature":
			overloads = append(overloads, n)
		default:
			impls = append(impls, n)
		}
	}
	list := overloads
	if len(list) == 0 {
		list = impls
	}
	if len(list) == 0 {
		return nil, false, nil
	}

	sigs := make([]Signature, 0, len(list))
	for _, n := range list {
		fn := s.functionNode(n)
		sig, err := s.signature(fn, s.docFor(n))
		if err != nil {
			return nil, true, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, true, nil
}

// functionNode returns the node holding parameters and return type.
func (s *source) functionNode(n *sitter.Node) *sitter.Node {
	switch n.Type() {
	case "function_declaration", "function_signature", "generator_function_declaration",
		"function_expression", "function", "arrow_function", "function_type":
		return n
	case "variable_declarator":
		if v := n.ChildByFieldName("value"); v != nil {
			return s.functionNode(v)
		}
	case "type_alias_declaration":
		if v := n.ChildByFieldName("value"); v != nil && v.Type() == "function_type" {
			return v
		}
	case "parenthesized_expression":
		if n.NamedChildCount() > 0 {
			return s.functionNode(n.NamedChild(0))
		}
	}
	return nil
}

func (s *source) signature(fn *sitter.Node, doc docComment) (Signature, error) {
	sig := Signature{Params: []TypeField{}}

	if params := fn.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			if p.Type() != "required_parameter" && p.Type() != "optional_parameter" {
				continue
			}
			fields, err := s.param(p, doc)
			if err != nil {
				return sig, err
			}
			sig.Params = append(sig.Params, fields...)
		}
	} else if p := fn.ChildByFieldName("parameter"); p != nil {
		name := p.Content(s.code)
		sig.Params = append(sig.Params, TypeField{Name: name, Type: "any", Description: doc.Params[name]})
	}

	sig.Returns.Description = doc.Tags["returns"]
	ret := unwrapAnnotation(fn.ChildByFieldName("return_type"))
	switch {
	case ret == nil:
		sig.Returns.Type = "unknown"
	case s.isObjectShape(ret, 0):
		fields, err := s.fields(ret, "", 0)
		if err != nil {
			return sig, err
		}
		sig.Returns.Fields = fields
	default:
		sig.Returns.Type = s.text(ret)
	}
	return sig, nil
}

func (s *source) param(p *sitter.Node, doc docComment) ([]TypeField, error) {
	pattern := p.ChildByFieldName("pattern")
	if pattern == nil {
		return nil, nil
	}
	name := s.text(pattern)
	if name == "this" {
		return nil, nil
	}
	field := TypeField{
		Name:        name,
		Type:        "any",
		Description: doc.Params[name],
		Optional:    p.Type() == "optional_parameter",
	}
	typ := unwrapAnnotation(p.ChildByFieldName("type"))
	if typ != nil {
		field.Type = s.text(typ)
	}
	if value := p.ChildByFieldName("value"); value != nil {
		field.Optional = true
		field.Tags = Tags{"default": s.text(value)}
	}
	if typ != nil && s.flattened && s.isObjectShape(typ, 0) {
		return s.fields(typ, name+".", 0)
	}
	return []TypeField{field}, nil
}

// fields enumerates the members of an object-like shape in declaration
// order.
func (s *source) fields(n *sitter.Node, prefix string, depth int) ([]TypeField, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: type nesting deeper than %d", ErrUnsupported, maxDepth)
	}
	switch n.Type() {
	case "interface_declaration":
		var out []TypeField
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() != "extends_type_clause" && c.Type() != "extends_clause" {
				continue
			}
			for j := 0; j < int(c.NamedChildCount()); j++ {
				base, err := s.fields(c.NamedChild(j), prefix, depth+1)
				if err != nil {
					return nil, err
				}
				out = append(out, base...)
			}
		}
		if body := n.ChildByFieldName("body"); body != nil {
			own, err := s.members(body, prefix, depth)
			if err != nil {
				return nil, err
			}
			out = append(out, own...)
		}
		return out, nil
	case "type_alias_declaration":
		if v := n.ChildByFieldName("value"); v != nil {
			return s.fields(v, prefix, depth)
		}
	case "object_type", "interface_body":
		return s.members(n, prefix, depth)
	case "intersection_type":
		var out []TypeField
		for i := 0; i < int(n.NamedChildCount()); i++ {
			part, err := s.fields(n.NamedChild(i), prefix, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, part...)
		}
		return out, nil
	case "parenthesized_type":
		if n.NamedChildCount() > 0 {
			return s.fields(n.NamedChild(0), prefix, depth)
		}
	case "type_identifier":
		if decl := s.localType(n.Content(s.code)); decl != nil {
			return s.fields(decl, prefix, depth+1)
		}
		return nil, fmt.Errorf("%w: type %s is not declared locally", ErrUnsupported, n.Content(s.code))
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, n.Type())
}

func (s *source) members(body *sitter.Node, prefix string, depth int) ([]TypeField, error) {
	var out []TypeField
	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)
		if m.Type() != "property_signature" && m.Type() != "method_signature" {
			continue
		}
		nameNode := m.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		doc := s.leadingDoc(m)
		field := TypeField{
			Name:        prefix + unquote(nameNode.Content(s.code)),
			Description: doc.description(),
			Optional:    hasChild(m, "?"),
			Tags:        doc.Tags,
		}

		var typ *sitter.Node
		if m.Type() == "method_signature" {
			field.Type = s.methodType(m)
		} else if typ = unwrapAnnotation(m.ChildByFieldName("type")); typ != nil {
			field.Type = s.text(typ)
		} else {
			field.Type = "any"
		}
		if override, ok := doc.typeOverride(); ok {
			field.Type = override
		} else if typ != nil && s.flattened && s.isObjectShape(typ, 0) {
			nested, err := s.fields(typ, field.Name+".", depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		out = append(out, field)
	}
	return out, nil
}

func (s *source) methodType(m *sitter.Node) string {
	params := "()"
	if p := m.ChildByFieldName("parameters"); p != nil {
		params = s.text(p)
	}
	ret := "unknown"
	if r := unwrapAnnotation(m.ChildByFieldName("return_type")); r != nil {
		ret = s.text(r)
	}
	return params + " => " + ret
}

// isObjectShape reports whether n documents as a field list.
func (s *source) isObjectShape(n *sitter.Node, depth int) bool {
	if n == nil || depth > maxDepth {
		return false
	}
	switch n.Type() {
	case "object_type", "interface_body", "interface_declaration":
		return true
	case "intersection_type":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if !s.isObjectShape(n.NamedChild(i), depth+1) {
				return false
			}
		}
		return n.NamedChildCount() > 0
	case "parenthesized_type":
		return n.NamedChildCount() > 0 && s.isObjectShape(n.NamedChild(0), depth+1)
	case "type_alias_declaration":
		return s.isObjectShape(n.ChildByFieldName("value"), depth+1)
	case "type_identifier":
		return s.isObjectShape(s.localType(n.Content(s.code)), depth+1)
	}
	return false
}

func (s *source) localType(name string) *sitter.Node {
	for _, d := range s.decls[name] {
		if t := d.Type(); t == "interface_declaration" || t == "type_alias_declaration" {
			return d
		}
	}
	return nil
}

// docFor returns the JSDoc block directly above a declaration, looking
// through its enclosing statements.
func (s *source) docFor(n *sitter.Node) docComment {
	stmt := n
	for p := stmt.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "lexical_declaration", "variable_declaration", "export_statement":
			stmt = p
			continue
		}
		break
	}
	return s.leadingDoc(stmt)
}

func (s *source) leadingDoc(n *sitter.Node) docComment {
	prev := n.PrevNamedSibling()
	if prev == nil || prev.Type() != "comment" {
		return docComment{}
	}
	if n.StartPoint().Row-prev.EndPoint().Row > 1 {
		return docComment{}
	}
	return parseDocComment(prev.Content(s.code))
}

var spaceRe = regexp.MustCompile(`\s+`)

func (s *source) text(n *sitter.Node) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(n.Content(s.code), " "))
}

func unwrapAnnotation(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "type_annotation", "opting_type_annotation", "omitting_type_annotation":
		if n.NamedChildCount() > 0 {
			return n.NamedChild(0)
		}
		return nil
	}
	return n
}

func hasChild(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == typ {
			return true
		}
	}
	return false
}

func unquote(name string) string {
	if len(name) >= 2 && (name[0] == '"' || name[0] == '\'') && name[len(name)-1] == name[0] {
		return name[1 : len(name)-1]
	}
	return name
}
