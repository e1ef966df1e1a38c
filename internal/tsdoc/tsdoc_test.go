package tsdoc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagecompiler/internal/compile"
	ferrors "git.home.luguber.info/inful/pagecompiler/internal/foundation/errors"
)

func generate(t *testing.T, args Args) *Definition {
	t.Helper()
	def, err := Generate(context.Background(), args)
	require.NoError(t, err)
	return def
}

func TestInterfaceFieldsInDeclarationOrder(t *testing.T) {
	def := generate(t, Args{Code: `
export interface Point {
  x: number
  y?: string
}
`, ExportName: "Point"})

	require.Len(t, def.Entries, 2)
	assert.Equal(t, TypeField{Name: "x", Type: "number"}, def.Entries[0])
	assert.Equal(t, TypeField{Name: "y", Type: "string", Optional: true}, def.Entries[1])
	assert.False(t, def.IsFunction())
}

func TestDefaultExportByIdentifier(t *testing.T) {
	def := generate(t, Args{Code: `
/** Card properties. */
type CardProps = {
  title: string
}
export default CardProps
`, FilePath: "card.ts"})

	assert.Equal(t, "CardProps", def.Name)
	assert.Equal(t, "Card properties.", def.Description)
	assert.Equal(t, "card.ts", def.FilePath)
	require.Len(t, def.Entries, 1)
	assert.Equal(t, "title", def.Entries[0].Name)
}

func TestFieldDocTags(t *testing.T) {
	def := generate(t, Args{Code: `
export interface Config {
  /**
   * The theme color.
   * @default "blue"
   */
  color?: string
  /** @deprecated use color */
  colour?: string
  /**
   * @remarks ` + "`Record<string, Item>`" + `
   */
  items: object
}
`, ExportName: "Config"})

	require.Len(t, def.Entries, 3)
	color := def.Entries[0]
	assert.Equal(t, "The theme color.", color.Description)
	assert.Equal(t, `"blue"`, color.Default())
	assert.True(t, color.Optional)

	assert.Equal(t, "use color", def.Entries[1].Tags["deprecated"])
	assert.Equal(t, "Record<string, Item>", def.Entries[2].Type)
}

func TestFlattenedNestedFields(t *testing.T) {
	code := `
export interface Options {
  /** Server settings. */
  server: {
    host: string
    port?: number
  }
  debug: boolean
}
`
	flat := generate(t, Args{Code: code, ExportName: "Options", Flattened: true})
	var names []string
	for _, f := range flat.Entries {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"server.host", "server.port", "debug"}, names)
	assert.True(t, flat.Entries[1].Optional)

	nested := generate(t, Args{Code: code, ExportName: "Options"})
	require.Len(t, nested.Entries, 2)
	assert.Equal(t, "{ host: string port?: number }", nested.Entries[0].Type)
	assert.Equal(t, "Server settings.", nested.Entries[0].Description)
}

func TestIntersectionOfLocalTypes(t *testing.T) {
	def := generate(t, Args{Code: `
type Base = { id: string }
interface Extra { label?: string }
export type Props = Base & Extra & { onClick: () => void }
`, ExportName: "Props"})

	require.Len(t, def.Entries, 3)
	assert.Equal(t, "id", def.Entries[0].Name)
	assert.Equal(t, "label", def.Entries[1].Name)
	assert.True(t, def.Entries[1].Optional)
	assert.Equal(t, "onClick", def.Entries[2].Name)
	assert.Equal(t, "() => void", def.Entries[2].Type)
}

func TestFunctionDocumentation(t *testing.T) {
	def := generate(t, Args{Code: `
/**
 * Adds numbers.
 * @param a - first operand
 * @returns the sum
 */
export function sum(a: number, b: number): number {
  return a + b
}
`, ExportName: "sum"})

	require.True(t, def.IsFunction())
	assert.Equal(t, "Adds numbers.", def.Description)
	require.Len(t, def.Signatures, 1)
	sig := def.Signatures[0]
	require.Len(t, sig.Params, 2)
	assert.Equal(t, "first operand", sig.Params[0].Description)
	assert.Equal(t, "number", sig.Params[1].Type)
	assert.Equal(t, Returns{Type: "number", Description: "the sum"}, sig.Returns)
}

func TestFunctionOverloads(t *testing.T) {
	def := generate(t, Args{Code: `
/** Formats a value. */
export function format(value: string): string;
export function format(value: number, digits?: number): string;
export function format(value: any, digits?: number): string {
  return String(value)
}
`, ExportName: "format"})

	require.Len(t, def.Signatures, 2)
	assert.Equal(t, "Formats a value.", def.Description)
	assert.Len(t, def.Signatures[0].Params, 1)
	require.Len(t, def.Signatures[1].Params, 2)
	assert.True(t, def.Signatures[1].Params[1].Optional)
}

func TestArrowFunctionWithoutReturnType(t *testing.T) {
	def := generate(t, Args{Code: `export const add = (a: number, b = 2) => a + b`, ExportName: "add"})

	require.Len(t, def.Signatures, 1)
	sig := def.Signatures[0]
	require.Len(t, sig.Params, 2)
	assert.True(t, sig.Params[1].Optional)
	assert.Equal(t, "2", sig.Params[1].Default())
	assert.Equal(t, "unknown", sig.Returns.Type)
}

func TestObjectReturnFields(t *testing.T) {
	def := generate(t, Args{Code: `
export function origin(): { x: number; y: number } {
  return { x: 0, y: 0 }
}
`, ExportName: "origin"})

	require.Len(t, def.Signatures, 1)
	ret := def.Signatures[0].Returns
	assert.Empty(t, ret.Type)
	require.Len(t, ret.Fields, 2)
	assert.Equal(t, "y", ret.Fields[1].Name)
}

func TestUndefinedExport(t *testing.T) {
	_, err := Generate(context.Background(), Args{Code: `export interface A { x: number }`, ExportName: "B", FilePath: "a.ts"})
	var ue *UndefinedExportError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "B", ue.Export)
	assert.Equal(t, "a.ts", ue.File)
	assert.Equal(t, ferrors.CategoryExtract, ferrors.GetCategory(err))

	_, err = Generate(context.Background(), Args{Code: `export interface A { x: number }`})
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "default", ue.Export)
}

func TestParseDocComment(t *testing.T) {
	doc := parseDocComment(`/**
 * Main text
 * continues here.
 * @param {string} [name=x] - the name
 * @return nothing
 * @description explicit
 */`)
	assert.Equal(t, "Main text\ncontinues here.", doc.Description)
	assert.Equal(t, "the name", doc.Params["name"])
	assert.Equal(t, "nothing", doc.Tags["returns"])
	assert.Equal(t, "explicit", doc.Tags["description"])

	assert.Equal(t, docComment{}, parseDocComment("// plain comment"))
}

type bracketRenderer struct{}

func (bracketRenderer) RenderMarkdown(_ context.Context, text string) (string, error) {
	return "<p>" + text + "</p>", nil
}

func TestRenderFieldsTable(t *testing.T) {
	def := &Definition{Entries: []TypeField{
		{Name: "items", Type: "Record<string, Item>", Description: "All items."},
		{Name: "color", Type: "string", Optional: true, Tags: Tags{"default": `"blue"`}},
		{Name: "colour", Type: "string", Tags: Tags{"deprecated": "use color"}},
	}}
	out, err := RenderTable(context.Background(), def, bracketRenderer{}, RenderOptions{
		TypeLinkMap: map[string]string{"Item": "/docs/item"},
	})
	require.NoError(t, err)

	assert.Contains(t, out, `Record&lt;string, <a href="/docs/item">Item</a>&gt;`)
	assert.Contains(t, out, `<tr id="items">`)
	assert.Contains(t, out, `<code>color?</code>`)
	assert.Contains(t, out, `<code>&#34;blue&#34;</code>`)
	assert.Contains(t, out, `<p>**Deprecated**: use color</p>`)
	assert.Contains(t, out, `<p>All items.</p>`)
}

func TestRenderSignatures(t *testing.T) {
	def := &Definition{Signatures: []Signature{
		{Params: []TypeField{}, Returns: Returns{Type: "void"}},
		{Params: []TypeField{{Name: "a", Type: "number"}}, Returns: Returns{Type: "string", Description: "text"}},
	}}
	out, err := RenderTable(context.Background(), def, bracketRenderer{}, RenderOptions{})
	require.NoError(t, err)

	assert.Contains(t, out, "Function Signature 1")
	assert.Contains(t, out, "Function Signature 2")
	assert.Contains(t, out, "does not accept any parameters")
	assert.Contains(t, out, `<div id="returns2"`)
	assert.Contains(t, out, `<div><p>text</p></div>`)
}

func TestRenderWithCompiler(t *testing.T) {
	def := &Definition{Entries: []TypeField{{Name: "a", Type: "string", Description: "**strong**"}}}
	out, err := RenderTable(context.Background(), def, compile.New(compile.Options{}), RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>strong</strong>")
}
