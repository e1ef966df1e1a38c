package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type missingThing struct{ name string }

func (e *missingThing) Error() string           { return "missing " + e.name }
func (e *missingThing) Category() ErrorCategory { return CategoryNotFound }

func TestClassifiedError_ErrorIncludesCategoryAndCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := WrapError(cause, CategoryFileSystem, "write artifact").WithContext("path", "/x").Build()

	require.Equal(t, "[filesystem:error] write artifact: boom", err.Error())
	require.ErrorIs(t, err, cause)
	v, ok := err.Context().GetString("path")
	require.True(t, ok)
	require.Equal(t, "/x", v)
}

func TestGetCategory_TypedErrorThroughWrapping(t *testing.T) {
	err := fmt.Errorf("lookup: %w", &missingThing{name: "/docs"})
	assert.Equal(t, CategoryNotFound, GetCategory(err))
	assert.True(t, HasCategory(err, CategoryNotFound))
	assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
	assert.Equal(t, ErrorCategory(""), GetCategory(nil))
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{ConfigError("bad").Build(), 7},
		{NewError(CategoryScan, "missing root").Build(), 9},
		{NewError(CategoryCompile, "syntax").Build(), 11},
		{&missingThing{name: "x"}, 3},
		{stderrors.New("x"), 10},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, a.ExitCodeFor(tc.err), "%v", tc.err)
	}
}

func TestCLIErrorAdapter_ReportWritesMessage(t *testing.T) {
	var buf bytes.Buffer
	a := NewCLIErrorAdapter(false, nil)
	code := a.Report(&buf, NewError(CategoryRoute, "duplicate route").Build())
	require.Equal(t, 9, code)
	require.Contains(t, buf.String(), "duplicate route")
}

func TestHTTPErrorAdapter_NotFoundIs404(t *testing.T) {
	a := NewHTTPErrorAdapter(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/pages/x", nil)
	a.WriteErrorResponse(rec, req, &missingThing{name: "x"})

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"category":"not_found"`)
}
