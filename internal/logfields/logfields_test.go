package logfields

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocale_EmptyRendersDefault(t *testing.T) {
	require.Equal(t, "_default", Locale("").Value.String())
	require.Equal(t, "de", Locale("de").Value.String())
}

func TestDuration_Milliseconds(t *testing.T) {
	a := Duration(1500 * time.Microsecond)
	require.Equal(t, KeyDurationMS, a.Key)
	require.InDelta(t, 1.5, a.Value.Float64(), 0.0001)
}

func TestError_NilIsEmpty(t *testing.T) {
	require.Empty(t, Error(nil).Value.String())
	require.Equal(t, "x", Error(errors.New("x")).Value.String())
}
