package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyllinesoft/valknut/internal/types"
)

func TestParseErrorUnwrap(t *testing.T) {
	underlying := errors.New("unexpected token")
	err := NewParseError("main.go", 12, 4, underlying)

	require.ErrorIs(t, err, underlying)
	assert.Contains(t, err.Error(), "main.go:12:4")
	assert.Contains(t, err.Error(), "unparseable")
}

func TestExtractorErrorMentionsEntity(t *testing.T) {
	err := NewExtractorError("complexity", types.EntityID("main.go:function:foo"), errors.New("nil node"))
	assert.Contains(t, err.Error(), "main.go:function:foo")
	assert.Contains(t, err.Error(), "complexity")
}

func TestTimeoutErrorFormats(t *testing.T) {
	err := NewTimeoutError("big.go", 30*time.Second)
	assert.Equal(t, "timeout: big.go exceeded soft budget 30s (raise analysis.files soft timeout or split the file)", err.Error())
}

func TestMultiErrorFiltersNil(t *testing.T) {
	me := NewMultiError([]error{nil, errors.New("a"), nil, errors.New("b")})
	assert.Len(t, me.Errors, 2)
	assert.True(t, me.HasErrors())
	assert.Contains(t, me.Error(), "2 errors")
}

func TestMultiErrorEmpty(t *testing.T) {
	me := NewMultiError(nil)
	assert.False(t, me.HasErrors())
	assert.Equal(t, "no errors", me.Error())
}

func TestCalibrationNonConvergenceMessage(t *testing.T) {
	err := NewCalibrationNonConvergence(6, 0.82, 9.4)
	assert.Contains(t, err.Error(), "6 iterations")
	assert.Contains(t, err.Error(), "falling back to defaults")
}
