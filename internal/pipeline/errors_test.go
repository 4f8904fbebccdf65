package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("message formatting", func(t *testing.T) {
		e := NewError(KindTimeout, "mvn exceeded 5m0s")
		assert.Equal(t, "timeout: mvn exceeded 5m0s", e.Error())
	})

	t.Run("diagnostic included in message", func(t *testing.T) {
		e := NewError(KindResolutionFailed, "mvn exited 1").WithDiagnostic("BUILD FAILURE")
		assert.Contains(t, e.Error(), "BUILD FAILURE")
	})

	t.Run("WithDiagnostic does not mutate the receiver", func(t *testing.T) {
		base := NewError(KindResolutionFailed, "mvn exited 1")
		_ = base.WithDiagnostic("stderr text")
		assert.Empty(t, base.Diagnostic)
	})

	t.Run("diagnostic survives JSON round trip", func(t *testing.T) {
		e := Errorf(KindNetworkUnavailable, "cannot reach %s", "repo1.maven.org").
			WithDiagnostic("UnknownHostException")
		raw, err := json.Marshal(e)
		require.NoError(t, err)

		var got Error
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, KindNetworkUnavailable, got.Kind)
		assert.Equal(t, "UnknownHostException", got.Diagnostic)
	})
}

func TestAsError(t *testing.T) {
	t.Run("unwraps through fmt wrapping", func(t *testing.T) {
		inner := NewError(KindArchiveUnreadable, "open foo.jar")
		wrapped := fmt.Errorf("scanning: %w", inner)
		got := AsError(wrapped)
		assert.Equal(t, KindArchiveUnreadable, got.Kind)
		assert.Equal(t, "open foo.jar", got.Message)
	})

	t.Run("plain errors become internal", func(t *testing.T) {
		got := AsError(errors.New("boom"))
		assert.Equal(t, KindInternal, got.Kind)
		assert.Equal(t, "boom", got.Message)
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(NewError(KindValidation, "bad")))
	assert.Equal(t, KindInternal, KindOf(errors.New("opaque")))
}
