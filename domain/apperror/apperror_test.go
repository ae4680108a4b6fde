package apperror

import (
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	err := Store("audit.LogEvent", "database error", fmt.Errorf("connection refused"))
	assert.Equal(t, "audit.LogEvent [TRANSIENT_STORE] database error: connection refused", err.Error())

	plain := New(KindValidation, "", "bad input")
	assert.Equal(t, "VALIDATION bad input", plain.Error())
}

func TestError_IsMatchesKind(t *testing.T) {
	err := Index("search.IndexMessage", "index unavailable", nil)
	wrapped := pkgerrors.Wrap(err, "handler")

	assert.ErrorIs(t, wrapped, IndexUnavailable)
	assert.NotErrorIs(t, wrapped, TransientStore)
	assert.ErrorIs(t, wrapped, &Error{Kind: KindIndexUnavailable, Op: "search.IndexMessage"})
	assert.NotErrorIs(t, wrapped, &Error{Kind: KindIndexUnavailable, Op: "other"})
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Store("op", "database error", cause)
	assert.ErrorIs(t, err, cause)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"store", Store("op", "m", nil), KindTransientStore},
		{"wrapped index", pkgerrors.WithMessage(Index("op", "m", nil), "ctx"), KindIndexUnavailable},
		{"foreign", fmt.Errorf("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMessageAndIsInternal(t *testing.T) {
	err := Store("op", "fetch failed", fmt.Errorf("timeout"))
	assert.Equal(t, "fetch failed", Message(err))
	assert.True(t, IsInternal(err))

	assert.False(t, IsInternal(Invalid("op", "user_id must be numeric")))
	assert.Equal(t, "boom", Message(fmt.Errorf("boom")))
}
