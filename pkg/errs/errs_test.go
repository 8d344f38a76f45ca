package errs

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"invalid", InvalidArgument("group name too short"), KindInvalidArgument},
		{"not found", NotFound("group %q does not exist", "x"), KindNotFound},
		{"not a member", NotAMember("not a member"), KindNotAMember},
		{"exists", AlreadyExists("group already exists"), KindAlreadyExists},
		{"member", AlreadyMember("already a member"), KindAlreadyMember},
		{"wrapped", pkgerrors.Wrap(NotFound("gone"), "load chat"), KindNotFound},
		{"plain", errors.New("disk on fire"), KindUnknown},
		{"nil", nil, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestSentinels(t *testing.T) {
	err := NotFound("group %q does not exist", "random")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrNotAMember))
	assert.Equal(t, `group "random" does not exist`, err.Error())
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(nil, KindNotFound))
}
