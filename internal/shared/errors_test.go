package shared

import (
	"errors"
	"fmt"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestUserSafeMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "sentinel detail", err: fmt.Errorf("%w: tag already exists", ErrDuplicate), want: "Tag already exists"},
		{name: "validation detail", err: fmt.Errorf("%w: invalid categoryId", ErrValidation), want: "Invalid categoryId"},
		{name: "multibyte first rune", err: fmt.Errorf("%w: émile is taken", ErrConflict), want: "Émile is taken"},
		{name: "lao first rune", err: fmt.Errorf("%w: ສົມ not found", ErrNotFound), want: "ສົມ not found"},
		{name: "bare sentinel", err: ErrNotFound, want: "Not found"},
		{name: "unknown error", err: errors.New("pq: connection refused"), want: "An unexpected error occurred"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := UserSafeMessage(tc.err)
			assert.Equal(t, tc.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
