package bench

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors_UnwrapAndAs(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		err  error
		want string
	}{
		{&ConfigError{Op: "connect", Cause: cause}, "configuration error: connect: boom"},
		{&DriverLoadError{Driver: "pgx", Cause: cause}, "driver load error: pgx: boom"},
		{&ConnectionError{Cause: cause}, "connection error: boom"},
		{&StatementError{Cause: cause}, "statement error: boom"},
		{&ExecutionError{Cause: cause}, "execution error: boom"},
		{&FetchError{Cause: cause}, "fetch error: boom"},
		{&BindError{Position: 2, Type: TypeInt, Value: "x", Cause: cause}, `bind error: parameter 2: "x" is not a valid int: boom`},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%T", tt.err), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.Same(t, cause, errors.Unwrap(tt.err))

			wrapped := fmt.Errorf("run: %w", tt.err)
			assert.ErrorIs(t, wrapped, cause)
		})
	}
}

func TestErrors_AsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("session: %w", &BindError{Position: 1, Type: TypeInt, Value: "abc", Cause: errors.New("invalid syntax")})

	var bindErr *BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, 1, bindErr.Position)
	assert.Equal(t, TypeInt, bindErr.Type)

	var cfgErr *ConfigError
	assert.False(t, errors.As(err, &cfgErr))

	joined := errors.Join(&FetchError{Cause: errors.New("eof")}, &ConnectionError{Cause: errors.New("reset")})
	var connErr *ConnectionError
	require.ErrorAs(t, joined, &connErr)
	assert.EqualError(t, connErr.Cause, "reset")
}
