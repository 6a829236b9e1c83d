package exitcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"proxen/internal/gateway"
	"proxen/internal/session"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, Success},
		{"not configured", fmt.Errorf("chat: %w", session.ErrNotConfigured), AuthError},
		{"auth", &gateway.Error{Kind: gateway.KindAuth, Status: 401, Detail: "invalid key"}, AuthError},
		{"bad request", &gateway.Error{Kind: gateway.KindBadRequest, Status: 400}, BackendError},
		{"service", &gateway.Error{Kind: gateway.KindService, Status: 503}, BackendError},
		{"plain", errors.New("disk full"), BackendError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromError(tt.err))
		})
	}
}
