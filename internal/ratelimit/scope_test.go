package ratelimit_test

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"mime/multipart"
	"net/url"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMultipartNotSupported = errors.New("multipart not supported in mock")

// mockHumaContext implements huma.Context for testing scope resolution.
type mockHumaContext struct {
	method    string
	operation *huma.Operation
}

func (m *mockHumaContext) Operation() *huma.Operation {
	return m.operation
}
func (m *mockHumaContext) Context() context.Context          { return context.Background() }
func (m *mockHumaContext) TLS() *tls.ConnectionState         { return nil }
func (m *mockHumaContext) Version() huma.ProtoVersion        { return huma.ProtoVersion{} }
func (m *mockHumaContext) Method() string                    { return m.method }
func (m *mockHumaContext) Host() string                      { return "" }
func (m *mockHumaContext) RemoteAddr() string                { return "" }
func (m *mockHumaContext) URL() url.URL                      { return url.URL{} }
func (m *mockHumaContext) Param(_ string) string             { return "" }
func (m *mockHumaContext) Query(_ string) string             { return "" }
func (m *mockHumaContext) Header(_ string) string            { return "" }
func (m *mockHumaContext) EachHeader(_ func(string, string)) {}
func (m *mockHumaContext) BodyReader() io.Reader             { return nil }
func (m *mockHumaContext) GetMultipartForm() (*multipart.Form, error) {
	return nil, errMultipartNotSupported
}
func (m *mockHumaContext) SetReadDeadline(_ time.Time) error { return nil }
func (m *mockHumaContext) SetStatus(_ int)                   {}
func (m *mockHumaContext) Status() int                       { return 0 }
func (m *mockHumaContext) AppendHeader(_, _ string)          {}
func (m *mockHumaContext) SetHeader(_, _ string)             {}
func (m *mockHumaContext) BodyWriter() io.Writer             { return nil }

func TestOperationScopeResolver_MethodFallback(t *testing.T) {
	t.Parallel()

	resolver := ratelimit.NewOperationScopeResolver()

	tests := []struct {
		name      string
		method    string
		operation *huma.Operation
		want      ratelimit.Scope
	}{
		{name: "GET without operation is read", method: "GET", want: ratelimit.ScopeRead},
		{name: "HEAD is read", method: "HEAD", operation: &huma.Operation{}, want: ratelimit.ScopeRead},
		{name: "OPTIONS is read", method: "OPTIONS", operation: &huma.Operation{}, want: ratelimit.ScopeRead},
		{name: "POST is write", method: "POST", operation: &huma.Operation{}, want: ratelimit.ScopeWrite},
		{name: "PUT is write", method: "PUT", operation: &huma.Operation{}, want: ratelimit.ScopeWrite},
		{name: "DELETE is write", method: "DELETE", operation: &huma.Operation{}, want: ratelimit.ScopeWrite},
		{
			name:   "unrelated metadata is ignored",
			method: "GET",
			operation: &huma.Operation{
				Metadata: map[string]any{"other": "value"},
			},
			want: ratelimit.ScopeRead,
		},
		{
			name:   "config without scope falls back",
			method: "POST",
			operation: &huma.Operation{
				Metadata: map[string]any{
					ratelimit.MetadataKey: ratelimit.EndpointConfig{
						Limits: []ratelimit.LimitConfig{{Window: time.Minute, Max: 10}},
					},
				},
			},
			want: ratelimit.ScopeWrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scopes := resolver.Resolve(&mockHumaContext{method: tt.method, operation: tt.operation})

			assert.Equal(t, []ratelimit.Scope{ratelimit.ScopeGlobal, tt.want}, scopes)
		})
	}
}

func TestOperationScopeResolver_UsesMetadataScope(t *testing.T) {
	t.Parallel()

	resolver := ratelimit.NewOperationScopeResolver()

	ctx := &mockHumaContext{
		method: "POST",
		operation: &huma.Operation{
			Metadata: map[string]any{
				ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeAuth},
			},
		},
	}

	assert.Equal(t, []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeAuth}, resolver.Resolve(ctx))
}

func TestGetEndpointConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		operation *huma.Operation
		wantNil   bool
	}{
		{name: "nil operation returns nil", wantNil: true},
		{name: "operation without metadata returns nil", operation: &huma.Operation{}, wantNil: true},
		{
			name: "operation with wrong type returns nil",
			operation: &huma.Operation{
				Metadata: map[string]any{ratelimit.MetadataKey: "wrong type"},
			},
			wantNil: true,
		},
		{
			name: "operation with valid config returns config",
			operation: &huma.Operation{
				Metadata: map[string]any{
					ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeRead, Disabled: true},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := ratelimit.GetEndpointConfig(&mockHumaContext{operation: tt.operation})

			if tt.wantNil {
				assert.Nil(t, cfg)

				return
			}

			require.NotNil(t, cfg)
			assert.Equal(t, ratelimit.ScopeRead, cfg.Scope)
			assert.True(t, cfg.Disabled)
		})
	}
}
