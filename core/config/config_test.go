package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anoideaopen/mirror/core/access"
)

func TestFromBytes(t *testing.T) {
	tests := []struct {
		name       string
		cfg        string
		wantErr    error
		wantPolicy access.Policy
		wantLevel  string
	}{
		{
			name:    "empty",
			cfg:     "",
			wantErr: ErrCfgBytesEmpty,
		},
		{
			name:       "yaml defaults",
			cfg:        "logging:\n  level: debug\n",
			wantPolicy: access.Permissive,
			wantLevel:  "debug",
		},
		{
			name:       "json exported mode",
			cfg:        `{"access": {"mode": "exported"}}`,
			wantPolicy: access.ExportedOnly,
		},
		{
			name:       "permissive without read-only writes",
			cfg:        "access:\n  mode: permissive\n  allow_read_only_write: false\n",
			wantPolicy: access.Policy{AllowUnexported: true},
		},
		{
			name:    "unknown mode",
			cfg:     "access:\n  mode: sandbox\n",
			wantErr: ErrUnknownAccessMode,
		},
		{
			name:    "endpoint without service name",
			cfg:     "tracing:\n  endpoint: localhost:4318\n  service_name: \"\"\n",
			wantErr: ErrServiceNameEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := FromBytes([]byte(tt.cfg))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantPolicy, cfg.Policy())
			require.Equal(t, tt.wantLevel, cfg.Logging.Level)
			require.Equal(t, defaultServiceName, cfg.Tracing.ServiceName)
		})
	}
}

func TestFromBytesMalformed(t *testing.T) {
	_, err := FromBytes([]byte("logging: [unterminated"))
	require.Error(t, err)
}
