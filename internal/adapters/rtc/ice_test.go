package rtc

import (
	"testing"

	"github.com/dkeye/telemed/internal/config"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"
)

func TestICEServers_Fallback_To_Default(t *testing.T) {
	req := require.New(t)

	servers := ICEServers(config.WebRTCConfig{ICEServers: []config.ICEServer{{}}})

	req.Equal(DefaultICEServers(), servers)
}

func TestICEServers_TURN_Credentials(t *testing.T) {
	req := require.New(t)

	servers := ICEServers(config.WebRTCConfig{ICEServers: []config.ICEServer{
		{URLs: []string{"stun:stun.example:3478"}},
		{URLs: []string{"turn:turn.example:3478?transport=udp"}, Username: "u", Credential: "p"},
	}})

	req.Len(servers, 2)
	req.Nil(servers[0].Credential)
	cred, ok := servers[1].Credential.(string)
	req.True(ok)
	req.Equal("p", cred)
	req.Equal(webrtc.ICECredentialTypePassword, servers[1].CredentialType)
	req.NoError(Validate(servers))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		servers []webrtc.ICEServer
		ok      bool
	}{
		{"default", DefaultICEServers(), true},
		{"bad scheme", []webrtc.ICEServer{{URLs: []string{"http://example.com"}}}, false},
		{"turn without credential", []webrtc.ICEServer{{URLs: []string{"turn:turn.example:3478"}}}, false},
		{"turns with credential", []webrtc.ICEServer{{URLs: []string{"turns:turn.example:5349"}, Username: "u", Credential: "p"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.servers)
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
