package rtc

import (
	"fmt"

	"github.com/dkeye/telemed/internal/config"
	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
)

// DefaultICEServers is used when nothing is configured.
func DefaultICEServers() []webrtc.ICEServer {
	return []webrtc.ICEServer{
		{
			URLs: []string{"stun:stun.l.google.com:19302"},
		},
	}
}

// ICEServers converts the configured list into what browsers expect in
// RTCPeerConnection's iceServers. Entries without URLs are skipped.
func ICEServers(cfg config.WebRTCConfig) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(cfg.ICEServers))
	for _, s := range cfg.ICEServers {
		if len(s.URLs) == 0 {
			continue
		}
		srv := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			srv.Credential = s.Credential
			srv.CredentialType = webrtc.ICECredentialTypePassword
		}
		out = append(out, srv)
	}
	if len(out) == 0 {
		return DefaultICEServers()
	}
	return out
}

// Validate checks every URL with pion's parser so a typo is caught at
// startup rather than in the browser.
func Validate(servers []webrtc.ICEServer) error {
	for i, s := range servers {
		for _, raw := range s.URLs {
			uri, err := stun.ParseURI(raw)
			if err != nil {
				return fmt.Errorf("ice_servers[%d] %q: %w", i, raw, err)
			}
			if uri.Scheme == stun.SchemeTypeTURN || uri.Scheme == stun.SchemeTypeTURNS {
				if s.Username == "" || s.Credential == nil {
					return fmt.Errorf("ice_servers[%d] %q: turn needs username and credential", i, raw)
				}
			}
		}
	}
	return nil
}
