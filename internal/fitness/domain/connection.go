package domain

import "time"

// ConnectionState is the per-user lifecycle of one provider connection.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "DISCONNECTED"
	StateAuthorizing  ConnectionState = "AUTHORIZING"
	StateConnected    ConnectionState = "CONNECTED"
)

type Connection struct {
	User              string          `json:"-"`
	Provider          string          `json:"provider"`
	Kind              ProviderKind    `json:"kind"`
	State             ConnectionState `json:"state"`
	Available         bool            `json:"available"`
	UnavailableReason string          `json:"unavailable_reason,omitempty"`
	LastSync          *SyncResult     `json:"last_sync,omitempty"`
}

// ConnectRequest is issued when an OAuth connection starts.
type ConnectRequest struct {
	Provider  string          `json:"provider"`
	State     ConnectionState `json:"state"`
	AuthURL   string          `json:"auth_url"`
	ExpiresAt time.Time       `json:"expires_at"`
}
