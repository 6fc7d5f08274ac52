package dto

import (
	"time"

	fitnessdomain "mindbody-backend/internal/fitness/domain"
	"mindbody-backend/pkg/recordstore"
)

type ConnectionsResponse struct {
	Connections []*fitnessdomain.Connection `json:"connections"`
}

type ConnectResponse struct {
	Provider         string                        `json:"provider"`
	State            fitnessdomain.ConnectionState `json:"state"`
	AuthorizationURL string                        `json:"authorization_url"`
	ExpiresAt        time.Time                     `json:"expires_at"`
}

// CredentialsRequest carries credential-provider logins. Empty fields are reported by
// the sync as missing credentials, not rejected at binding.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ConnectionResponse struct {
	Connection *fitnessdomain.Connection `json:"connection,omitempty"`
	Error      string                    `json:"error,omitempty"`
}

type HistoryResponse struct {
	Runs []recordstore.Record `json:"runs"`
}
