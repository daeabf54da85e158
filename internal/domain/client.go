package domain

import "time"

// DefaultClientDomain is the tenant seeded on first start when no client exists.
const DefaultClientDomain = "localhost"

// Client is a tenant. Every user belongs to exactly one client.
// Clients are immutable once created; there is no update path.
type Client struct {
	Id      int64     `json:"id"`
	Name    string    `json:"name"`
	Domain  string    `json:"domain"`
	Created time.Time `json:"created"`
}
