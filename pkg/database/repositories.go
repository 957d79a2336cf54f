// Copyright 2025 Certen Protocol
//
// Repositories is a convenience wrapper bundling the repository
// instances a wired-up audit engine depends on.

package database

// Repositories holds all repository instances for a single Client.
type Repositories struct {
	Vertices   *VertexRepository
	Changesets *ChangesetRepository
}

// NewRepositories creates all repositories backed by client.
func NewRepositories(client *Client) *Repositories {
	return &Repositories{
		Vertices:   NewVertexRepository(client.DB()),
		Changesets: NewChangesetRepository(client.DB()),
	}
}
