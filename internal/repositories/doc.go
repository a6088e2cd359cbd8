// Package repositories provides SQLite persistence for stations, player
// snapshots and OAuth tokens.
//
// StationRepository and PlayerRepository implement the station package's
// store interfaces; TokenRepository implements spotify.TokenStore. Schema
// is managed by the migrations in the shared package.
package repositories
