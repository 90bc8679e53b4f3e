package sqlite

import "database/sql"

// schema sets up the database. It runs on startup to ensure tables exist.
// Account records live in kv as JSON; discovery records keep their JSON
// body plus the columns browsing filters and orders on.
const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS discovery_profiles (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    user_role TEXT NOT NULL DEFAULT '',
    has_place INTEGER NOT NULL DEFAULT 0,
    room_type TEXT NOT NULL DEFAULT '',
    data TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_discovery_profiles_updated_at ON discovery_profiles(updated_at);
CREATE INDEX IF NOT EXISTS idx_discovery_profiles_has_place ON discovery_profiles(has_place);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
