package sqlstore

// queries holds the dialect-specific statements. Placeholders follow each
// driver's native numbering.
type queries struct {
	createTable string
	get         string
	upsert      string
	del         string
	exists      string
	scanPrefix  string
}

var sqliteQueries = queries{
	createTable: `CREATE TABLE IF NOT EXISTS estemplate_kv (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`,
	get: "SELECT value FROM estemplate_kv WHERE key = ?1",
	upsert: `INSERT INTO estemplate_kv(key, value) VALUES(?1, ?2)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
	del:        "DELETE FROM estemplate_kv WHERE key = ?1",
	exists:     "SELECT 1 FROM estemplate_kv WHERE key = ?1",
	scanPrefix: "SELECT key FROM estemplate_kv WHERE substr(key, 1, length(?1)) = ?1 ORDER BY key",
}

var postgresQueries = queries{
	createTable: `CREATE TABLE IF NOT EXISTS estemplate_kv (
		key   TEXT PRIMARY KEY,
		value BYTEA NOT NULL
	)`,
	get: "SELECT value FROM estemplate_kv WHERE key = $1",
	upsert: `INSERT INTO estemplate_kv(key, value) VALUES($1, $2)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
	del:        "DELETE FROM estemplate_kv WHERE key = $1",
	exists:     "SELECT 1 FROM estemplate_kv WHERE key = $1",
	scanPrefix: "SELECT key FROM estemplate_kv WHERE starts_with(key, $1::text) ORDER BY key",
}
