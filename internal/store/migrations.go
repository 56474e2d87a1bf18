package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create inbox messages",
		SQL: `
			CREATE TABLE inbox_messages (
				id           TEXT PRIMARY KEY,
				session_id   TEXT NOT NULL,
				message      TEXT NOT NULL,
				reply        TEXT NOT NULL DEFAULT '',
				sent_at      TEXT NOT NULL DEFAULT '',
				received_at  TEXT NOT NULL
			);

			CREATE INDEX idx_inbox_session ON inbox_messages (session_id, received_at);
		`,
	},
	{
		Version: 2,
		Name:    "index inbox by arrival",
		SQL: `
			CREATE INDEX idx_inbox_received ON inbox_messages (received_at);
		`,
	},
}
