package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id        TEXT PRIMARY KEY,
	title     TEXT NOT NULL DEFAULT '',
	message   TEXT NOT NULL DEFAULT '',
	sender    TEXT NOT NULL DEFAULT '',
	type      TEXT NOT NULL DEFAULT 'info',
	image_ref TEXT NOT NULL DEFAULT '',
	time      DATETIME NOT NULL,
	read      INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1))
);

CREATE INDEX IF NOT EXISTS idx_notifications_time ON notifications(time);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
