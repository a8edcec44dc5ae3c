package sqlite

// Schema DDL. Every statement is idempotent so the database survives
// reattachment.
const (
	createUsers = `CREATE TABLE IF NOT EXISTS users (
    user_id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    username TEXT NOT NULL,
    role TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createProjects = `CREATE TABLE IF NOT EXISTS projects (
    project_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);`

	createSessions = `CREATE TABLE IF NOT EXISTS sessions (
    token TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    expires_at TEXT NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
);`

	createSectionRows = `CREATE TABLE IF NOT EXISTS section_rows (
    row_id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    section TEXT NOT NULL,
    table_name TEXT NOT NULL,
    data TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    created_at TEXT NOT NULL
);`

	createExtraColumns = `CREATE TABLE IF NOT EXISTS extra_columns (
    column_id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    section TEXT NOT NULL,
    table_name TEXT NOT NULL,
    label TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    created_at TEXT NOT NULL
);`

	createSingleEntries = `CREATE TABLE IF NOT EXISTS single_entries (
    project_id TEXT NOT NULL,
    field TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    image_data TEXT,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (project_id, field)
);`
)

// Index DDL.
const (
	indexSectionRows = `CREATE INDEX IF NOT EXISTS idx_section_rows_table
    ON section_rows (project_id, section, table_name, ordinal);`
	indexExtraColumns = `CREATE INDEX IF NOT EXISTS idx_extra_columns_table
    ON extra_columns (project_id, section, table_name, ordinal);`
	indexSessionsUser = `CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions (user_id);`
)

// schemaStatements lists the DDL in execution order.
var schemaStatements = []string{
	createUsers,
	createProjects,
	createSessions,
	createSectionRows,
	createExtraColumns,
	createSingleEntries,
	indexSectionRows,
	indexExtraColumns,
	indexSessionsUser,
}

// timeLayout is the storage format of every timestamp column.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
