package sqldb

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS invoices (
		guid TEXT PRIMARY KEY,
		customer_guid TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		amount INTEGER NOT NULL CHECK (amount > 0),
		status TEXT NOT NULL,
		payment_uri TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS invoice_transactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		guid TEXT NOT NULL UNIQUE,
		invoice_guid TEXT NOT NULL REFERENCES invoices (guid),
		transaction_type TEXT NOT NULL,
		transaction_cls TEXT NOT NULL,
		status TEXT NOT NULL,
		amount INTEGER NOT NULL,
		payment_uri TEXT NOT NULL,
		scheduled_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`,

	`CREATE INDEX IF NOT EXISTS idx_invoice_transactions_schedule
		ON invoice_transactions (invoice_guid, scheduled_at);`,

	`CREATE TABLE IF NOT EXISTS outbox_events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		event_type TEXT NOT NULL,
		payload BLOB NOT NULL,
		published INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS invoices (
		guid TEXT PRIMARY KEY,
		customer_guid TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		amount BIGINT NOT NULL CHECK (amount > 0),
		status TEXT NOT NULL,
		payment_uri TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS invoice_transactions (
		seq BIGSERIAL PRIMARY KEY,
		guid TEXT NOT NULL UNIQUE,
		invoice_guid TEXT NOT NULL REFERENCES invoices (guid),
		transaction_type TEXT NOT NULL,
		transaction_cls TEXT NOT NULL,
		status TEXT NOT NULL,
		amount BIGINT NOT NULL,
		payment_uri TEXT NOT NULL,
		scheduled_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);`,

	`CREATE INDEX IF NOT EXISTS idx_invoice_transactions_schedule
		ON invoice_transactions (invoice_guid, scheduled_at);`,

	`CREATE TABLE IF NOT EXISTS outbox_events (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		event_type TEXT NOT NULL,
		payload BYTEA NOT NULL,
		published INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	);`,
}
