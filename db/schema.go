// ABOUTME: Database schema definitions and migrations
// ABOUTME: Creates the CRM tables the focus engine reads and the suppression log it writes
package db

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	phone TEXT,
	status TEXT NOT NULL DEFAULT 'ACTIVE' CHECK(status IN ('ACTIVE', 'INACTIVE', 'CHURNED')),
	company_name TEXT,
	notes TEXT,
	last_contacted_at DATETIME,
	last_purchase_date DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);
CREATE INDEX IF NOT EXISTS idx_contacts_status ON contacts(status);

CREATE TABLE IF NOT EXISTS deals (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	value REAL NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT 'USD',
	probability INTEGER,
	stage TEXT NOT NULL,
	company_name TEXT,
	contact_id TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_deals_stage ON deals(stage);
CREATE INDEX IF NOT EXISTS idx_deals_updated_at ON deals(updated_at);

CREATE TABLE IF NOT EXISTS activities (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL CHECK(type IN ('CALL', 'MEETING', 'EMAIL', 'TASK', 'NOTE', 'STATUS_CHANGE')),
	title TEXT NOT NULL,
	description TEXT,
	due_at DATETIME NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	deal_id TEXT,
	contact_id TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (deal_id) REFERENCES deals(id) ON DELETE SET NULL,
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_activities_due_at ON activities(due_at);
CREATE INDEX IF NOT EXISTS idx_activities_completed ON activities(completed);

CREATE TABLE IF NOT EXISTS interaction_records (
	operator_id TEXT NOT NULL,
	suggestion_type TEXT NOT NULL CHECK(suggestion_type IN ('UPSELL', 'STALLED', 'RESCUE')),
	entity_type TEXT NOT NULL CHECK(entity_type IN ('deal', 'contact')),
	entity_id TEXT NOT NULL,
	action TEXT NOT NULL CHECK(action IN ('ACCEPTED', 'DISMISSED', 'SNOOZED')),
	snoozed_until INTEGER,
	recorded_at INTEGER NOT NULL,
	PRIMARY KEY (operator_id, suggestion_type, entity_id)
);

CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	last_sync_token TEXT,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sync_log (
	id TEXT PRIMARY KEY,
	source_service TEXT NOT NULL,
	source_id TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	imported_at DATETIME NOT NULL,
	metadata TEXT,
	UNIQUE(source_service, source_id)
);

CREATE INDEX IF NOT EXISTS idx_sync_log_source ON sync_log(source_service, source_id);
`

func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
