package store

const schema = `
CREATE TABLE IF NOT EXISTS scan_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,
    scope TEXT,
    items_found INTEGER NOT NULL DEFAULT 0,
    error_count INTEGER NOT NULL DEFAULT 0,
    errors TEXT,
    status TEXT NOT NULL DEFAULT 'running'
);

CREATE TABLE IF NOT EXISTS scanned_items (
    path TEXT PRIMARY KEY,
    scan_id INTEGER NOT NULL,
    item_type TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    modified_at TIMESTAMP,
    accessed_at TIMESTAMP,
    content_hash TEXT,
    is_duplicate BOOLEAN NOT NULL DEFAULT 0,
    FOREIGN KEY (scan_id) REFERENCES scan_history(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS packages (
    name TEXT PRIMARY KEY,
    version TEXT,
    size_bytes INTEGER,
    description TEXT,
    installed_at TIMESTAMP,
    is_orphan BOOLEAN,
    is_dependency BOOLEAN,
    required_by TEXT,
    optional_for TEXT
);

CREATE TABLE IF NOT EXISTS action_feedback (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    suggestion_id TEXT NOT NULL,
    suggestion_type TEXT NOT NULL,
    item_details TEXT,
    action TEXT NOT NULL,
    size_bytes INTEGER,
    comment TEXT,
    recorded_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_scan ON scanned_items(scan_id);
CREATE INDEX IF NOT EXISTS idx_items_type ON scanned_items(item_type);
CREATE INDEX IF NOT EXISTS idx_items_hash ON scanned_items(content_hash);
CREATE INDEX IF NOT EXISTS idx_packages_orphan ON packages(is_orphan);
CREATE INDEX IF NOT EXISTS idx_feedback_type ON action_feedback(suggestion_type);
`
