package store

const schemaSQL = `
CREATE TABLE usage_records (
    row_num              INTEGER PRIMARY KEY,
    date                 TEXT,
    service              TEXT,
    resource_group       TEXT,
    cost                 REAL NOT NULL DEFAULT 0,
    cost_text            TEXT,
    has_cost             INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE usage_extra (
    row_num              INTEGER NOT NULL REFERENCES usage_records(row_num) ON DELETE CASCADE,
    column_name          TEXT NOT NULL,
    value                TEXT NOT NULL,
    kind                 TEXT NOT NULL,
    number               REAL,
    PRIMARY KEY (row_num, column_name)
);

CREATE INDEX idx_usage_date ON usage_records(date);
CREATE INDEX idx_usage_service ON usage_records(service);
CREATE INDEX idx_usage_group ON usage_records(resource_group);
CREATE INDEX idx_extra_column ON usage_extra(column_name);

CREATE VIEW daily_costs AS
    SELECT date, SUM(cost) AS cost, COUNT(*) AS records
    FROM usage_records WHERE date IS NOT NULL
    GROUP BY date ORDER BY date;

CREATE VIEW service_costs AS
    SELECT service, SUM(cost) AS cost, COUNT(*) AS records
    FROM usage_records WHERE service IS NOT NULL
    GROUP BY service ORDER BY cost DESC, service;

CREATE VIEW resource_group_costs AS
    SELECT resource_group, SUM(cost) AS cost, COUNT(*) AS records
    FROM usage_records WHERE resource_group IS NOT NULL
    GROUP BY resource_group ORDER BY cost DESC, resource_group;
`
