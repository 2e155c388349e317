package testutil

// Schema is the attendance database DDL applied to integration test
// containers. Kept in sync with the deployment migrations.
const Schema = `
CREATE TABLE IF NOT EXISTS employees (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    email                TEXT NOT NULL,
    role                 TEXT NOT NULL DEFAULT 'employee',
    is_active            BOOLEAN NOT NULL DEFAULT TRUE,
    salary_monthly       BIGINT NOT NULL,
    join_date            TIMESTAMPTZ,
    device_public_key    TEXT,
    device_fingerprint   TEXT,
    device_registered_at TIMESTAMPTZ,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT employees_email_key UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS attendance (
    id                  TEXT PRIMARY KEY,
    employee_id         TEXT NOT NULL REFERENCES employees(id),
    date                TEXT NOT NULL,
    status              TEXT NOT NULL,
    check_in_time       TIMESTAMPTZ,
    check_out_time      TIMESTAMPTZ,
    check_in_lat        DOUBLE PRECISION,
    check_in_lng        DOUBLE PRECISION,
    check_in_accuracy   DOUBLE PRECISION,
    check_out_lat       DOUBLE PRECISION,
    check_out_lng       DOUBLE PRECISION,
    check_out_accuracy  DOUBLE PRECISION,
    work_hours          DOUBLE PRECISION NOT NULL DEFAULT 0,
    is_location_flagged BOOLEAN NOT NULL DEFAULT FALSE,
    is_auto_calculated  BOOLEAN NOT NULL DEFAULT TRUE,
    is_locked           BOOLEAN NOT NULL DEFAULT FALSE,
    notes               TEXT NOT NULL DEFAULT '',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT attendance_employee_id_date_key UNIQUE (employee_id, date)
);
CREATE INDEX IF NOT EXISTS attendance_date_idx ON attendance(date);

CREATE TABLE IF NOT EXISTS attendance_modifications (
    id             TEXT PRIMARY KEY,
    attendance_id  TEXT NOT NULL,
    employee_id    TEXT NOT NULL,
    modified_by    TEXT NOT NULL,
    modified_at    TIMESTAMPTZ NOT NULL,
    reason         TEXT NOT NULL,
    field_changed  TEXT NOT NULL,
    original_value TEXT NOT NULL,
    new_value      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_events (
    id                 TEXT PRIMARY KEY,
    actor_id           TEXT NOT NULL,
    action             TEXT NOT NULL,
    target_id          TEXT NOT NULL,
    target_type        TEXT NOT NULL,
    payload            JSONB NOT NULL DEFAULT '{}',
    signature          TEXT,
    signature_verified BOOLEAN NOT NULL DEFAULT FALSE,
    hash               TEXT NOT NULL,
    device_info        TEXT,
    ip_address         TEXT,
    timestamp          TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_events_timestamp_idx ON audit_events(timestamp);

CREATE TABLE IF NOT EXISTS holidays (
    id          TEXT PRIMARY KEY,
    date        TEXT NOT NULL,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT holidays_date_key UNIQUE (date)
);

CREATE TABLE IF NOT EXISTS leaves (
    id          TEXT PRIMARY KEY,
    employee_id TEXT NOT NULL,
    date        TEXT NOT NULL,
    status      TEXT NOT NULL,
    reason      TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS leaves_status_idx ON leaves(status);

CREATE TABLE IF NOT EXISTS office_locations (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    latitude      DOUBLE PRECISION NOT NULL,
    longitude     DOUBLE PRECISION NOT NULL,
    radius_meters DOUBLE PRECISION NOT NULL,
    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS payroll (
    id                 TEXT PRIMARY KEY,
    employee_id        TEXT NOT NULL,
    month              TEXT NOT NULL,
    base_salary        BIGINT NOT NULL,
    daily_rate         NUMERIC(14,6) NOT NULL,
    total_working_days INTEGER NOT NULL DEFAULT 0,
    present_days       INTEGER NOT NULL DEFAULT 0,
    half_days          INTEGER NOT NULL DEFAULT 0,
    absent_days        INTEGER NOT NULL DEFAULT 0,
    sunday_days        INTEGER NOT NULL DEFAULT 0,
    holiday_days       INTEGER NOT NULL DEFAULT 0,
    leave_days         INTEGER NOT NULL DEFAULT 0,
    net_salary         NUMERIC(14,2) NOT NULL,
    is_locked          BOOLEAN NOT NULL DEFAULT TRUE,
    generated_by       TEXT NOT NULL,
    generated_at       TIMESTAMPTZ NOT NULL,
    unlocked_by        TEXT,
    unlocked_at        TIMESTAMPTZ,
    unlock_reason      TEXT,
    CONSTRAINT payroll_employee_id_month_key UNIQUE (employee_id, month)
);
`
