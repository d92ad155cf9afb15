// Package postgres implements the PostgreSQL persistence layer for the
// Career Guidance Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create students table
-- Version: 001

CREATE TABLE IF NOT EXISTS students (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(254) NOT NULL UNIQUE,
    password_hash VARCHAR(100) NOT NULL,
    display_name VARCHAR(100) NOT NULL,
    class_level VARCHAR(30) NOT NULL,
    location VARCHAR(100) NOT NULL,
    interest TEXT NOT NULL DEFAULT '',
    subjects TEXT[] NOT NULL,
    subject_set_version INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_subject_set_version CHECK (subject_set_version >= 1),
    CONSTRAINT nonempty_subjects CHECK (array_length(subjects, 1) >= 1)
);

CREATE INDEX IF NOT EXISTS idx_students_email ON students(email);
CREATE INDEX IF NOT EXISTS idx_students_created_at ON students(created_at);
`

const migration001Down = `
DROP TABLE IF EXISTS students;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE SCORE RECORDS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create score_records table
-- Version: 002
-- Append-only: rows are never updated or deleted by the application.

CREATE TABLE IF NOT EXISTS score_records (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    subject_set_version INTEGER NOT NULL,
    subjects JSONB NOT NULL,
    class_label VARCHAR(30) NOT NULL,
    entered_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_record_version CHECK (subject_set_version >= 1)
);

CREATE INDEX IF NOT EXISTS idx_score_records_student_id ON score_records(student_id);
CREATE INDEX IF NOT EXISTS idx_score_records_student_entered
    ON score_records(student_id, entered_at);
CREATE INDEX IF NOT EXISTS idx_score_records_student_version
    ON score_records(student_id, subject_set_version, entered_at);
`

const migration002Down = `
DROP TABLE IF EXISTS score_records;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE SURVEY RESPONSES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create survey_responses table
-- Version: 003
-- Write-once: the primary key on student_id rejects a second submission.

CREATE TABLE IF NOT EXISTS survey_responses (
    student_id UUID PRIMARY KEY REFERENCES students(id) ON DELETE CASCADE,
    answers JSONB NOT NULL,
    domain_scores JSONB NOT NULL,
    winning_domain VARCHAR(50) NOT NULL,
    submitted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_survey_responses_winning_domain
    ON survey_responses(winning_domain);
`

const migration003Down = `
DROP TABLE IF EXISTS survey_responses;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE GUIDANCE RECORDS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create guidance_records table
-- Version: 004
-- Append-only archive of successful guidance exchanges.

CREATE TABLE IF NOT EXISTS guidance_records (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    prompt TEXT NOT NULL,
    text TEXT NOT NULL,
    model VARCHAR(100) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_guidance_records_student_created
    ON guidance_records(student_id, created_at DESC);
`

const migration004Down = `
DROP TABLE IF EXISTS guidance_records;
`
