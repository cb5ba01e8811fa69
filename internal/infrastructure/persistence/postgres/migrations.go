package postgres

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_users_and_ledger",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_courses",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_submissions",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "create_adaptive_and_leaderboard",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
	email              TEXT PRIMARY KEY,
	name               TEXT NOT NULL DEFAULT '',
	credits            INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
	total_credits_used INTEGER NOT NULL DEFAULT 0,
	is_member          BOOLEAN NOT NULL DEFAULT FALSE,
	access_secret_hash TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS credit_transactions (
	id             UUID PRIMARY KEY,
	user_email     TEXT NOT NULL REFERENCES users(email),
	amount         INTEGER NOT NULL,
	type           TEXT NOT NULL,
	reason         TEXT NOT NULL DEFAULT '',
	course_id      TEXT NOT NULL DEFAULT '',
	balance_before INTEGER NOT NULL,
	balance_after  INTEGER NOT NULL,
	created_at     TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_credit_transactions_user
	ON credit_transactions(user_email, created_at);
`

const migration001Down = `
DROP TABLE IF EXISTS credit_transactions;
DROP TABLE IF EXISTS users;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS courses (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS enrollments (
	course_id     TEXT NOT NULL REFERENCES courses(id),
	student_email TEXT NOT NULL,
	enrolled_at   TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	PRIMARY KEY (course_id, student_email)
);

CREATE INDEX IF NOT EXISTS idx_enrollments_course
	ON enrollments(course_id, enrolled_at DESC);

CREATE TABLE IF NOT EXISTS assignments (
	id           TEXT PRIMARY KEY,
	course_id    TEXT NOT NULL REFERENCES courses(id),
	title        TEXT NOT NULL,
	rubric       TEXT NOT NULL DEFAULT '',
	total_points INTEGER NOT NULL DEFAULT 100,
	due_date     TIMESTAMP WITH TIME ZONE NOT NULL,
	created_at   TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_assignments_course ON assignments(course_id);

CREATE TABLE IF NOT EXISTS study_contents (
	id          TEXT PRIMARY KEY,
	course_id   TEXT NOT NULL REFERENCES courses(id),
	study_type  TEXT NOT NULL,
	topic       TEXT NOT NULL DEFAULT '',
	content     JSONB,
	status      TEXT NOT NULL DEFAULT 'pending',
	fail_reason TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_study_contents_course ON study_contents(course_id);

CREATE TABLE IF NOT EXISTS certificates (
	id            TEXT PRIMARY KEY,
	course_id     TEXT NOT NULL REFERENCES courses(id),
	student_email TEXT NOT NULL,
	issued_at     TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	UNIQUE (course_id, student_email)
);
`

const migration002Down = `
DROP TABLE IF EXISTS certificates;
DROP TABLE IF EXISTS study_contents;
DROP TABLE IF EXISTS assignments;
DROP TABLE IF EXISTS enrollments;
DROP TABLE IF EXISTS courses;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS submissions (
	assignment_id TEXT NOT NULL REFERENCES assignments(id),
	student_email TEXT NOT NULL,
	answer        TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'Submitted',
	feedback      TEXT NOT NULL DEFAULT '',
	graded_by     TEXT NOT NULL DEFAULT '',
	graded_at     TIMESTAMP WITH TIME ZONE,
	unlock_reason TEXT NOT NULL DEFAULT '',
	submitted_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	PRIMARY KEY (assignment_id, student_email)
);

CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
`

const migration003Down = `
DROP TABLE IF EXISTS submissions;
`

const migration004Up = `
CREATE TABLE IF NOT EXISTS adaptive_performance (
	course_id              TEXT NOT NULL,
	student_email          TEXT NOT NULL,
	topic_id               TEXT NOT NULL,
	average_score          DOUBLE PRECISION NOT NULL DEFAULT 0,
	attempts               INTEGER NOT NULL DEFAULT 0,
	recommended_difficulty TEXT NOT NULL DEFAULT 'easy',
	is_weak_topic          BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at             TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	PRIMARY KEY (course_id, student_email, topic_id)
);

CREATE TABLE IF NOT EXISTS leaderboard_entries (
	student_email           TEXT PRIMARY KEY,
	display_name            TEXT NOT NULL DEFAULT '',
	is_anonymous            BOOLEAN NOT NULL DEFAULT FALSE,
	total_points            INTEGER NOT NULL DEFAULT 0,
	total_courses_completed INTEGER NOT NULL DEFAULT 0,
	average_rating          DOUBLE PRECISION NOT NULL DEFAULT 0,
	rank                    INTEGER NOT NULL DEFAULT 0,
	badge                   TEXT NOT NULL DEFAULT 'none',
	created_at              TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at              TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_leaderboard_rank ON leaderboard_entries(rank);
`

const migration004Down = `
DROP TABLE IF EXISTS leaderboard_entries;
DROP TABLE IF EXISTS adaptive_performance;
`
