package database

// Schema is the core's idempotent DDL, applied by DB.Migrate on startup.
// It provisions the pgvector extension and an HNSW cosine index on
// message_embeddings.vector, per SPEC_FULL.md §3's persistence mapping.
const Schema = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	email         TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	display_name  TEXT NOT NULL,
	active        BOOLEAN NOT NULL DEFAULT true,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_sessions (
	id          UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	user_id     UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	token_hash  TEXT UNIQUE NOT NULL,
	expires_at  TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	user_agent  TEXT,
	ip_address  TEXT
);
CREATE INDEX IF NOT EXISTS idx_user_sessions_user_id ON user_sessions(user_id);

CREATE TABLE IF NOT EXISTS connections (
	id             UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	owner_user_id  UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	kind           TEXT NOT NULL CHECK (kind IN ('sqlite', 'postgres', 'clickhouse')),
	payload        JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_connections_owner ON connections(owner_user_id);

CREATE TABLE IF NOT EXISTS agents (
	id               UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	owner_user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name             TEXT NOT NULL,
	connection_id    UUID NOT NULL REFERENCES connections(id),
	model_id         TEXT NOT NULL,
	top_k            INT NOT NULL DEFAULT 10 CHECK (top_k >= 1),
	included_tables  TEXT NOT NULL DEFAULT '*',
	flags            JSONB NOT NULL DEFAULT '{}',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_agents_owner ON agents(owner_user_id);
CREATE INDEX IF NOT EXISTS idx_agents_connection ON agents(connection_id);

CREATE TABLE IF NOT EXISTS chat_sessions (
	id              UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	user_id         UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	agent_id        UUID NOT NULL REFERENCES agents(id),
	title           TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_activity   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	total_messages  INT NOT NULL DEFAULT 0,
	status          TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'archived')),
	context_summary TEXT
);
CREATE INDEX IF NOT EXISTS idx_chat_sessions_user ON chat_sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_chat_sessions_agent ON chat_sessions(agent_id);

CREATE TABLE IF NOT EXISTS messages (
	id              UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	chat_session_id UUID NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
	run_id          UUID,
	role            TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
	content         TEXT NOT NULL,
	sql_query       TEXT,
	sequence_order  INT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	metadata        JSONB,
	UNIQUE (chat_session_id, sequence_order)
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(chat_session_id);

CREATE TABLE IF NOT EXISTS message_embeddings (
	id            UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	message_id    UUID UNIQUE NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
	vector        vector(1536) NOT NULL,
	model_version TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_message_embeddings_hnsw
	ON message_embeddings USING hnsw (vector vector_cosine_ops);

CREATE TABLE IF NOT EXISTS runs (
	id                  UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	agent_id            UUID NOT NULL REFERENCES agents(id),
	user_id             UUID NOT NULL REFERENCES users(id),
	chat_session_id     UUID REFERENCES chat_sessions(id),
	question            TEXT NOT NULL,
	task_id             TEXT,
	status              TEXT NOT NULL DEFAULT 'queued'
		CHECK (status IN ('queued', 'running', 'success', 'failure', 'cancelled')),
	sql_used            TEXT,
	result_data         TEXT,
	execution_ms        BIGINT,
	result_rows_count   INT,
	error_kind          TEXT,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	finished_at         TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_runs_user ON runs(user_id);
CREATE INDEX IF NOT EXISTS idx_runs_agent ON runs(agent_id);
CREATE INDEX IF NOT EXISTS idx_runs_chat_session ON runs(chat_session_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);

CREATE TABLE IF NOT EXISTS cached_answers (
	agent_id    UUID NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
	fingerprint TEXT NOT NULL,
	answer      TEXT NOT NULL,
	sql_used    TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (agent_id, fingerprint)
);

CREATE TABLE IF NOT EXISTS validation_verdicts (
	run_id     UUID PRIMARY KEY REFERENCES runs(id) ON DELETE CASCADE,
	score      DOUBLE PRECISION NOT NULL,
	rationale  TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
