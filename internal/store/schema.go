package store

// SchemaSQL defines the session and turn tables.
const SchemaSQL = `
    -- ==========================================================================
    -- SESSION TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS session SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS title ON session TYPE string;
    DEFINE FIELD IF NOT EXISTS config ON session TYPE object FLEXIBLE DEFAULT {};
    DEFINE FIELD IF NOT EXISTS created ON session TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated ON session TYPE datetime DEFAULT time::now();

    -- ==========================================================================
    -- TURN TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS turn SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS session ON turn TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON turn TYPE string
        ASSERT $value IN ["pending", "running", "completed", "failed"];
    DEFINE FIELD IF NOT EXISTS user_text ON turn TYPE string;
    DEFINE FIELD IF NOT EXISTS attachments ON turn TYPE array<object> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS attachments[*].name ON turn TYPE string;
    DEFINE FIELD IF NOT EXISTS attachments[*].size ON turn TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS attachments[*].type ON turn TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS ui_context ON turn TYPE object FLEXIBLE DEFAULT {};
    DEFINE FIELD IF NOT EXISTS messages ON turn TYPE array<object> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS messages[*].role ON turn TYPE string;
    DEFINE FIELD IF NOT EXISTS messages[*].content ON turn TYPE string;
    DEFINE FIELD IF NOT EXISTS messages[*].type ON turn TYPE string;
    DEFINE FIELD IF NOT EXISTS artifacts ON turn TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS error ON turn TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON turn TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated ON turn TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS completed ON turn TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS turn_session ON turn FIELDS session;
    DEFINE INDEX IF NOT EXISTS turn_created ON turn FIELDS created;
`
