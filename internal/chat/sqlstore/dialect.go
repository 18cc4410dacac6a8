package sqlstore

import (
	"fmt"
	"strings"
)

// dialect 收敛三种数据库在建表、占位符与 upsert 语法上的差异。
type dialect struct {
	driver string
	schema []string
	upsert string
	dollar bool
}

func (d dialect) placeholder(n int) string {
	if d.dollar {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// rebind 把 '?' 占位符改写为当前方言的形式。
func (d dialect) rebind(query string) string {
	if !d.dollar {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString(d.placeholder(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS chat (
			id         TEXT    NOT NULL PRIMARY KEY,
			user_id    TEXT    NOT NULL,
			title      TEXT    NOT NULL DEFAULT '',
			path       TEXT    NOT NULL DEFAULT '',
			messages   TEXT    NOT NULL,
			created_ts INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_user ON chat(user_id)`,
	},
	upsert: `INSERT INTO chat (id, user_id, title, path, messages, created_ts)
	         VALUES (?, ?, ?, ?, ?, ?)
	         ON CONFLICT(id) DO UPDATE SET
	           user_id = excluded.user_id,
	           title = excluded.title,
	           path = excluded.path,
	           messages = excluded.messages`,
}

var postgresDialect = dialect{
	driver: "postgres",
	dollar: true,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS chat (
			id         TEXT   PRIMARY KEY,
			user_id    TEXT   NOT NULL,
			title      TEXT   NOT NULL DEFAULT '',
			path       TEXT   NOT NULL DEFAULT '',
			messages   TEXT   NOT NULL,
			created_ts BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_user ON chat(user_id)`,
	},
	upsert: `INSERT INTO chat (id, user_id, title, path, messages, created_ts)
	         VALUES ($1, $2, $3, $4, $5, $6)
	         ON CONFLICT (id) DO UPDATE SET
	           user_id = EXCLUDED.user_id,
	           title = EXCLUDED.title,
	           path = EXCLUDED.path,
	           messages = EXCLUDED.messages`,
}

var mysqlDialect = dialect{
	driver: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS chat (
			id         VARCHAR(64)  NOT NULL PRIMARY KEY,
			user_id    VARCHAR(256) NOT NULL,
			title      VARCHAR(512) NOT NULL DEFAULT '',
			path       VARCHAR(256) NOT NULL DEFAULT '',
			messages   LONGTEXT     NOT NULL,
			created_ts BIGINT       NOT NULL,
			INDEX idx_chat_user (user_id)
		)`,
	},
	upsert: `INSERT INTO chat (id, user_id, title, path, messages, created_ts)
	         VALUES (?, ?, ?, ?, ?, ?)
	         ON DUPLICATE KEY UPDATE
	           user_id = VALUES(user_id),
	           title = VALUES(title),
	           path = VALUES(path),
	           messages = VALUES(messages)`,
}

func lookupDialect(driver string) (dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return sqliteDialect, nil
	case "postgres", "postgresql", "pg":
		return postgresDialect, nil
	case "mysql":
		return mysqlDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported chat store driver %q", driver)
	}
}
