// Package sqlstore 把聊天记录保存在 sqlite / postgres / mysql 的单表中，
// messages 列存放 JSON 编码的消息序列。
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"contract-agent/internal/agent"
	"contract-agent/internal/chat"
	"contract-agent/internal/logger"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Store struct {
	db      *sql.DB
	dialect dialect
}

var _ chat.Store = (*Store)(nil)

// Open 连接数据库并确保表存在。
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if d.driver == "sqlite" {
		// 单连接避免 SQLITE_BUSY。
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db, dialect: d}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Named("chatstore").WithField("driver", d.driver).Info("chat store ready")
	return s, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, c *chat.Chat) error {
	if c.ID == "" {
		return errors.New("chat id is required")
	}
	messages, err := json.Marshal(c.Messages)
	if err != nil {
		return err
	}
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = s.db.ExecContext(ctx, s.dialect.upsert,
		c.ID, c.UserID, c.Title, c.Path, string(messages), created.UnixMilli(),
	)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*chat.Chat, error) {
	query := s.dialect.rebind(`SELECT id, user_id, title, path, messages, created_ts FROM chat WHERE id = ?`)
	c, err := scanChat(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, chat.ErrNotFound
	}
	return c, err
}

func (s *Store) List(ctx context.Context, userID string) ([]*chat.Chat, error) {
	query := s.dialect.rebind(`SELECT id, user_id, title, path, messages, created_ts
		FROM chat WHERE user_id = ? ORDER BY created_ts DESC`)
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*chat.Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`DELETE FROM chat WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return chat.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChat(row scanner) (*chat.Chat, error) {
	var (
		c        chat.Chat
		messages string
		created  int64
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.Path, &messages, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(messages), &c.Messages); err != nil {
		return nil, fmt.Errorf("decode messages for %s: %w", c.ID, err)
	}
	if c.Messages == nil {
		c.Messages = []agent.Message{}
	}
	c.CreatedAt = time.UnixMilli(created).UTC()
	return &c, nil
}
