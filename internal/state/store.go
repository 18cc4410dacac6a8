package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"contract-agent/internal/logger"
)

var ErrTurnCommitted = errors.New("state: turn already committed")

// CommitFunc 是外部提供的持久化钩子，每个回合最多调用一次。
type CommitFunc func(ctx context.Context, s State) error

// Loader 从持久化存储恢复会话；ok=false 表示没有记录。
type Loader func(ctx context.Context, chatID string) (s State, ok bool, err error)

// Store 按 chatID 保存会话。锁只保护 map 与快照字段本身，
// 同一会话上的并发回合不做协调，后写者覆盖。
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	loader   Loader
	now      func() time.Time
}

func NewStore(loader Loader) *Store {
	return &Store{sessions: make(map[string]*Session), loader: loader}
}

// Open 返回 chatID 对应的会话，首次打开时尝试通过 Loader 恢复。
func (st *Store) Open(ctx context.Context, chatID string) (*Session, error) {
	st.mu.Lock()
	if s, ok := st.sessions[chatID]; ok {
		s.touch(st.now())
		st.mu.Unlock()
		return s, nil
	}
	st.mu.Unlock()

	initial := New(chatID)
	if st.loader != nil {
		loaded, ok, err := st.loader(ctx, chatID)
		if err != nil {
			return nil, err
		}
		if ok {
			loaded.ChatID = chatID
			initial = loaded
			logger.Named("state").WithField("chat_id", chatID).
				Debugf("hydrated session with %d messages", len(loaded.Messages))
		}
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	if s, ok := st.sessions[chatID]; ok {
		s.touch(now)
		return s, nil
	}
	s := &Session{current: initial, touched: now, now: st.now}
	st.sessions[chatID] = s
	return s, nil
}

// Drop 移除内存中的会话（删除聊天记录后调用）。
func (st *Store) Drop(chatID string) {
	st.mu.Lock()
	delete(st.sessions, chatID)
	st.mu.Unlock()
}

// Len 返回内存中的会话数。
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep 移除超过 maxIdle 未被打开或写入的会话，返回移除数量。
// 已持久化的聊天下次 Open 时会经 Loader 重新恢复；匿名会话的内容随之丢弃。
func (st *Store) Sweep(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := st.now().Add(-maxIdle)
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, s := range st.sessions {
		if s.lastTouched().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper 每隔 interval 执行一次 Sweep，直到 ctx 结束。
func (st *Store) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) error {
	if interval <= 0 || maxIdle <= 0 {
		<-ctx.Done()
		return nil
	}
	log := logger.Named("state")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := st.Sweep(maxIdle); n > 0 {
				log.WithField("remaining", st.Len()).Debugf("dropped %d idle sessions", n)
			}
		}
	}
}

type Session struct {
	mu      sync.Mutex
	current State
	version int
	touched time.Time
	now     func() time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.touched = now
	s.mu.Unlock()
}

func (s *Session) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Version 在每次提交后递增。
func (s *Session) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Session) set(next State, commit bool) {
	s.mu.Lock()
	s.current = next
	if s.now != nil {
		s.touched = s.now()
	}
	if commit {
		s.version++
	}
	s.mu.Unlock()
}

// BeginTurn 开始一个回合；hook 为 nil 表示不持久化（未登录）。
func (s *Session) BeginTurn(ctx context.Context, hook CommitFunc) *Turn {
	return &Turn{ctx: ctx, session: s, hook: hook, staged: s.Snapshot()}
}

type Turn struct {
	ctx     context.Context
	session *Session
	hook    CommitFunc
	staged  State
	done    bool
}

func (t *Turn) Get() State {
	return t.staged
}

// Update 暂存新状态，不触发持久化。
func (t *Turn) Update(next State) error {
	if t.done {
		return ErrTurnCommitted
	}
	t.staged = next
	t.session.set(next, false)
	return nil
}

// Done 暂存并提交最终状态，恰好调用一次持久化钩子。
func (t *Turn) Done(next State) error {
	if t.done {
		return ErrTurnCommitted
	}
	t.done = true
	t.staged = next
	t.session.set(next, true)
	if t.hook == nil {
		return nil
	}
	return t.hook(t.ctx, next)
}

func (t *Turn) Committed() bool {
	return t.done
}
