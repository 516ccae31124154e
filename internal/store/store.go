// Package store persists conversations and their messages in badger.
//
// Keys:
//
//	conv/<chatID>                          conversation record
//	msg/<chatID>/<createdAtNanos>-<msgID>  message record
//
// The zero-padded timestamp makes prefix iteration return messages in
// creation order.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"eigend/pkg/types"
)

// DefaultTitle is the title of a chat that has not been named yet.
const DefaultTitle = "New chat"

const (
	listLimit  = 100
	previewLen = 120
)

type conversation struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type message struct {
	ID         string   `json:"id"`
	Role       string   `json:"role"`
	Content    string   `json:"content"`
	Thinking   string   `json:"thinking"`
	Images     []string `json:"images"`
	CreatedAt  int64    `json:"created_at"`
	DurationMs *int64   `json:"duration_ms,omitempty"`
}

func (m message) toAPI() types.ChatMessage {
	images := m.Images
	if images == nil {
		images = []string{}
	}
	return types.ChatMessage{
		ID:         m.ID,
		Role:       m.Role,
		Content:    m.Content,
		Thinking:   m.Thinking,
		Images:     images,
		CreatedAt:  m.CreatedAt,
		DurationMs: m.DurationMs,
	}
}

type chatNotFoundError struct{ id string }

func (e chatNotFoundError) Error() string { return "chat not found: " + e.id }

// IsNotFound reports whether err refers to a missing chat.
func IsNotFound(err error) bool {
	var e chatNotFoundError
	return errors.As(err, &e)
}

// Store is the chat history database. It is safe for concurrent use.
type Store struct {
	db  *badger.DB
	log zerolog.Logger
	now func() time.Time

	mu        sync.Mutex
	lastNanos int64

	// writeMu serializes read-modify-write of conversation records.
	writeMu sync.Mutex

	gcStop chan struct{}
	gcDone chan struct{}
}

// Open opens (or creates) the database described by cfg.
func Open(cfg Config) (*Store, error) {
	db, err := openBadger(cfg)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, log: zerolog.Nop(), now: time.Now}
	if cfg.Logger != nil {
		s.log = cfg.Logger.With().Str("component", "store").Logger()
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.gcStop, s.gcDone = make(chan struct{}), make(chan struct{})
		go gcLoop(db, cfg.GCInterval, cfg.GCDiscardRatio, s.log, s.gcStop, s.gcDone)
	}
	return s, nil
}

// OpenInMemory opens a throwaway database, for tests.
func OpenInMemory() (*Store, error) {
	return Open(Config{InMemory: true})
}

// Close stops background GC and closes the database.
func (s *Store) Close() error {
	if s.gcStop != nil {
		close(s.gcStop)
		<-s.gcDone
	}
	return s.db.Close()
}

func convKey(id string) []byte { return []byte("conv/" + id) }

func msgPrefix(chatID string) []byte { return []byte("msg/" + chatID + "/") }

// stamp returns a strictly increasing creation time in nanoseconds.
func (s *Store) stamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.now().UnixNano()
	if n <= s.lastNanos {
		n = s.lastNanos + 1
	}
	s.lastNanos = n
	return n
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(b []byte) error { return json.Unmarshal(b, v) })
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, b)
}

// NewChat creates an empty conversation and returns its id.
func (s *Store) NewChat() (string, error) {
	id := uuid.NewString()
	ms := s.now().UnixMilli()
	c := conversation{ID: id, Title: DefaultTitle, CreatedAt: ms, UpdatedAt: ms}
	if err := s.db.Update(func(txn *badger.Txn) error { return setJSON(txn, convKey(id), c) }); err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}
	s.log.Debug().Str("event", "chat_created").Str("chat", id).Msg("new chat")
	return id, nil
}

// AppendMessage stores a message and bumps the conversation's updated time.
// A conversation that does not exist yet is created.
func (s *Store) AppendMessage(chatID, role, content, thinking string, images []string, durationMs *int64) error {
	if images == nil {
		images = []string{}
	}
	nanos := s.stamp()
	m := message{
		ID:         uuid.NewString(),
		Role:       role,
		Content:    content,
		Thinking:   thinking,
		Images:     images,
		CreatedAt:  nanos / int64(time.Millisecond),
		DurationMs: durationMs,
	}
	key := []byte(fmt.Sprintf("msg/%s/%020d-%s", chatID, nanos, m.ID))
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	err := s.db.Update(func(txn *badger.Txn) error {
		var c conversation
		err := getJSON(txn, convKey(chatID), &c)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			c = conversation{ID: chatID, Title: DefaultTitle, CreatedAt: m.CreatedAt}
		case err != nil:
			return err
		}
		c.UpdatedAt = m.CreatedAt
		if err := setJSON(txn, key, m); err != nil {
			return err
		}
		return setJSON(txn, convKey(chatID), c)
	})
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *Store) scanMessages(txn *badger.Txn, chatID string, fn func(message) error) error {
	prefix := msgPrefix(chatID)
	it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 50, Prefix: prefix})
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var m message
		if err := it.Item().Value(func(b []byte) error { return json.Unmarshal(b, &m) }); err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

// Messages returns every message of a chat, oldest first.
func (s *Store) Messages(chatID string) ([]types.ChatMessage, error) {
	out := []types.ChatMessage{}
	err := s.db.View(func(txn *badger.Txn) error {
		return s.scanMessages(txn, chatID, func(m message) error {
			out = append(out, m.toAPI())
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	return out, nil
}

// LoadRecentMessages returns the last limit messages of a chat, oldest
// first. limit <= 0 returns every message.
func (s *Store) LoadRecentMessages(chatID string, limit int) ([]types.ChatMessage, error) {
	all, err := s.Messages(chatID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

// lastMessage returns the newest message of a chat.
func lastMessage(txn *badger.Txn, chatID string) (message, bool, error) {
	prefix := msgPrefix(chatID)
	it := txn.NewIterator(badger.IteratorOptions{Reverse: true, Prefix: prefix})
	defer it.Close()
	seek := append(append([]byte{}, prefix...), 0xFF)
	it.Seek(seek)
	if !it.ValidForPrefix(prefix) {
		return message{}, false, nil
	}
	var m message
	err := it.Item().Value(func(b []byte) error { return json.Unmarshal(b, &m) })
	return m, err == nil, err
}

// ListChats returns up to 100 chats, most recently updated first, each with
// a preview of its newest message.
func (s *Store) ListChats() ([]types.ChatListItem, error) {
	var convs []conversation
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte("conv/")
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: prefix})
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var c conversation
			if err := it.Item().Value(func(b []byte) error { return json.Unmarshal(b, &c) }); err != nil {
				return err
			}
			convs = append(convs, c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	sort.SliceStable(convs, func(i, j int) bool { return convs[i].UpdatedAt > convs[j].UpdatedAt })
	if len(convs) > listLimit {
		convs = convs[:listLimit]
	}

	out := make([]types.ChatListItem, 0, len(convs))
	err = s.db.View(func(txn *badger.Txn) error {
		for _, c := range convs {
			item := types.ChatListItem{ID: c.ID, Title: c.Title, UpdatedAt: c.UpdatedAt}
			m, ok, err := lastMessage(txn, c.ID)
			if err != nil {
				return err
			}
			if ok {
				item.Preview = truncateRunes(m.Content, previewLen)
			}
			out = append(out, item)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return out, nil
}

// Rename sets a chat's title.
func (s *Store) Rename(chatID, title string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.db.Update(func(txn *badger.Txn) error {
		var c conversation
		if err := getJSON(txn, convKey(chatID), &c); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return chatNotFoundError{id: chatID}
			}
			return err
		}
		c.Title = title
		c.UpdatedAt = s.now().UnixMilli()
		return setJSON(txn, convKey(chatID), c)
	})
}

// Delete removes a chat and its messages. Deleting a missing chat is a
// no-op.
func (s *Store) Delete(chatID string) error {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := msgPrefix(chatID)
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range append(keys, convKey(chatID)) {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("delete chat: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	s.log.Debug().Str("event", "chat_deleted").Str("chat", chatID).Int("messages", len(keys)).Msg("deleted chat")
	return nil
}

// FirstUserMessage returns the content of the oldest user message.
func (s *Store) FirstUserMessage(chatID string) (string, bool, error) {
	var content string
	var found bool
	errStop := errors.New("stop")
	err := s.db.View(func(txn *badger.Txn) error {
		return s.scanMessages(txn, chatID, func(m message) error {
			if m.Role == "user" {
				content, found = m.Content, true
				return errStop
			}
			return nil
		})
	})
	if err != nil && !errors.Is(err, errStop) {
		return "", false, err
	}
	return content, found, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
