package chat

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ListMessagesSQL orders by create time, rowid keeps insertion order
// for messages created in the same second.
var ListMessagesSQL = `SELECT * FROM "messages"
ORDER BY "create_time" ASC, rowid ASC;`

// ErrEmptyMessage is returned for blank messages
var ErrEmptyMessage = errors.New("message must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// Messages stores chat messages
type Messages interface {
	Push(ctx context.Context, message *Message) (*Message, error)
	List(ctx context.Context) ([]*Message, error)
	CreateSchema(ctx context.Context) error
}

type messages struct {
	repo repository.Repository[*Message]
	db   *bun.DB
	now  func() time.Time
}

var _ Messages = (*messages)(nil)

func NewMessageStore(db *bun.DB) Messages {
	return newMessages(db, time.Now)
}

func newMessages(db *bun.DB, now func() time.Time) *messages {
	repo := repository.NewRepository[*Message](db, repository.ModelHandlers[*Message]{
		NewRecord: func() *Message { return &Message{} },
		GetID: func(m *Message) uuid.UUID {
			if m == nil {
				return uuid.Nil
			}
			return m.ID
		},
		SetID: func(m *Message, id uuid.UUID) {
			if m != nil {
				m.ID = id
			}
		},
	})

	return &messages{
		repo: repo,
		db:   db,
		now:  now,
	}
}

func (m *messages) CreateSchema(ctx context.Context) error {
	if _, err := m.db.NewCreateTable().
		Model((*Message)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	_, err := m.db.NewCreateIndex().
		Model((*Message)(nil)).
		Index("messages_create_time_idx").
		IfNotExists().
		Column("create_time").
		Exec(ctx)
	return err
}

// Push stores message, assigning id and create time when missing
func (m *messages) Push(ctx context.Context, message *Message) (*Message, error) {
	message.Text = strings.TrimSpace(message.Text)
	if message.Text == "" {
		return nil, ErrEmptyMessage
	}

	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}

	if message.CreateTime == 0 {
		message.CreateTime = m.now().Unix()
	}

	return m.repo.CreateTx(ctx, m.db, message)
}

// List returns every message ordered by creation time, ties keep
// insertion order.
func (m *messages) List(ctx context.Context) ([]*Message, error) {
	records, err := m.repo.RawTx(ctx, m.db, ListMessagesSQL)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = make([]*Message, 0)
	}
	return records, nil
}
