package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-chat/auth"
	"github.com/goliatone/go-chat/chat"
)

type mngr struct {
	db       *bun.DB
	users    auth.Users
	messages chat.Messages
}

// Manager is the RepositoryManager the process wires: auth repositories plus
// the chat message store, sharing one database handle.
type Manager interface {
	auth.RepositoryManager
	Messages() chat.Messages
	CreateSchema(ctx context.Context) error
}

func NewRepositoryManager(db *bun.DB) Manager {
	return &mngr{
		db:       db,
		users:    auth.NewUsersRepository(db),
		messages: chat.NewMessageStore(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository db should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.messages == nil {
		return errors.New("repository messages should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() auth.Users {
	return m.users
}

func (m mngr) Messages() chat.Messages {
	return m.messages
}

// CreateSchema creates every table that does not exist yet
func (m mngr) CreateSchema(ctx context.Context) error {
	if err := m.users.CreateSchema(ctx); err != nil {
		return err
	}
	return m.messages.CreateSchema(ctx)
}
