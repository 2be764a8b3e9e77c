package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var TrackSuccessfulLoginSQL = `UPDATE "users"
SET
	"loggedin_at" = ?
WHERE
	"id" = ?
RETURNING *;`

// Users is the bun backed CredentialStore
type Users interface {
	CredentialStore

	FindUserByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	TrackSuccessfulLogin(ctx context.Context, user *User) error
	CreateSchema(ctx context.Context) error
}

type users struct {
	repo repository.Repository[*User]
	db   *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &users{
		repo: repo,
		db:   db,
	}
}

func (a *users) CreateSchema(ctx context.Context) error {
	_, err := a.db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (a *users) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	return a.FindUserByUsernameTx(ctx, a.db, username)
}

func (a *users) FindUserByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", strings.TrimSpace(username)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	return record, nil
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	record, err := a.repo.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	return record, nil
}

func (a *users) Create(ctx context.Context, user *User) (*User, error) {
	return a.CreateTx(ctx, a.db, user)
}

// CreateTx inserts user, a username that is already stored is reported
// as ErrUsernameTaken.
func (a *users) CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)

	if err := a.ensureUsernameFree(ctx, tx, user.Username); err != nil {
		return nil, err
	}

	record, err := a.repo.CreateTx(ctx, tx, user)
	if err != nil {
		// lost a race against a concurrent insert of the same name
		if taken := a.ensureUsernameFree(ctx, tx, user.Username); errors.Is(taken, ErrUsernameTaken) {
			return nil, taken
		}
		return nil, err
	}
	return record, nil
}

func (a *users) ensureUsernameFree(ctx context.Context, tx bun.IDB, username string) error {
	_, err := a.FindUserByUsernameTx(ctx, tx, username)
	switch {
	case err == nil:
		return ErrUsernameTaken
	case errors.Is(err, ErrIdentityNotFound):
		return nil
	default:
		return fmt.Errorf("could not look up username: %w", err)
	}
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	loggedInAt := time.Now()
	res, err := a.repo.RawTx(ctx, a.db, TrackSuccessfulLoginSQL, loggedInAt, user.ID.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return ErrIdentityNotFound
	}

	user.LoggedInAt = &loggedInAt
	return nil
}

func prepareUserDefaults(user *User) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Username = strings.TrimSpace(user.Username)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
}
