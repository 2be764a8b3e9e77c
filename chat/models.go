package chat

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Message is a chat line. CreateTime is seconds since epoch.
type Message struct {
	bun.BaseModel `bun:"table:messages,alias:msg"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Text          string    `bun:"text,notnull" json:"text"`
	AuthorID      string    `bun:"author_id,notnull" json:"author_id"`
	AuthorName    string    `bun:"author_name" json:"author_name"`
	CreateTime    int64     `bun:"create_time,notnull" json:"create_time"`
}
