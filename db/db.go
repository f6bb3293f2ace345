package db

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Collection is one durably stored JSON document. The whole data model lives
// in four namespaces: accounts, chats, messages, preferences.
type Collection struct {
	Namespace string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

const (
	AccountsNamespace    = "accounts"
	ChatsNamespace       = "chats"
	MessagesNamespace    = "messages"
	PreferencesNamespace = "preferences"
)

type Queries struct {
	DB *gorm.DB
}

// NewQueries opens the embedded store at the given path. Pass ":memory:" for
// a throwaway store in tests.
func NewQueries(path string) (*Queries, error) {
	DB, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	return &Queries{
		DB: DB,
	}, nil
}

func (queries *Queries) AutoMigration() error {
	return queries.DB.AutoMigrate(&Collection{})
}
