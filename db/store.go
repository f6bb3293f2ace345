package db

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// The methods below are the only write paths to durable storage. Each
// collection is serialized as a whole on every save; readers get an empty
// value when the namespace has never been written.

func load[T any](tx *gorm.DB, namespace string, out *T) error {
	var record Collection
	err := tx.Where("namespace = ?", namespace).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", namespace, err)
	}
	if err := json.Unmarshal(record.Value, out); err != nil {
		return fmt.Errorf("decode %s: %w", namespace, err)
	}
	return nil
}

func save(tx *gorm.DB, namespace string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", namespace, err)
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}},
		UpdateAll: true,
	}).Create(&Collection{Namespace: namespace, Value: data}).Error
	if err != nil {
		return fmt.Errorf("save %s: %w", namespace, err)
	}
	return nil
}

func (queries *Queries) LoadAccounts() ([]Account, error) {
	var accounts []Account
	err := load(queries.DB, AccountsNamespace, &accounts)
	return accounts, err
}

func (queries *Queries) SaveAccounts(accounts []Account) error {
	return save(queries.DB, AccountsNamespace, accounts)
}

func (queries *Queries) LoadChats() ([]Chat, error) {
	var chats []Chat
	err := load(queries.DB, ChatsNamespace, &chats)
	return chats, err
}

func (queries *Queries) SaveChats(chats []Chat) error {
	return save(queries.DB, ChatsNamespace, chats)
}

func (queries *Queries) LoadMessages() (map[string][]Message, error) {
	messages := make(map[string][]Message)
	err := load(queries.DB, MessagesNamespace, &messages)
	if messages == nil {
		messages = make(map[string][]Message)
	}
	return messages, err
}

func (queries *Queries) SaveMessages(messages map[string][]Message) error {
	return save(queries.DB, MessagesNamespace, messages)
}

func (queries *Queries) LoadPreferences() (map[string]Preferences, error) {
	prefs := make(map[string]Preferences)
	err := load(queries.DB, PreferencesNamespace, &prefs)
	if prefs == nil {
		prefs = make(map[string]Preferences)
	}
	return prefs, err
}

func (queries *Queries) SavePreferences(prefs map[string]Preferences) error {
	return save(queries.DB, PreferencesNamespace, prefs)
}

// SaveConversations writes chats and messages as one unit. Used by mutations
// that touch both collections, most importantly the account deletion cascade.
func (queries *Queries) SaveConversations(chats []Chat, messages map[string][]Message) error {
	return queries.DB.Transaction(func(tx *gorm.DB) error {
		if err := save(tx, ChatsNamespace, chats); err != nil {
			return err
		}
		return save(tx, MessagesNamespace, messages)
	})
}

// SaveAll replaces every mutable collection atomically.
func (queries *Queries) SaveAll(accounts []Account, chats []Chat, messages map[string][]Message) error {
	return queries.DB.Transaction(func(tx *gorm.DB) error {
		if err := save(tx, AccountsNamespace, accounts); err != nil {
			return err
		}
		if err := save(tx, ChatsNamespace, chats); err != nil {
			return err
		}
		return save(tx, MessagesNamespace, messages)
	})
}
