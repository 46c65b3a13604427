// Package store provides persistent storage for parley chats.
//
// # Architecture
//
// Two backends implement the ChatStore interface:
//
//   - JSONStore: all chats in memory, mirrored to a single JSON snapshot
//     file that is atomically rewritten on every mutation
//   - SQLiteStore: chats and messages in SQLite via modernc.org/sqlite
//
// JSONStore is the default. It trades write amplification for a store that
// is trivial to inspect and back up, which fits the scale parley targets.
// SQLiteStore suits longer-lived installs with larger histories.
//
// # Data Models
//
//   - Chat: a conversation thread with title, creation time and history
//   - ChatSummary: a chat without its history, used for listings
//   - Message: one history entry with a Role (user, assistant,
//     assistant_error, system) and content
//
// # SQLite Configuration
//
// The SQLite backend uses WAL mode and enforces foreign keys:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// # Error Handling
//
//   - ErrNotFound: requested chat does not exist
//   - ErrEmptyTitle: chat creation with a blank title
//
// All methods accept context.Context for cancellation support.
package store
