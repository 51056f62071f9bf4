// Package telegram sends alarm raise and clear notifications to a Telegram chat.
package telegram
