// Package telegram sends event announcements through the Telegram Bot API.
//
// Messages use Telegram's HTML parse mode. The client is a plain HTTP
// client; authentication is the bot token (from @BotFather) plus the
// target chat ID.
package telegram
