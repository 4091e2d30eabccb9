// Package notifier announces newly stored events.
//
// Backends implement Notifier: Telegram (one message per event, or a
// digest for larger batches), Twitter (one post per event, OAuth1 user
// context) and a dry run that prints what would be sent. Multi fans a
// batch out to several backends.
package notifier
