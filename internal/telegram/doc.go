// Package telegram is the operator-facing messaging surface.
//
// The Notifier pushes importance notifications into one authorized chat,
// each carrying an inline "Reply" button. The Bot long-polls the Telegram
// Bot API for updates, serving lifecycle commands (/start, /stop, /status,
// /help), draft action buttons (send, edit, regenerate, cancel), and the
// free-form text the draft workflow consumes.
//
// Every incoming update is checked against the single allow-listed chat id
// and rate limited before it reaches the controller or the draft manager.
package telegram
