// Package rate provides a token-bucket limiter used to pace outbound
// Telegram API calls and to throttle operator control commands.
package rate
