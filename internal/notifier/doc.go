// Package notifier delivers page alerts to the operator.
//
// Three transports implement the same Notifier capability:
//
//   - Desktop posts a local notification through org.freedesktop.Notifications
//     on the D-Bus session bus. It is the fallback when no push service is
//     configured.
//   - Pushover calls the Pushover messages API.
//   - Telegram sends a bot message to a chat (optionally a forum topic).
//
// Select picks the transport from configuration; Switch holds the active one
// so credentials can be replaced on config reload without restarting the
// tracker.
package notifier
