// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package notify delivers cycle announcements.
//
// Mailer sends HTML mail over SMTP: one open announcement per voter carrying
// that voter's vote link, and one close announcement addressed to everyone who
// voted. LogNotifier writes the same events to the log and is used when no SMTP
// host is configured.
package notify
