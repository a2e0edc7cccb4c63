// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package events publishes poll lifecycle notifications.

Clients listening on the topic refresh their poll view when an event for
their poll arrives instead of tight-polling the API. Publishing is
best-effort: a mutation never fails over a notification problem.

Producer writes JSON events to a Kafka topic, keyed by poll ID so one poll's
events stay ordered. Nop discards everything and is used in tests and when
no broker is configured.
*/
package events
