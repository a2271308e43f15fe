// Package routing decides when a conversation moves between specialist
// agents. The router combines a content classifier with guard rails:
// a confidence threshold, a directional cooldown per (contact, source,
// target), and hourly/daily transfer caps per contact. Decisions for the
// same contact are evaluated serially so the guard rails see a consistent
// history even under concurrent messages.
package routing
