// Package ui provides the vmpeer terminal user interface.
//
// # Architecture Overview
//
// The interface is a Bubble Tea program over a Controller, which
// *session.Client satisfies. Every action key runs the matching session
// method as a tea.Cmd and reports the result as a message; the session
// itself is the single writer of state. A periodic tick copies the state
// store snapshot and the activity feed into the Model, so rendering never
// touches shared state directly.
//
// # Package Structure
//
//   - app.go: Model, Update loop, key handling and the Run entry point
//   - header.go: status bar with identity and connection/registration badges
//   - panels.go: peers and torrents tables, titled boxes and the footer
//   - logs.go: activity feed viewport
//   - help.go: help overlay and command bar
//   - keys.go: key bindings
//   - theme.go, style_helpers.go: color themes and background-safe rendering
//
// # Layout
//
// The screen is header, command bar, three stacked panes and a footer.
// Tab cycles focus between the panes; j/k move the selection or scroll the
// log. The footer doubles as the upload prompt.
//
// # Themes
//
// Nightfox, Kanagawa and Slate are built in. T cycles them and the choice
// is persisted through the prefs package along with the last upload
// directory.
package ui
