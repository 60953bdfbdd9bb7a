// Package ui provides the Bubble Tea picker used to choose which generated
// message gets posted.
package ui

// MessagesGenerated is sent when a generator run finishes.
type MessagesGenerated struct {
	Messages []string
	Err      error
}

// MessagePosted is sent when the selected message has been posted.
type MessagePosted struct {
	Text string
	Err  error
}
