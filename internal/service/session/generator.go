// Package session manages live caption sessions: one stabilizer and one
// caption log per interview, with mutation fan-out to subscribers and the
// event bus.
package session

import "github.com/google/uuid"

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Next returns a new session ID.
func (g *Generator) Next() string {
	return "sess-" + uuid.NewString()
}
