// Package service contains small infrastructure services shared by the
// command and saga layers.
package service

import (
	"github.com/google/uuid"
)

// UUIDGenerator implements the IDGenerator interfaces of the command and
// saga layers with random UUIDs.
type UUIDGenerator struct{}

// NewIDGenerator creates a UUID-backed ID generator.
func NewIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// GenerateID generates a new unique ID.
func (g *UUIDGenerator) GenerateID() string {
	return uuid.New().String()
}
