// internal/utils/reference.go
package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
)

const referenceAlphabet = "0123456789ABCDEF"

// ReferenceGenerator builds payment references of the form
// <PREFIX>-<first 8 characters of the application id>-<6 hex characters>.
type ReferenceGenerator struct {
	prefix string
	suffix func() string
}

func NewReferenceGenerator(prefix string) (*ReferenceGenerator, error) {
	suffix, err := nanoid.CustomASCII(referenceAlphabet, 6)
	if err != nil {
		return nil, fmt.Errorf("failed to create reference generator: %w", err)
	}
	if prefix == "" {
		prefix = "EVS"
	}
	return &ReferenceGenerator{prefix: strings.ToUpper(prefix), suffix: suffix}, nil
}

func (g *ReferenceGenerator) Generate(applicationID uuid.UUID) string {
	head := strings.ToUpper(applicationID.String()[:8])
	return fmt.Sprintf("%s-%s-%s", g.prefix, head, g.suffix())
}
