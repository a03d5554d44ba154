package emailbuilder

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const nodeIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const nodeIDLength = 10

// NewNodeID generates a process-unique identifier for a component node.
// Ids are never reused, even after deletion, so history snapshots stay
// distinguishable.
func NewNodeID() string {
	return fmt.Sprintf("node-%s", generateNanoID(nodeIDLength))
}

// NewTemplateID generates an identifier for a template document.
func NewTemplateID() string {
	return uuid.NewString()
}

// generateNanoID produces a cryptographically random lowercase alphanumeric
// string of the given length.
func generateNanoID(length int) string {
	if length <= 0 {
		length = nodeIDLength
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(nodeIDAlphabet)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			// crypto/rand failing is effectively fatal elsewhere; degrade to a
			// deterministic fill rather than panic mid-edit.
			result[i] = nodeIDAlphabet[i%len(nodeIDAlphabet)]
			continue
		}
		result[i] = nodeIDAlphabet[num.Int64()]
	}

	return string(result)
}
