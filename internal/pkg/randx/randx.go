/*
Package randx generates room join codes and identifiers.

Join codes are six characters drawn from A-Z and 0-9 with crypto/rand, matching what users
type into the join dialog. Identifiers are UUID v4 strings.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// RoomCodeChars is the alphabet of join codes.
	RoomCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// RoomCodeLength is the fixed length of a join code.
	RoomCodeLength = 6
)

var roomCodeAlphabetLen = big.NewInt(int64(len(RoomCodeChars)))

// RoomCode returns a fresh random join code.
func RoomCode() (string, error) {
	result := make([]byte, RoomCodeLength)

	for i := range RoomCodeLength {
		num, err := rand.Int(rand.Reader, roomCodeAlphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for room code: %w", err)
		}
		result[i] = RoomCodeChars[num.Int64()]
	}

	return string(result), nil
}

// NormalizeRoomCode trims and upper-cases user input.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidRoomCode reports whether code has the join code length and alphabet.
// It does not normalize; callers pass NormalizeRoomCode output.
func IsValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}

	for _, char := range code {
		if !strings.ContainsRune(RoomCodeChars, char) {
			return false
		}
	}

	return true
}

// ID returns a UUID v4 string for rooms, messages and memory-store users.
func ID() string {
	return uuid.New().String()
}
