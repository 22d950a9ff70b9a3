package domain

import (
	"errors"
	"regexp"
	"strings"
)

// AvatarTextKey is the resolver text record holding a name's avatar URI.
const AvatarTextKey = "avatar"

var usernamePattern = regexp.MustCompile(`^[a-z0-9-]{3,32}$`)

// ErrInvalidUsername is returned for labels outside [a-z0-9-]{3,32}.
var ErrInvalidUsername = errors.New("username must be 3-32 characters of a-z, 0-9 or '-'")

// NormalizeUsername lower-cases and trims a requested label, then validates it.
func NormalizeUsername(raw string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if !usernamePattern.MatchString(name) || strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		return "", ErrInvalidUsername
	}
	return name, nil
}

// FullName joins a label to its parent domain, e.g. "alice" + "bedrock.eth".
func FullName(username, parent string) string {
	if parent == "" {
		return username
	}
	return username + "." + parent
}

// Registration is the result of POST /register.
type Registration struct {
	TxHash string `json:"tx_hash"`
}

// UsernameRecord is the reverse lookup for an address.
type UsernameRecord struct {
	Username string `json:"username"`
}

// Availability reports whether a label can still be registered.
type Availability struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}

// Resolution maps a label to the address its resolver record points at.
type Resolution struct {
	Username string `json:"username"`
	Address  string `json:"address"`
}

// AvatarUpdate is the result of pinning an avatar and writing its text record.
type AvatarUpdate struct {
	CID    string `json:"cid"`
	URI    string `json:"uri"`
	TxHash string `json:"tx_hash"`
}

// AvatarRecord is the current avatar text record of a name.
type AvatarRecord struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// IPFSURI formats a content identifier as an ipfs:// URI.
func IPFSURI(cid string) string {
	return "ipfs://" + cid
}
