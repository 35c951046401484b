package common

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var (
	idNode   *snowflake.Node
	nodeOnce sync.Once
)

// UUIDint64 generates a time-sortable int64 identifier.
func UUIDint64() int64 {
	nodeOnce.Do(func() {
		var err error
		idNode, err = snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
	})
	return idNode.Generate().Int64()
}

func Sha256HashWithSalt(src string, salt string) string {
	h := sha256.New()
	h.Write([]byte(src + salt))
	return hex.EncodeToString(h.Sum(nil))
}

// GetSecretSalt returns the process-level salt, overridable for deployments
// that rotate secrets.
func GetSecretSalt() string {
	if v := os.Getenv("DIGISTORE_SECRET_SALT"); v != "" {
		return v
	}
	return "digistore-secret-salt"
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify builds a URL-safe slug from a display name.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStrip.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
