package common

import (
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"golang.org/x/crypto/bcrypt"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"

	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

var (
	idNode     *snowflake.Node
	idNodeOnce sync.Once
)

// SetNodeID sets the snowflake node used by UUIDint64. It must be called before the first id is generated.
func SetNodeID(n int64) {
	idNodeOnce.Do(func() {
		node, err := snowflake.NewNode(n)
		if err != nil {
			panic(err)
		}
		idNode = node
	})
}

// UUIDint64 returns a time ordered unique int64 id
func UUIDint64() int64 {
	SetNodeID(1)
	return idNode.Generate().Int64()
}

// HashPassword returns the bcrypt hash of the password
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether password matches the bcrypt hash
func CheckPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// IsAdmin role check
func IsAdmin(role string) bool {
	return strings.EqualFold(role, RoleAdmin)
}

func IsEmptyOrNA(val string) bool {
	val = strings.TrimSpace(val)
	return val == "" || val == "N/A"
}
