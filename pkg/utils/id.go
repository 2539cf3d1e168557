package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID 32 位十六进制 ID（去掉 uuid 中的 "-"）
func NewID() string { return strings.ReplaceAll(uuid.NewString(), "-", "") }
