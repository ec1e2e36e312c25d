package util

import (
	"fmt"
	"regexp"
	"strings"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// ValidateUsername 验证用户名（3-20 位字母、数字或下划线）
func ValidateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("username must be 3-20 letters, digits or underscores")
	}
	return nil
}

// ValidateDifficulty 验证难度取值
func ValidateDifficulty(difficulty string) error {
	switch difficulty {
	case "easy", "medium", "hard":
		return nil
	}
	return fmt.Errorf("invalid difficulty %q, want easy/medium/hard", difficulty)
}

// ValidateTopic 验证主题（不能为空且长度合理）
func ValidateTopic(topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return fmt.Errorf("topic is empty")
	}
	if len(topic) > 128 {
		return fmt.Errorf("topic too long, max 128 characters")
	}
	return nil
}

// SanitizeTitlePart 把任意文本压成会话标题里可用的片段：
// 仅保留字母数字和空格，空格换成下划线，空结果退回 "Session"。
func SanitizeTitlePart(s string) string {
	var b strings.Builder
	for _, ch := range s {
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == ' ':
			b.WriteRune(ch)
		}
	}
	out := strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
	if out == "" {
		return "Session"
	}
	return out
}

// IsStrongPassword 检查密码强度：8-32 位，包含大小写字母和数字
func IsStrongPassword(pwd string) bool {
	if len(pwd) < 8 || len(pwd) > 32 {
		return false
	}
	var hasUpper, hasLower, hasDigit bool
	for _, ch := range pwd {
		switch {
		case ch >= 'A' && ch <= 'Z':
			hasUpper = true
		case ch >= 'a' && ch <= 'z':
			hasLower = true
		case ch >= '0' && ch <= '9':
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}
