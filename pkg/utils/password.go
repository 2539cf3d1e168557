package utils

import "golang.org/x/crypto/bcrypt"

const PasswordCost = bcrypt.DefaultCost

// HashPassword 生成带盐的 bcrypt 哈希
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword 常量时间比较；hashed 非法时返回 false
func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
