package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// newBusinessNo 生成业务单号：前缀 + 时间戳 + 6位随机数
func newBusinessNo(prefix string) string {
	suffix, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return fmt.Sprintf("%s%s%06d", prefix, time.Now().Format("20060102150405"), time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("%s%s%06d", prefix, time.Now().Format("20060102150405"), suffix.Int64())
}
