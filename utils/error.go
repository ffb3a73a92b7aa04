package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrorRecordNotFound = errors.New("record not found")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}

// ErrorId derives a short stable id from an error message so a 5xx response
// can be correlated with server logs without leaking the message itself.
func ErrorId(err error) string {
	if err == nil {
		return ""
	}
	sum := sha256.Sum256([]byte(err.Error()))
	return hex.EncodeToString(sum[:6])
}
