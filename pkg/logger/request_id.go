package logger

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

var requestCounter atomic.Uint64

// GenerateRequestID returns timestamp-counter-random,
// e.g. 20231201102830-000001-a3f2b1
func GenerateRequestID() string {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Sprintf("%s-%06d", time.Now().Format("20060102150405"), requestCounter.Add(1))
	}
	return fmt.Sprintf("%s-%06d-%s",
		time.Now().Format("20060102150405"),
		requestCounter.Add(1),
		hex.EncodeToString(suffix))
}
