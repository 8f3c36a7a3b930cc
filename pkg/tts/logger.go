package tts

import (
	"fmt"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.Mutex
	reqLog = newRequestLog("logs/tts.log")
)

func newRequestLog(path string) *lumberjack.Logger {
	if path == "" {
		return nil
	}
	return &lumberjack.Logger{Filename: path, MaxSize: 2, MaxBackups: 1}
}

// SetLogPath points the synthesis request log at path. Empty disables it.
func SetLogPath(path string) {
	mu.Lock()
	defer mu.Unlock()
	if reqLog != nil {
		reqLog.Close()
	}
	reqLog = newRequestLog(path)
}

// Log appends one synthesis request and its outcome to the request log.
// Line format: [TIMESTAMP] [PROVIDER] rate=<r> STATUS | <text>
func Log(provider, text string, rate float64, err error) {
	status := "OK"
	if err != nil {
		status = fmt.Sprintf("ERROR(%v)", err)
	}
	line := fmt.Sprintf("[%s] [%s] rate=%.2f %s | %s\n",
		time.Now().Format("2006-01-02 15:04:05"), provider, rate, status, text)

	mu.Lock()
	defer mu.Unlock()
	if reqLog == nil {
		return
	}
	_, _ = reqLog.Write([]byte(line))
}
