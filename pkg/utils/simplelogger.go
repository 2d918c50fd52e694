// Package utils: файловый логгер без внешних зависимостей.
//
// Каждый запуск бинарника пишет в свой vitrina-*.log рядом с ним.
// Запись сериализована мьютексом, уровни фиксированные.
package utils

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var (
	logFile     *os.File
	logMutex    sync.Mutex
	initialized bool
)

// InitLogger открывает лог-файл vitrina-YYYY-MM-DD-HH-MM.log
// в рабочей директории. Повторный вызов — no-op.
func InitLogger() error {
	logMutex.Lock()
	defer logMutex.Unlock()

	if initialized {
		return nil
	}

	filename := fmt.Sprintf("vitrina-%s.log", time.Now().Format("2006-01-02-15-04"))

	var err error
	logFile, err = os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	initialized = true

	// Мьютекс уже взят, поэтому не через Info
	initLine := fmt.Sprintf("[%s] INFO: Logger initialized file=%s\n",
		time.Now().Format("2006-01-02 15:04:05"), filename)
	if _, err := logFile.WriteString(initLine); err != nil {
		fmt.Fprintf(os.Stderr, "%s", initLine)
		fmt.Fprintf(os.Stderr, "[LOGGER ERROR: WriteString failed: %v]\n", err)
	}
	if err := logFile.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Sync failed: %v]\n", err)
	}

	return nil
}

func Info(msg string, keyvals ...any) {
	log("INFO", msg, keyvals...)
}

func Error(msg string, keyvals ...any) {
	log("ERROR", msg, keyvals...)
}

func Debug(msg string, keyvals ...any) {
	log("DEBUG", msg, keyvals...)
}

func Warn(msg string, keyvals ...any) {
	log("WARN", msg, keyvals...)
}

// log пишет строку вида:
//
//	[2026-08-29 15:04:05] INFO: message key1=value1 key2=value2
//
// keyvals идут парами; непарный хвост отбрасывается.
// Если файл недоступен, строка уходит в stderr.
func log(level, msg string, keyvals ...any) {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile == nil {
		return
	}

	line := fmt.Sprintf("[%s] %s: %s", time.Now().Format("2006-01-02 15:04:05"), level, msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		line += fmt.Sprintf(" %v=%v", keyvals[i], keyvals[i+1])
	}
	line += "\n"

	if _, err := logFile.WriteString(line); err != nil {
		fmt.Fprintf(os.Stderr, "%s", line)
		fmt.Fprintf(os.Stderr, "[LOGGER ERROR: WriteString failed: %v]\n", err)
		return
	}
	if err := logFile.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Sync failed: %v]\n", err)
	}
}

// Close закрывает лог-файл. Зовётся через defer в main.
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile != nil {
		if err := logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Close failed: %v]\n", err)
		}
		logFile = nil
		initialized = false
	}
}
