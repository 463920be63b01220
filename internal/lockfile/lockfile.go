// Package lockfile — эксклюзивная блокировка файла, чтобы два процесса не
// управляли одной игровой сессией одновременно.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

var ErrLocked = errors.New("lock file is held by another process")

// Lock — захваченная блокировка. Освобождается Release.
type Lock struct {
	path string
	file *os.File
}

// Acquire пытается захватить path без ожидания. Занятый файл — ErrLocked.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}
	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	// pid — только для человека, который будет разбираться, кто держит файл
	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	return &Lock{path: path, file: f}, nil
}

func (l *Lock) Path() string { return l.path }

// Release снимает блокировку. Повторный вызов ничего не делает.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil
	uerr := unlockFile(f)
	cerr := f.Close()
	return errors.Join(uerr, cerr)
}
