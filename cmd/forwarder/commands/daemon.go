package commands

import (
	"fmt"

	daemon "github.com/sevlyar/go-daemon"
)

// daemonize перезапускает процесс в фоне. В родительском процессе
// возвращает child == false, и тот должен сразу завершиться.
// release снимает PID-файл в дочернем процессе.
func daemonize(pidFile, logFile string) (release func() error, child bool, err error) {
	cntxt := &daemon.Context{
		PidFileName: pidFile,
		PidFilePerm: 0o644,
		LogFileName: logFile,
		LogFilePerm: 0o640,
		WorkDir:     "./",
		Umask:       0o27,
	}
	proc, err := cntxt.Reborn()
	if err != nil {
		return nil, false, fmt.Errorf("failed to daemonize: %w", err)
	}
	if proc != nil {
		fmt.Printf("forwarder started in background, pid %d\n", proc.Pid)
		return nil, false, nil
	}
	return cntxt.Release, true, nil
}
