//go:build unix

package tts

import "syscall"

// pauseProcess freezes the running eSpeak process
func (e *ESpeakEngine) pauseProcess() error {
	return e.proc.cmd.Process.Signal(syscall.SIGSTOP)
}

// resumeProcess lets a frozen eSpeak process continue speaking
func (e *ESpeakEngine) resumeProcess() error {
	return e.proc.cmd.Process.Signal(syscall.SIGCONT)
}
