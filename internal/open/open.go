package open

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/ai-session-index/internal/logger"
	"github.com/Zuo-Peng/ai-session-index/internal/parse"
	"github.com/atotto/clipboard"
)

var ErrNotFound = errors.New("session not found")

// Getter resolves a session id to its stored record.
type Getter interface {
	Get(id string) (*parse.Session, error)
}

var writeClipboard = clipboard.WriteAll

// Lookup returns the session with the given id or ErrNotFound.
func Lookup(g Getter, id string) (*parse.Session, error) {
	s, err := g.Get(id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Transcript opens the session's file in $EDITOR, or less, at the given line.
func Transcript(s *parse.Session, line int) error {
	if _, err := os.Stat(s.FilePath); err != nil {
		return fmt.Errorf("file not found: %s", s.FilePath)
	}
	if line < 1 {
		line = 1
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}
	return run(editorCommand(editor, s.FilePath, line))
}

func editorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		return exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		return exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"):
		return exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		return exec.Command(editor, filePath)
	}
}

func run(cmd *exec.Cmd) error {
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// ResumeLine is the resume command prefixed with a cd into the session's
// working directory when it has one.
func ResumeLine(s *parse.Session) string {
	cmd := s.ResumeCommand()
	if s.Cwd == "" {
		return cmd
	}
	return fmt.Sprintf("cd %s && %s", parse.ShellQuote(s.Cwd), cmd)
}

// CopyResume puts ResumeLine on the clipboard and returns it.
func CopyResume(s *parse.Session) (string, error) {
	line := ResumeLine(s)
	if err := writeClipboard(line); err != nil {
		return line, fmt.Errorf("clipboard: %w", err)
	}
	return line, nil
}

// Resume runs the platform's resume command from the session's working
// directory. No shell is involved. A cwd that no longer exists is ignored.
func Resume(ctx context.Context, s *parse.Session) error {
	args := s.Platform.ResumeArgs(s.ID)
	if args == nil {
		return fmt.Errorf("no resume command for platform %q", s.Platform)
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if info, err := os.Stat(s.Cwd); err == nil && info.IsDir() {
		cmd.Dir = s.Cwd
	} else if s.Cwd != "" {
		logger.Warnf("working directory %s is gone, resuming from the current directory", s.Cwd)
	}
	logger.Debugf("resume: %q (dir=%q)", args, cmd.Dir)
	return run(cmd)
}
