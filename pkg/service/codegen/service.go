package codegen

import (
	"context"

	"github.com/pwrecorder/pwrecorder/pkg/core/app"
	"github.com/pwrecorder/pwrecorder/pkg/core/profile"
)

type Supervisor interface {
	Launch(ctx context.Context, argv []string, dir string, onOutput func([]byte)) (app.Handle, error)
}

type Store interface {
	// ReadFile returns "" for a missing file.
	ReadFile(path string) (string, error)
	WriteFile(path, content string) error
	Remove(path string) error
	MkdirAll(dir string) error
	CreateScratch(dir, prefix, ext string) (string, error)
}

// Editor is an open document with a caret, such as fs.FileEditor.
type Editor interface {
	CaretOffset() int
	// LineIndent is the leading whitespace of the line holding offset.
	LineIndent(offset int) string
	Insert(offset int, text string) error
	MoveCaret(offset int)
}

// Service is the recording surface used by the CLI.
type Service interface {
	Start(ctx context.Context, prof *profile.Profile, url string) error
	Stop(ctx context.Context, editor Editor) (*Result, error)
	AttachEditor(editor Editor)
	OnSteps(fn StepsListener)
	OnFinish(fn FinishListener)
	Status() Status
	IsRecording() bool
}
