package view

import (
	"fmt"
	"strings"
)

// Messages holds the fixed user-visible texts of an upload.
type Messages struct {
	// Progress is a format string taking the rounded percentage.
	Progress string `yaml:"progress"`
	Failed   string `yaml:"failed"`
	Timeout  string `yaml:"timeout"`
	Error    string `yaml:"error"`
}

var locales = map[string]Messages{
	"en": {
		Progress: "Upload progress: %d%%",
		Failed:   "upload failed, please retry",
		Timeout:  "upload timed out, try splitting the PDF before re-uploading",
		Error:    "upload error, please retry",
	},
	"zh": {
		Progress: "上传进度: %d%%",
		Failed:   "上传失败，请重试",
		Timeout:  "上传超时，请尝试分割PDF后再上传",
		Error:    "上传出错，请重试",
	},
}

// DefaultMessages returns the English catalog.
func DefaultMessages() Messages { return locales["en"] }

func MessagesFor(locale string) (Messages, error) {
	m, ok := locales[strings.ToLower(locale)]
	if !ok {
		return Messages{}, fmt.Errorf("unknown locale %q", locale)
	}
	return m, nil
}

// Merge returns m with every non-empty field of o applied on top.
func (m Messages) Merge(o Messages) Messages {
	if o.Progress != "" {
		m.Progress = o.Progress
	}
	if o.Failed != "" {
		m.Failed = o.Failed
	}
	if o.Timeout != "" {
		m.Timeout = o.Timeout
	}
	if o.Error != "" {
		m.Error = o.Error
	}
	return m
}

func (m Messages) Validate() error {
	if strings.Count(m.Progress, "%d") != 1 {
		return fmt.Errorf("progress message must contain exactly one %%d: %q", m.Progress)
	}
	if m.Failed == "" || m.Timeout == "" || m.Error == "" {
		return fmt.Errorf("failed, timeout and error messages are required")
	}
	return nil
}

func (m Messages) ProgressText(rounded int) string {
	return fmt.Sprintf(m.Progress, rounded)
}
