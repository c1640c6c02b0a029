package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide structured logger.
var Log *logrus.Logger

func init() {
	Log = logrus.New()
	Log.Out = os.Stdout
	Log.Formatter = &logrus.JSONFormatter{}
	Log.AddHook(&defaultFieldsHook{})
}

type defaultFieldsHook struct{}

func (h *defaultFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *defaultFieldsHook) Fire(e *logrus.Entry) error {
	e.Data["service"] = "dblens-api"
	return nil
}
