package observers

import "github.com/anggasct/junction/pkg/logging"

// NewDefaultLoggingObserver creates a logging observer on the process logger at LogInfo level
func NewDefaultLoggingObserver() *LoggingObserver {
	return NewLoggingObserver(*logging.Default(), LogInfo, "Junction")
}
