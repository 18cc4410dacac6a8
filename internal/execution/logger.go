package execution

import "contract-agent/internal/logger"

// log 复用全局 logger。
var log = logger.Named("engine")
