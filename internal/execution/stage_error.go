package execution

import "fmt"

// stageError 为底层错误附加稳定的阶段标识（catalog / model / tool / commit），
// 便于 HTTP 层与日志区分失败位置。
type stageError struct {
	Stage string
	Err   error
}

func (e stageError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%v", e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e stageError) Unwrap() error { return e.Err }

// Stage 返回 err 链上最近的阶段标识，没有时返回空字符串。
func Stage(err error) string {
	for err != nil {
		if se, ok := err.(stageError); ok {
			return se.Stage
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
