package errors

type ExitCode int

const (
	ExitSuccess         ExitCode = 0
	ExitGeneralError    ExitCode = 1
	ExitConfigError     ExitCode = 2
	ExitValidationError ExitCode = 3
	ExitLLMError        ExitCode = 4
	ExitToolError       ExitCode = 5
	ExitIOError         ExitCode = 6
	ExitPaperError      ExitCode = 8
)

func (e ExitCode) Int() int {
	return int(e)
}
