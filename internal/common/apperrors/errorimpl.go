package apperrors

import "errors"

// appError implements the apperrors.Error interface
type appError struct {
	msg           string
	base          Error
	wrappedErrors []error
	statuscode    int
	retryable     bool
	expandError   bool
	prefix        string
	suffix        string
}

func (e *appError) Error() string {
	msg := e.msg
	if e.prefix != "" {
		msg = e.prefix + ": " + msg
	}
	if e.suffix != "" {
		msg += ": " + e.suffix
	}
	return msg
}

func (e *appError) ErrorAll() string {
	if !e.expandError {
		return e.Error()
	}
	var msg string
	for _, err := range e.wrappedErrors {
		msg += err.Error() + ";"
	}
	if len(msg) > 0 {
		// remove the last ;
		msg = msg[:len(msg)-1]
		msg = e.Error() + ": " + msg
	} else {
		msg = e.Error()
	}

	return msg
}

func (e *appError) Unwrap() []error {
	return e.wrappedErrors
}

// derive returns a copy of e chained to e, so sentinel errors are never mutated.
func (e *appError) derive() *appError {
	c := *e
	c.base = e
	c.wrappedErrors = append([]error(nil), e.wrappedErrors...)
	return &c
}

func (e *appError) New(msg string) Error {
	return &appError{
		msg:        msg,
		statuscode: e.statuscode,
		retryable:  e.retryable,
		base:       e,
	}
}

func (e *appError) Msg(msg string) Error {
	c := e.derive()
	c.msg = msg
	return c
}

func (e *appError) Prefix(prefix string) Error {
	c := e.derive()
	c.prefix = prefix
	return c
}

func (e *appError) Suffix(suffix string) Error {
	c := e.derive()
	c.suffix = suffix
	return c
}

func (e *appError) MsgErr(msg string, err ...error) Error {
	c := e.derive()
	c.msg = msg
	c.wrappedErrors = append(c.wrappedErrors, err...)
	return c
}

func (e *appError) Err(err ...error) Error {
	c := e.derive()
	c.wrappedErrors = append(c.wrappedErrors, err...)
	return c
}

func (e *appError) Is(target error) bool {
	if e == target || e.base == target {
		return true
	}
	if e.base != nil && e.base.Is(target) {
		return true
	}
	for _, err := range e.wrappedErrors {
		if err == target {
			return true
		}
	}
	return false
}

func (e *appError) SetExpandError(expand bool) Error {
	e.expandError = expand
	return e
}

func (e *appError) SetStatusCode(code int) Error {
	e.statuscode = code
	return e
}

func (e *appError) StatusCode() int {
	return e.statuscode
}

func (e *appError) SetRetryable(retryable bool) Error {
	e.retryable = retryable
	return e
}

func (e *appError) Retryable() bool {
	return e.retryable
}

func New(msg string) Error {
	return &appError{
		msg:           msg,
		base:          nil,
		wrappedErrors: nil,
	}
}

// IsRetryable reports whether any Error in err's chain is marked retryable.
func IsRetryable(err error) bool {
	var appErr Error
	if errors.As(err, &appErr) {
		return appErr.Retryable()
	}
	return false
}
