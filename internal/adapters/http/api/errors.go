package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrNotFound         = errors.New("not found")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrStore            = errors.New("history store failed")
	ErrUpstream         = errors.New("upstream request failed")
)

// Error annotates a failure with the operation that produced it and the
// sentinel kind that decides its HTTP status.
type Error struct {
	Op   string
	Kind error
	Err  error
}

// Error returns the client-facing message: the underlying error when
// present, otherwise the kind.
func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return e.Err.Error()
	case e.Kind != nil:
		return e.Kind.Error()
	default:
		return e.Op
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap annotates err with op, keeping whatever kind it already carries.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind annotates err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind builds an error of the given kind with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// errorResponse is the JSON body of every non-2xx API response.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// classify maps an error to its HTTP status and response code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return statusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound):
		return statusNotFound, "not_found"
	case errors.Is(err, ErrMethodNotAllowed):
		return statusMethodNotAllowed, "method_not_allowed"
	case errors.Is(err, ErrUpstream):
		return statusBadGateway, "upstream_error"
	case errors.Is(err, ErrStore):
		return statusInternalError, "store_error"
	default:
		return statusInternalError, "internal_error"
	}
}
