package transport

// Envelope wraps every JSON body, including event stream frames.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusPending = "pending"
	StatusError   = "error"
)

// Pending names a mutation that was still running when the request deadline
// passed. Its outcome reaches clients through the schedule stream.
type Pending struct {
	Command string `json:"command"`
}

func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: StatusSuccess,
		Data:   data,
		Meta:   meta,
	}
}

// NewPending acknowledges an accepted mutation with no outcome yet.
func NewPending(command string) Envelope {
	return Envelope{
		Status: StatusPending,
		Data:   Pending{Command: command},
	}
}

// NewError carries a machine-readable code and a human-readable message.
func NewError(code string, message interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: StatusError,
		Code:   code,
		Error:  message,
		Meta:   meta,
	}
}
