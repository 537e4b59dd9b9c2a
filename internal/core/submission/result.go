package submission

// Status is the terminal state of a submission.
type Status string

const (
	StatusAccepted         Status = "accepted"
	StatusRejected         Status = "rejected"
	StatusAlreadyKnown     Status = "already_known"
	StatusTransportFailure Status = "transport_failure"
)

// RejectionReason tells gateway rejections apart from documents issued by another channel.
type RejectionReason string

const (
	ReasonGateway         RejectionReason = "gateway"
	ReasonIssuedElsewhere RejectionReason = "issued_elsewhere"
)

// IssuedElsewhereMessage is returned when a bare fiscal code cannot be reconciled.
const IssuedElsewhereMessage = "El documento fue emitido por otro medio y no se encuentra registrado, ingrese el cufe de manera manual"

// GenericRejectionMessage is used when the gateway rejects without any message.
const GenericRejectionMessage = "El documento fue rechazado por la DIAN sin detalle de errores"

// Result is the caller-facing outcome of one submission. Which fields are
// set depends on Status.
type Result struct {
	Document   string          `json:"document,omitempty"`
	Type       string          `json:"type,omitempty"`
	Status     Status          `json:"status"`
	FiscalCode string          `json:"fiscal_code,omitempty"`
	Artifact   []byte          `json:"-"`
	ArchiveURI string          `json:"archive_uri,omitempty"`
	Reason     RejectionReason `json:"reason,omitempty"`
	Messages   []string        `json:"messages,omitempty"`
	Failure    *Failure        `json:"failure,omitempty"`
}

// Failure describes a transport failure.
type Failure struct {
	Kind       FailureKind `json:"kind"`
	StatusCode int         `json:"status_code,omitempty"`
	Detail     string      `json:"detail,omitempty"`
}

func Accepted(fiscalCode string, artifact []byte) Result {
	return Result{Status: StatusAccepted, FiscalCode: fiscalCode, Artifact: artifact}
}

func AlreadyKnown(fiscalCode string) Result {
	return Result{Status: StatusAlreadyKnown, FiscalCode: fiscalCode}
}

func Rejected(reason RejectionReason, messages []string) Result {
	return Result{Status: StatusRejected, Reason: reason, Messages: messages}
}

// Failed converts a transport error into a result.
func Failed(err *TransportError) Result {
	return Result{
		Status: StatusTransportFailure,
		Failure: &Failure{
			Kind:       err.Kind,
			StatusCode: err.StatusCode,
			Detail:     err.Detail,
		},
	}
}

// HasArtifact reports whether the rendered PDF was fetched.
func (r Result) HasArtifact() bool {
	return len(r.Artifact) > 0
}
